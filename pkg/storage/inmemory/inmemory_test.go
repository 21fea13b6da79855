package inmemory_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage/inmemory"
)

func TestInMemory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "InMemory Storage Suite")
}

var _ = Describe("InMemory Driver", func() {
	var (
		driver *inmemory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		driver = inmemory.NewDriver()
		ctx = context.Background()
	})

	It("assigns monotonically increasing ids per table", func() {
		id1, err := driver.Insert(ctx, "fears", map[string]any{"fear": "heights"})
		Expect(err).NotTo(HaveOccurred())
		id2, err := driver.Insert(ctx, "fears", map[string]any{"fear": "crowds"})
		Expect(err).NotTo(HaveOccurred())
		Expect(id2).To(Equal(id1 + 1))

		other, err := driver.Insert(ctx, "joys", map[string]any{"joy": "rain"})
		Expect(err).NotTo(HaveOccurred())
		Expect(other).To(Equal(int64(1)))
	})

	It("rejects tables outside the schema", func() {
		_, err := driver.Insert(ctx, "nonsense", map[string]any{"a": "b"})
		Expect(err).To(MatchError(storage.ErrNoTable{Table: "nonsense"}))
	})

	It("rejects columns outside the table's schema", func() {
		_, err := driver.Insert(ctx, "fears", map[string]any{"mood": "blue"})
		Expect(err).To(MatchError(storage.ErrNoColumn{Table: "fears", Column: "mood"}))
	})

	It("returns rows with their ids in insert order", func() {
		_, err := driver.Insert(ctx, "wisdom", map[string]any{"insight": "first"})
		Expect(err).NotTo(HaveOccurred())
		_, err = driver.Insert(ctx, "wisdom", map[string]any{"insight": "second"})
		Expect(err).NotTo(HaveOccurred())

		rows, err := driver.Rows(ctx, "wisdom")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0]["id"]).To(Equal(int64(1)))
		Expect(rows[0]["insight"]).To(Equal("first"))
		Expect(rows[1]["insight"]).To(Equal("second"))
	})

	It("counts every table in the schema", func() {
		_, err := driver.Insert(ctx, "fears", map[string]any{"fear": "heights"})
		Expect(err).NotTo(HaveOccurred())

		counts, err := driver.Counts(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(counts["fears"]).To(Equal(1))
		Expect(counts["joys"]).To(Equal(0))
		Expect(counts).To(HaveKey("entry_connections"))
	})
})
