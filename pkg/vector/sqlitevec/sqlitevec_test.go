package sqlitevec_test

import (
	"context"
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector/sqlitevec"
)

func TestSQLiteVec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SQLiteVec Suite")
}

func entry(id, table string, embedding []float32) vector.Entry {
	return vector.Entry{
		ID:        id,
		Embedding: embedding,
		Document:  "doc for " + id,
		Metadata: map[string]string{
			"source_table": table,
			"source_id":    "1",
		},
	}
}

var _ = Describe("SQLiteVec Driver", func() {
	var (
		driver *sqlitevec.SQLiteVecDriver
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		driver, err = sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     ":memory:",
			Dimensions: 3,
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(driver.Close()).To(Succeed())
	})

	It("requires configured dimensions", func() {
		_, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{DBPath: ":memory:"}, zap.NewNop())
		Expect(err).To(HaveOccurred())
	})

	It("upserts and counts entries", func() {
		err := driver.Upsert(ctx, []vector.Entry{
			entry("fears_1", "fears", []float32{1, 0, 0}),
			entry("joys_1", "joys", []float32{0, 1, 0}),
		})
		Expect(err).NotTo(HaveOccurred())

		count, err := driver.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(2))

		ids, err := driver.IDs(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ids).To(ConsistOf("fears_1", "joys_1"))
	})

	It("replaces entries on repeated upsert instead of duplicating", func() {
		first := entry("fears_1", "fears", []float32{1, 0, 0})
		Expect(driver.Upsert(ctx, []vector.Entry{first})).To(Succeed())

		second := entry("fears_1", "fears", []float32{0, 0, 1})
		second.Document = "updated doc"
		Expect(driver.Upsert(ctx, []vector.Entry{second})).To(Succeed())

		count, err := driver.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))

		results, err := driver.Query(ctx, []float32{0, 0, 1}, 1, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("fears_1"))
		Expect(results[0].Document).To(Equal("updated doc"))
	})

	It("returns results in descending score order with scores in [0,1]", func() {
		Expect(driver.Upsert(ctx, []vector.Entry{
			entry("fears_1", "fears", []float32{1, 0, 0}),
			entry("joys_1", "joys", []float32{0.9, 0.1, 0}),
			entry("wisdom_1", "wisdom", []float32{0, 0, 1}),
		})).To(Succeed())

		results, err := driver.Query(ctx, []float32{1, 0, 0}, 3, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		Expect(results[0].ID).To(Equal("fears_1"))
		Expect(results[1].ID).To(Equal("joys_1"))

		for i, r := range results {
			Expect(r.Score).To(BeNumerically(">=", 0))
			Expect(r.Score).To(BeNumerically("<=", 1))
			if i > 0 {
				Expect(r.Score).To(BeNumerically("<=", results[i-1].Score))
			}
		}
	})

	It("restricts results to the requested tables", func() {
		Expect(driver.Upsert(ctx, []vector.Entry{
			entry("fears_1", "fears", []float32{1, 0, 0}),
			entry("joys_1", "joys", []float32{1, 0.01, 0}),
			entry("joys_2", "joys", []float32{0.8, 0.2, 0}),
		})).To(Succeed())

		results, err := driver.Query(ctx, []float32{1, 0, 0}, 5, []string{"joys"})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		for _, r := range results {
			Expect(r.Metadata["source_table"]).To(Equal("joys"))
		}
	})

	It("finds in-table entries even when other tables dominate the neighborhood", func() {
		// A hundred near-identical self_knowledge entries sit between
		// the query and the lone fears entry. The filter must narrow
		// the KNN itself, not trim its global output.
		entries := make([]vector.Entry, 0, 101)
		for i := 0; i < 100; i++ {
			entries = append(entries, entry(
				fmt.Sprintf("self_knowledge_%d", i+1),
				"self_knowledge",
				[]float32{1, float32(i) * 0.0001, 0},
			))
		}
		entries = append(entries, entry("fears_1", "fears", []float32{0, 1, 0}))
		Expect(driver.Upsert(ctx, entries)).To(Succeed())

		results, err := driver.Query(ctx, []float32{1, 0, 0}, 5, []string{"fears"})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("fears_1"))
	})

	It("honors topK when filtering", func() {
		Expect(driver.Upsert(ctx, []vector.Entry{
			entry("joys_1", "joys", []float32{1, 0, 0}),
			entry("joys_2", "joys", []float32{0.9, 0.1, 0}),
			entry("joys_3", "joys", []float32{0.8, 0.2, 0}),
		})).To(Succeed())

		results, err := driver.Query(ctx, []float32{1, 0, 0}, 2, []string{"joys"})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
	})

	It("deletes entries by id", func() {
		Expect(driver.Upsert(ctx, []vector.Entry{
			entry("fears_1", "fears", []float32{1, 0, 0}),
			entry("joys_1", "joys", []float32{0, 1, 0}),
		})).To(Succeed())

		Expect(driver.Delete(ctx, []string{"fears_1", "missing_99"})).To(Succeed())

		ids, err := driver.IDs(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ids).To(ConsistOf("joys_1"))
	})
})
