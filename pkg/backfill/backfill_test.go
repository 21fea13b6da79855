package backfill_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/backfill"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage/inmemory"
	testutils "github.com/wjcornelius/VECTOR-Biographer/pkg/utils/test"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
)

func TestBackfill(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Backfill Suite")
}

var _ = Describe("Backfiller", func() {
	var (
		store    *inmemory.Driver
		vectors  *testutils.MockVectorDriver
		embedder *testutils.MockEmbedder
		ctx      context.Context
	)

	newBackfiller := func(opts backfill.Options) *backfill.Backfiller {
		return backfill.NewBackfiller(store, vectors, embedder, zap.NewNop(), opts)
	}

	BeforeEach(func() {
		store = inmemory.NewDriver()
		vectors = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		ctx = context.Background()
	})

	It("skips missing tables and still syncs the rest", func() {
		_, err := store.Insert(ctx, "joys", map[string]any{"joy": "rain on the roof"})
		Expect(err).NotTo(HaveOccurred())
		_, err = store.Insert(ctx, "wisdom", map[string]any{"insight": "listen first"})
		Expect(err).NotTo(HaveOccurred())

		partial := testutils.NewPartialStore(store, "fears", "regrets")
		result, err := backfill.NewBackfiller(partial, vectors, embedder, zap.NewNop(), backfill.Options{}).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(result.TablesMissing).To(Equal(2))
		Expect(result.Synced).To(Equal(2))
		Expect(result.Failures).To(BeZero())
		Expect(vectors.Entries).To(HaveKey("joys_1"))
		Expect(vectors.Entries).To(HaveKey("wisdom_1"))
	})

	It("embeds and upserts every relational row", func() {
		_, err := store.Insert(ctx, "joys", map[string]any{"joy": "rain on the roof"})
		Expect(err).NotTo(HaveOccurred())
		_, err = store.Insert(ctx, "fears", map[string]any{"fear": "heights"})
		Expect(err).NotTo(HaveOccurred())

		result, err := newBackfiller(backfill.Options{}).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(result.Synced).To(Equal(2))
		Expect(result.Failures).To(BeZero())
		Expect(vectors.Entries).To(HaveKey("joys_1"))
		Expect(vectors.Entries).To(HaveKey("fears_1"))

		entry := vectors.Entries["joys_1"]
		Expect(entry.Document).To(Equal("joy: rain on the roof"))
		Expect(entry.Metadata["source_table"]).To(Equal("joys"))
		Expect(entry.Metadata["source_id"]).To(Equal("1"))
	})

	It("skips rows with no embeddable text", func() {
		_, err := store.Insert(ctx, "joys", map[string]any{"evidence_type": "stated"})
		Expect(err).NotTo(HaveOccurred())

		result, err := newBackfiller(backfill.Options{}).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(result.Skipped).To(Equal(1))
		Expect(result.Synced).To(BeZero())
		Expect(vectors.Entries).To(BeEmpty())
	})

	It("counts per-row failures and keeps going", func() {
		_, err := store.Insert(ctx, "joys", map[string]any{"joy": "breaks"})
		Expect(err).NotTo(HaveOccurred())
		_, err = store.Insert(ctx, "joys", map[string]any{"joy": "survives"})
		Expect(err).NotTo(HaveOccurred())
		embedder.FailOn = "joy: breaks"

		result, err := newBackfiller(backfill.Options{}).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(result.Failures).To(Equal(1))
		Expect(result.Synced).To(Equal(1))
		Expect(vectors.Entries).To(HaveKey("joys_2"))
	})

	It("prunes vector entries whose source row is gone", func() {
		vectors.Entries["joys_99"] = vector.Entry{ID: "joys_99", Document: "stale"}
		_, err := store.Insert(ctx, "joys", map[string]any{"joy": "current"})
		Expect(err).NotTo(HaveOccurred())

		result, err := newBackfiller(backfill.Options{}).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(result.OrphansRemoved).To(Equal(1))
		Expect(vectors.Entries).NotTo(HaveKey("joys_99"))
		Expect(vectors.Entries).To(HaveKey("joys_1"))
	})

	It("keeps orphans when asked to", func() {
		vectors.Entries["joys_99"] = vector.Entry{ID: "joys_99", Document: "stale"}

		result, err := newBackfiller(backfill.Options{KeepOrphans: true}).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(result.OrphansRemoved).To(BeZero())
		Expect(vectors.Entries).To(HaveKey("joys_99"))
	})

	It("writes nothing in a dry run", func() {
		vectors.Entries["joys_99"] = vector.Entry{ID: "joys_99", Document: "stale"}
		_, err := store.Insert(ctx, "joys", map[string]any{"joy": "pending"})
		Expect(err).NotTo(HaveOccurred())

		result, err := newBackfiller(backfill.Options{DryRun: true}).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(result.Synced).To(Equal(1))
		Expect(result.OrphansRemoved).To(Equal(1))
		Expect(vectors.Entries).NotTo(HaveKey("joys_1"))
		Expect(vectors.Entries).To(HaveKey("joys_99"))
	})

	It("reports progress per table", func() {
		_, err := store.Insert(ctx, "joys", map[string]any{"joy": "one"})
		Expect(err).NotTo(HaveOccurred())

		progressed := map[string]int{}
		opts := backfill.Options{Progress: func(table string, synced, total int) {
			progressed[table] = synced
		}}

		_, err = newBackfiller(opts).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(progressed["joys"]).To(Equal(1))
		Expect(progressed).To(HaveKey("fears"))
	})

	It("survives a panicking progress callback", func() {
		_, err := store.Insert(ctx, "joys", map[string]any{"joy": "one"})
		Expect(err).NotTo(HaveOccurred())

		opts := backfill.Options{Progress: func(string, int, int) {
			panic("caller bug")
		}}

		result, err := newBackfiller(opts).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Synced).To(Equal(1))
	})

	It("is idempotent across runs", func() {
		_, err := store.Insert(ctx, "joys", map[string]any{"joy": "same row"})
		Expect(err).NotTo(HaveOccurred())

		backfiller := newBackfiller(backfill.Options{})
		_, err = backfiller.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		result, err := backfiller.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(result.Synced).To(Equal(1))
		Expect(vectors.Entries).To(HaveLen(1))
	})

	It("syncs nothing from an empty store", func() {
		result, err := newBackfiller(backfill.Options{}).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Synced).To(BeZero())
		Expect(vectors.Entries).To(BeEmpty())
	})
})
