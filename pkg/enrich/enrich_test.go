package enrich_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/enrich"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/extraction"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage/inmemory"
	testutils "github.com/wjcornelius/VECTOR-Biographer/pkg/utils/test"
)

func TestEnrich(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Enrich Suite")
}

var _ = Describe("Enricher", func() {
	var (
		store     *inmemory.Driver
		vectors   *testutils.MockVectorDriver
		embedder  *testutils.MockEmbedder
		publisher *testutils.MockPublisher
		enricher  *enrich.Enricher
		ctx       context.Context
	)

	BeforeEach(func() {
		store = inmemory.NewDriver()
		vectors = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		publisher = testutils.NewMockPublisher()
		enricher = enrich.NewEnricher(enrich.Config{}, store, vectors, embedder, publisher, zap.NewNop())
		ctx = context.Background()
	})

	Describe("ProcessExtractions", func() {
		It("writes the row and its vector entry on the happy path", func() {
			result := enricher.ProcessExtractions(ctx, []extraction.Record{{
				Category:    "joys",
				Title:       "Morning coffee ritual",
				Insight:     "Quiet mornings with coffee feel sacred",
				SubCategory: "daily ritual",
				Evidence:    "mentioned in three sessions",
			}})

			Expect(result.Added).To(Equal(1))
			Expect(result.Errors).To(BeZero())
			Expect(result.SyncFailures).To(BeZero())

			rows, err := store.Rows(ctx, "joys")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0]["joy"]).To(Equal("Morning coffee ritual"))

			Expect(vectors.Entries).To(HaveKey("joys_1"))
			entry := vectors.Entries["joys_1"]
			Expect(entry.Document).To(HavePrefix("joy: Morning coffee ritual"))
			Expect(entry.Metadata["source_table"]).To(Equal("joys"))
			Expect(entry.Metadata["source_id"]).To(Equal("1"))
			Expect(entry.Metadata).To(HaveKey("synced_at"))
		})

		It("skips records without an insight", func() {
			result := enricher.ProcessExtractions(ctx, []extraction.Record{
				{Category: "joys", Title: "empty"},
				{Category: "fears", Insight: "real one"},
			})

			Expect(result.Skipped).To(Equal(1))
			Expect(result.Added).To(Equal(1))
		})

		It("routes unknown categories into self_knowledge", func() {
			result := enricher.ProcessExtractions(ctx, []extraction.Record{{
				Category: "daydreams",
				Insight:  "often imagines living by the sea",
			}})

			Expect(result.Added).To(Equal(1))
			rows, err := store.Rows(ctx, "self_knowledge")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0]["category"]).To(Equal("daydreams"))
		})

		It("counts the record Added when only the vector sync fails", func() {
			vectors.FailUpsert = true

			result := enricher.ProcessExtractions(ctx, []extraction.Record{{
				Category: "fears",
				Title:    "Fear of heights",
				Insight:  "avoids ladders entirely",
			}})

			Expect(result.Added).To(Equal(1))
			Expect(result.SyncFailures).To(Equal(1))
			Expect(result.Errors).To(BeZero())

			rows, err := store.Rows(ctx, "fears")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
		})

		It("does not vector-sync non-embeddable tables", func() {
			result := enricher.ProcessExtractions(ctx, []extraction.Record{{
				Category: "aspirations",
				Title:    "Write a memoir",
				Insight:  "wants to finish the book",
			}})

			Expect(result.Added).To(Equal(1))
			Expect(vectors.Entries).To(BeEmpty())
		})

		It("keeps processing after a failed record", func() {
			result := enricher.ProcessExtractions(ctx, []extraction.Record{
				{Category: "fears", Insight: "first"},
				{Category: "joys", Insight: ""},
				{Category: "wisdom", Insight: "third"},
			})

			Expect(result.Added).To(Equal(2))
			Expect(result.Skipped).To(Equal(1))
		})

		It("publishes an entry event per added record", func() {
			enricher.ProcessExtractions(ctx, []extraction.Record{
				{Category: "joys", Title: "Rain", Insight: "loves the sound of rain"},
				{Category: "fears", Insight: "second"},
			})

			Expect(publisher.Events).To(HaveLen(2))
			Expect(publisher.Events[0].Entry.Table).To(Equal("joys"))
			Expect(publisher.Events[0].Entry.EntryID).To(Equal("joys_1"))
			Expect(publisher.Events[0].Entry.VectorSynced).To(BeTrue())
		})

		It("marks the event unsynced when the vector write fails", func() {
			vectors.FailUpsert = true
			enricher.ProcessExtractions(ctx, []extraction.Record{
				{Category: "joys", Insight: "something"},
			})

			Expect(publisher.Events).To(HaveLen(1))
			Expect(publisher.Events[0].Entry.VectorSynced).To(BeFalse())
		})

		It("ignores publisher failures", func() {
			publisher.Fail = true
			result := enricher.ProcessExtractions(ctx, []extraction.Record{
				{Category: "joys", Insight: "still lands"},
			})

			Expect(result.Added).To(Equal(1))
		})

		It("counts embedding failures as sync failures, not errors", func() {
			embedder.FailOn = "fear: Heights\nbehavioral_response: avoids ladders"

			result := enricher.ProcessExtractions(ctx, []extraction.Record{{
				Category: "fears",
				Title:    "Heights",
				Insight:  "avoids ladders",
			}})

			Expect(result.Added).To(Equal(1))
			Expect(result.SyncFailures).To(Equal(1))
		})
	})

	Describe("ProcessConnections", func() {
		It("persists valid connections with the source pass", func() {
			result := enricher.ProcessConnections(ctx, []extraction.Connection{{
				Entry1Table:    "fears",
				Entry1Title:    "Fear of heights",
				Entry2Table:    "life_events",
				Entry2Title:    "The fall from the barn roof",
				ConnectionType: "caused_by",
				Description:    "the fear traces back to the fall",
			}}, "extraction")

			Expect(result.Added).To(Equal(1))

			rows, err := store.Rows(ctx, "entry_connections")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0]["source_pass"]).To(Equal("extraction"))
			Expect(rows[0]["connection_type"]).To(Equal("caused_by"))
		})

		It("skips connections missing an endpoint title", func() {
			result := enricher.ProcessConnections(ctx, []extraction.Connection{
				{Entry1Title: "only one side"},
			}, "extraction")

			Expect(result.Skipped).To(Equal(1))
			Expect(result.Added).To(BeZero())
		})
	})

	Describe("ProcessBatch", func() {
		It("processes records before connections", func() {
			records, connections := enricher.ProcessBatch(ctx, &extraction.Batch{
				Extractions: []extraction.Record{
					{Category: "joys", Insight: "morning light"},
				},
				Connections: []extraction.Connection{
					{Entry1Title: "a", Entry2Title: "b"},
				},
			})

			Expect(records.Added).To(Equal(1))
			Expect(connections.Added).To(Equal(1))
		})
	})
})
