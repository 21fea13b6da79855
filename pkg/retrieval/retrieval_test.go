package retrieval_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/retrieval"
	testutils "github.com/wjcornelius/VECTOR-Biographer/pkg/utils/test"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
)

func TestRetrieval(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Retrieval Suite")
}

var _ = Describe("Searcher", func() {
	var (
		embedder *testutils.MockEmbedder
		vectors  *testutils.MockVectorDriver
		searcher *retrieval.Searcher
		ctx      context.Context
	)

	result := func(id, table string, score float32) vector.QueryResult {
		return vector.QueryResult{
			Entry: vector.Entry{
				ID:       id,
				Document: "doc for " + id,
				Metadata: map[string]string{"source_table": table},
			},
			Score: score,
		}
	}

	BeforeEach(func() {
		embedder = testutils.NewMockEmbedder()
		vectors = testutils.NewMockVectorDriver()
		searcher = retrieval.NewSearcher(embedder, vectors, zap.NewNop())
		ctx = context.Background()
	})

	It("returns empty results when the index has no matches", func() {
		output := searcher.Search(ctx, "anything", 5, nil)
		Expect(output.Query).To(Equal("anything"))
		Expect(output.Count).To(BeZero())
		Expect(output.Results).To(BeEmpty())
	})

	It("embeds the query on the query side of the protocol", func() {
		searcher.Search(ctx, "what does he fear", 5, nil)
		Expect(embedder.QueryCalls).To(ConsistOf("what does he fear"))
		Expect(embedder.DocumentCalls).To(BeEmpty())
	})

	It("hydrates table and row id from the entry id", func() {
		vectors.Results = []vector.QueryResult{
			result("self_knowledge_12", "self_knowledge", 0.9),
		}

		output := searcher.Search(ctx, "q", 5, nil)
		Expect(output.Results).To(HaveLen(1))
		Expect(output.Results[0].Table).To(Equal("self_knowledge"))
		Expect(output.Results[0].RowID).To(Equal(int64(12)))
		Expect(output.Results[0].Document).To(Equal("doc for self_knowledge_12"))
	})

	It("orders results best score first", func() {
		vectors.Results = []vector.QueryResult{
			result("fears_1", "fears", 0.4),
			result("joys_1", "joys", 0.9),
			result("wisdom_1", "wisdom", 0.7),
		}

		output := searcher.Search(ctx, "q", 5, nil)
		Expect(output.Count).To(Equal(3))
		Expect(output.Results[0].ID).To(Equal("joys_1"))
		Expect(output.Results[1].ID).To(Equal("wisdom_1"))
		Expect(output.Results[2].ID).To(Equal("fears_1"))
	})

	It("passes the table filter through to the vector driver", func() {
		vectors.Results = []vector.QueryResult{
			result("fears_1", "fears", 0.9),
			result("joys_1", "joys", 0.8),
		}

		output := searcher.Search(ctx, "q", 5, []string{"joys"})
		Expect(output.Count).To(Equal(1))
		Expect(output.Results[0].Table).To(Equal("joys"))
	})

	It("degrades to empty results when embedding fails", func() {
		embedder.FailOn = "broken query"
		vectors.Results = []vector.QueryResult{result("fears_1", "fears", 0.9)}

		output := searcher.Search(ctx, "broken query", 5, nil)
		Expect(output.Count).To(BeZero())
		Expect(output.Results).To(BeEmpty())
	})

	It("degrades to empty results when the vector store fails", func() {
		vectors.FailQuery = true

		output := searcher.Search(ctx, "q", 5, nil)
		Expect(output.Count).To(BeZero())
		Expect(output.Results).To(BeEmpty())
	})

	It("applies the default topK", func() {
		for i := 0; i < 30; i++ {
			vectors.Results = append(vectors.Results, result("joys_1", "joys", 0.5))
		}

		output := searcher.Search(ctx, "q", 0, nil)
		Expect(output.Count).To(Equal(retrieval.DefaultTopK))
	})
})
