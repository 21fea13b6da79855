package mcp_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/api/mcp"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/enrich"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/retrieval"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage/inmemory"
	testutils "github.com/wjcornelius/VECTOR-Biographer/pkg/utils/test"
)

func TestMCP(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "MCP Suite")
}

var _ = Describe("MCP Server", func() {
	var (
		searcher *retrieval.Searcher
		enricher *enrich.Enricher
	)

	BeforeEach(func() {
		logger := zap.NewNop()
		vectors := testutils.NewMockVectorDriver()
		embedder := testutils.NewMockEmbedder()

		searcher = retrieval.NewSearcher(embedder, vectors, logger)
		enricher = enrich.NewEnricher(
			enrich.Config{},
			inmemory.NewDriver(),
			vectors,
			embedder,
			testutils.NewMockPublisher(),
			logger,
		)
	})

	Describe("NewServer", func() {
		It("creates a server with both memory tools", func() {
			server, err := mcp.NewServer(mcp.Config{
				Searcher: searcher,
				Enricher: enricher,
				Logger:   zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})

		It("returns an error when the searcher is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Enricher: enricher,
				Logger:   zap.NewNop(),
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("searcher is required"))
		})

		It("returns an error when the enricher is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Searcher: searcher,
				Logger:   zap.NewNop(),
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("enricher is required"))
		})

		It("returns an error when the logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Searcher: searcher,
				Enricher: enricher,
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("builds an empty server in noop mode", func() {
			server, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(server).NotTo(BeNil())
			Expect(server.Handler()).To(BeNil())
		})
	})
})
