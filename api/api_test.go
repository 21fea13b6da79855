package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/enrich"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/retrieval"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage/inmemory"
	testutils "github.com/wjcornelius/VECTOR-Biographer/pkg/utils/test"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/worker"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("Server", func() {
	var (
		server   *Server
		store    *inmemory.Driver
		vectors  *testutils.MockVectorDriver
		embedder *testutils.MockEmbedder
		pool     *worker.Pool
	)

	BeforeEach(func() {
		logger := zap.NewNop()
		store = inmemory.NewDriver()
		vectors = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()

		enricher := enrich.NewEnricher(
			enrich.Config{},
			store,
			vectors,
			embedder,
			testutils.NewMockPublisher(),
			logger,
		)
		pool = worker.NewPool(context.Background(), enricher, logger, worker.Options{})
		searcher := retrieval.NewSearcher(embedder, vectors, logger)

		server = NewServer(
			Config{ListenAddr: ":0"},
			store,
			vectors,
			searcher,
			pool,
			nil,
			logger,
		)
	})

	AfterEach(func() {
		pool.Close()
	})

	Describe("GET /ping", func() {
		It("responds pong", func() {
			resp, err := server.app.Test(httptest.NewRequest("GET", "/ping", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))
		})
	})

	Describe("GET /api/v1/status", func() {
		It("reports table and vector counts", func() {
			_, err := store.Insert(context.Background(), "joys", map[string]any{"joy": "rain"})
			Expect(err).NotTo(HaveOccurred())
			vectors.Entries["joys_1"] = vector.Entry{ID: "joys_1"}

			resp, err := server.app.Test(httptest.NewRequest("GET", "/api/v1/status", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))

			var status StatusResponse
			Expect(json.NewDecoder(resp.Body).Decode(&status)).To(Succeed())
			Expect(status.Tables).To(HaveKeyWithValue("joys", 1))
			Expect(status.TotalEntries).To(Equal(1))
			Expect(status.VectorEntries).To(Equal(1))
		})
	})

	Describe("POST /api/v1/search", func() {
		It("returns search results", func() {
			vectors.Results = []vector.QueryResult{{
				Entry: vector.Entry{
					ID:       "joys_1",
					Document: "joy: rain",
					Metadata: map[string]string{"source_table": "joys"},
				},
				Score: 0.9,
			}}

			req := httptest.NewRequest("POST", "/api/v1/search",
				bytes.NewBufferString(`{"query": "what brings joy"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))

			var output retrieval.SearchOutput
			Expect(json.NewDecoder(resp.Body).Decode(&output)).To(Succeed())
			Expect(output.Count).To(Equal(1))
			Expect(output.Results[0].Table).To(Equal("joys"))
		})

		It("rejects an empty query", func() {
			req := httptest.NewRequest("POST", "/api/v1/search",
				bytes.NewBufferString(`{}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(400))
		})
	})

	Describe("POST /api/v1/extractions", func() {
		It("queues a batch and responds 202", func() {
			body := `{"extractions": [{"category": "joys", "insight": "morning light"}]}`
			req := httptest.NewRequest("POST", "/api/v1/extractions",
				bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(202))

			// Drain the worker so the write lands before asserting.
			Expect(pool.Close()).To(Succeed())
			count, err := store.Count(context.Background(), "joys")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("rejects an empty batch", func() {
			req := httptest.NewRequest("POST", "/api/v1/extractions",
				bytes.NewBufferString(`{}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(400))
		})
	})

	Describe("GET /api/v1/clusters", func() {
		It("returns clusters over the index", func() {
			vectors.Entries["joys_1"] = vector.Entry{
				ID:        "joys_1",
				Embedding: []float32{1, 0},
				Document:  "rain",
				Metadata:  map[string]string{"source_table": "joys"},
			}

			resp, err := server.app.Test(httptest.NewRequest("GET", "/api/v1/clusters?n=1", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(200))

			var body struct {
				Count int `json:"count"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body.Count).To(Equal(1))
		})

		It("rejects a non-numeric n", func() {
			resp, err := server.app.Test(httptest.NewRequest("GET", "/api/v1/clusters?n=lots", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(400))
		})
	})
})
