package worker_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/enrich"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/extraction"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage/inmemory"
	testutils "github.com/wjcornelius/VECTOR-Biographer/pkg/utils/test"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/worker"
)

func TestWorker(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Worker Suite")
}

var _ = Describe("Pool", func() {
	var (
		store    *inmemory.Driver
		enricher *enrich.Enricher
		ctx      context.Context
	)

	BeforeEach(func() {
		store = inmemory.NewDriver()
		enricher = enrich.NewEnricher(
			enrich.Config{},
			store,
			testutils.NewMockVectorDriver(),
			testutils.NewMockEmbedder(),
			testutils.NewMockPublisher(),
			zap.NewNop(),
		)
		ctx = context.Background()
	})

	It("processes an enqueued job", func() {
		pool := worker.NewPool(ctx, enricher, zap.NewNop(), worker.Options{})

		err := pool.Enqueue(worker.Job{
			Extractions: []extraction.Record{
				{Category: "joys", Insight: "morning light"},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(pool.Close()).To(Succeed())

		rows, err := store.Rows(ctx, "joys")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
	})

	It("drains queued jobs on close", func() {
		pool := worker.NewPool(ctx, enricher, zap.NewNop(), worker.Options{QueueSize: 10})

		for i := 0; i < 5; i++ {
			err := pool.Enqueue(worker.Job{
				Extractions: []extraction.Record{
					{Category: "fears", Insight: "fear"},
				},
			})
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(pool.Close()).To(Succeed())

		count, err := store.Count(ctx, "fears")
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(5))
	})

	It("rejects jobs after close", func() {
		pool := worker.NewPool(ctx, enricher, zap.NewNop(), worker.Options{})
		Expect(pool.Close()).To(Succeed())

		err := pool.Enqueue(worker.Job{})
		Expect(err).To(MatchError(worker.ErrClosed))
	})

	It("is safe to close twice", func() {
		pool := worker.NewPool(ctx, enricher, zap.NewNop(), worker.Options{})
		Expect(pool.Close()).To(Succeed())
		Expect(pool.Close()).To(Succeed())
	})

	It("rejects jobs when the queue is full", func() {
		// A zero-throughput enricher isn't available, so block the single
		// worker with a slow embedding call and fill the queue behind it.
		slow := testutils.NewMockEmbedder()
		slow.Delay = 200 * time.Millisecond
		blocked := enrich.NewEnricher(
			enrich.Config{},
			store,
			testutils.NewMockVectorDriver(),
			slow,
			testutils.NewMockPublisher(),
			zap.NewNop(),
		)
		pool := worker.NewPool(ctx, blocked, zap.NewNop(), worker.Options{QueueSize: 1})
		defer pool.Close()

		job := worker.Job{Extractions: []extraction.Record{
			{Category: "joys", Insight: "fills the worker"},
		}}

		// First job occupies the worker, second fills the queue; one of the
		// next submissions must be rejected.
		var sawFull bool
		for i := 0; i < 10; i++ {
			if err := pool.Enqueue(job); err != nil {
				Expect(err).To(MatchError(worker.ErrQueueFull))
				sawFull = true
				break
			}
		}
		Expect(sawFull).To(BeTrue())
	})
})
