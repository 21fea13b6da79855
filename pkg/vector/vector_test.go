package vector_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
)

func TestVector(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Vector Suite")
}

var _ = Describe("EntryID", func() {
	It("joins table and row id with an underscore", func() {
		Expect(vector.EntryID("self_knowledge", 12)).To(Equal("self_knowledge_12"))
	})

	It("round-trips through ParseEntryID", func() {
		table, id, ok := vector.ParseEntryID(vector.EntryID("entry_connections", 7))
		Expect(ok).To(BeTrue())
		Expect(table).To(Equal("entry_connections"))
		Expect(id).To(Equal(int64(7)))
	})

	It("rejects ids without a numeric suffix", func() {
		_, _, ok := vector.ParseEntryID("fears_abc")
		Expect(ok).To(BeFalse())

		_, _, ok = vector.ParseEntryID("fears_")
		Expect(ok).To(BeFalse())

		_, _, ok = vector.ParseEntryID("12")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ScoreFromDistance", func() {
	It("maps identical vectors to 1", func() {
		Expect(vector.ScoreFromDistance(0)).To(Equal(float32(1)))
	})

	It("maps opposite vectors to 0", func() {
		Expect(vector.ScoreFromDistance(2)).To(Equal(float32(0)))
	})

	It("clamps float jitter outside the cosine range", func() {
		Expect(vector.ScoreFromDistance(-0.001)).To(Equal(float32(1)))
		Expect(vector.ScoreFromDistance(2.001)).To(Equal(float32(0)))
	})

	It("maps orthogonal vectors to one half", func() {
		Expect(vector.ScoreFromDistance(1)).To(BeNumerically("~", 0.5, 1e-6))
	})
})
