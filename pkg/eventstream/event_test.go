package eventstream_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals EntryRecordedEvent with expected top-level keys", func() {
		event := eventstream.NewEntryRecordedEvent(
			eventstream.EventSource{Project: "biographer", Session: "sess_1"},
			eventstream.EntryMeta{
				Table:        "joys",
				RowID:        3,
				EntryID:      "joys_3",
				Category:     "joys",
				Title:        "Morning coffee",
				Significance: 6,
				VectorSynced: true,
			},
		)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("entry"))

		entry := got["entry"].(map[string]any)
		Expect(entry["entry_id"]).To(Equal("joys_3"))
		Expect(entry["vector_synced"]).To(Equal(true))
	})

	It("assigns unique event ids", func() {
		a := eventstream.NewEntryRecordedEvent(eventstream.EventSource{}, eventstream.EntryMeta{})
		b := eventstream.NewEntryRecordedEvent(eventstream.EventSource{}, eventstream.EntryMeta{})
		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(a.EventID).To(HavePrefix("evt_"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeEntryRecorded).To(Equal("biographer.entry.recorded"))
	})

	It("provides ErrNilEntryEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilEntryEvent).NotTo(BeNil())
		Expect(eventstream.ErrNilEntryEvent).To(MatchError("nil entry event"))
	})
})
