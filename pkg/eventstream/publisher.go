package eventstream

import "context"

// Publisher publishes entry events to an event stream backend.
type Publisher interface {
	PublishEntry(ctx context.Context, event *EntryRecordedEvent) error
	Close() error
}
