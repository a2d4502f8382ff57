package mqtt

import (
	"sync"
	"time"

	"github.com/godrip/godrip/pkg/wire"
)

// FakePublisher records published telemetry for test assertions. Safe for
// concurrent use: the daemon publishes readings and events from different
// goroutines.
type FakePublisher struct {
	mu sync.Mutex

	// Readings contains all board reports that were published.
	Readings []wire.Reading

	// Events contains all events that were published.
	Events []Event

	// PublishError, if set, is returned by both publish methods.
	PublishError error

	// Closed tracks whether Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishReading records the board report.
func (f *FakePublisher) PublishReading(r wire.Reading, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}
	f.Readings = append(f.Readings, r)
	return nil
}

// PublishEvent records the event.
func (f *FakePublisher) PublishEvent(event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}
	f.Events = append(f.Events, event)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// ReadingCount returns how many reports were published.
func (f *FakePublisher) ReadingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Readings)
}

// EventTypes returns the types of the published events, in order.
func (f *FakePublisher) EventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	types := make([]string, len(f.Events))
	for i, e := range f.Events {
		types[i] = e.Type
	}
	return types
}

var _ Publisher = (*RealPublisher)(nil)
var _ Publisher = (*FakePublisher)(nil)
