// Package mqtt publishes garden telemetry to an MQTT broker with an
// abstraction for testing. Publishing is optional: the daemon runs fine
// without a broker and treats publish failures as log-and-continue.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/godrip/godrip/pkg/wire"
)

// Topic leaves under <prefix>/<client_id>/.
const (
	LeafReading = "reading"
	LeafEvent   = "event"
)

// Topic builds the full topic for one leaf: <prefix>/<clientID>/<leaf>.
func Topic(prefix, clientID, leaf string) string {
	return prefix + "/" + clientID + "/" + leaf
}

// Publisher publishes telemetry to MQTT.
type Publisher interface {
	// PublishReading sends the latest board report to the broker.
	// Returns error if publishing fails (must not crash the daemon).
	PublishReading(r wire.Reading, at time.Time) error

	// PublishEvent sends a lifecycle or watering event to the broker.
	PublishEvent(event Event) error

	// Close disconnects from the broker.
	Close() error
}

// Event types.
const (
	EventStartup  = "STARTUP"
	EventShutdown = "SHUTDOWN"
	EventWatering = "WATERING"
)

// Event represents a daemon lifecycle or watering event.
type Event struct {
	Timestamp time.Time
	Type      string // e.g. "STARTUP", "SHUTDOWN", "WATERING"
	Trigger   string // watering only: "AUTO" or "MANUAL"
	Reason    string // shutdown only: e.g. "SIGTERM"
}

// ReadingPayload is the MQTT message payload for a board report.
type ReadingPayload struct {
	Garden ReadingInner `json:"garden"`
}

// ReadingInner carries the report fields plus the receive timestamp. The
// embedded reading contributes its wire field names (moisture_raw, temp_c,
// humidity, sensor_ok).
type ReadingInner struct {
	Timestamp string `json:"timestamp"`
	wire.Reading
}

// FormatReadingPayload creates the JSON payload for a board report.
func FormatReadingPayload(r wire.Reading, at time.Time) ([]byte, error) {
	payload := ReadingPayload{
		Garden: ReadingInner{
			Timestamp: at.UTC().Format(time.RFC3339),
			Reading:   r,
		},
	}
	return json.Marshal(payload)
}

// EventPayload is the MQTT message payload for an event.
type EventPayload struct {
	Event EventInner `json:"event"`
}

// EventInner contains the event details.
type EventInner struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Trigger   string `json:"trigger,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// FormatEventPayload creates the JSON payload for an event.
func FormatEventPayload(event Event) ([]byte, error) {
	payload := EventPayload{
		Event: EventInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Type:      event.Type,
			Trigger:   event.Trigger,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
