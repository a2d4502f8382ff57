package mqtt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godrip/godrip/pkg/wire"
)

func TestTopic(t *testing.T) {
	assert.Equal(t, "godrip/garden-1/reading", Topic("godrip", "garden-1", LeafReading))
	assert.Equal(t, "godrip/garden-1/event", Topic("godrip", "garden-1", LeafEvent))
}

func TestFormatReadingPayload(t *testing.T) {
	r := wire.Reading{Moisture: 620, Temperature: 23.4, Humidity: 41.2, Valid: true}
	at := time.Date(2026, 4, 12, 9, 30, 0, 0, time.UTC)

	payload, err := FormatReadingPayload(r, at)
	require.NoError(t, err)

	want := `{"garden":{"timestamp":"2026-04-12T09:30:00Z","moisture_raw":620,"temp_c":23.4,"humidity":41.2,"sensor_ok":true}}`
	assert.JSONEq(t, want, string(payload))
}

func TestFormatReadingPayloadSensorFault(t *testing.T) {
	r := wire.Reading{Moisture: 512}
	at := time.Date(2026, 4, 12, 9, 30, 0, 0, time.UTC)

	payload, err := FormatReadingPayload(r, at)
	require.NoError(t, err)

	want := `{"garden":{"timestamp":"2026-04-12T09:30:00Z","moisture_raw":512,"temp_c":0,"humidity":0,"sensor_ok":false}}`
	assert.JSONEq(t, want, string(payload))
}

func TestFormatReadingPayloadConvertsToUTC(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Vilnius")
	require.NoError(t, err)

	r := wire.Reading{Moisture: 400, Temperature: 20, Humidity: 50, Valid: true}
	at := time.Date(2026, 7, 15, 14, 0, 0, 0, loc) // 14:00 EEST = 11:00 UTC

	payload, err := FormatReadingPayload(r, at)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"timestamp":"2026-07-15T11:00:00Z"`)
}

func TestFormatEventPayload(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name: "watering carries trigger",
			event: Event{
				Timestamp: time.Date(2026, 4, 12, 9, 30, 0, 0, time.UTC),
				Type:      EventWatering,
				Trigger:   "AUTO",
			},
			want: `{"event":{"timestamp":"2026-04-12T09:30:00Z","type":"WATERING","trigger":"AUTO"}}`,
		},
		{
			name: "shutdown carries reason",
			event: Event{
				Timestamp: time.Date(2026, 4, 12, 18, 0, 0, 0, time.UTC),
				Type:      EventShutdown,
				Reason:    "SIGTERM",
			},
			want: `{"event":{"timestamp":"2026-04-12T18:00:00Z","type":"SHUTDOWN","reason":"SIGTERM"}}`,
		},
		{
			name: "startup omits empty fields",
			event: Event{
				Timestamp: time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC),
				Type:      EventStartup,
			},
			want: `{"event":{"timestamp":"2026-04-12T09:00:00Z","type":"STARTUP"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := FormatEventPayload(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(payload))
		})
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	r := wire.Reading{Moisture: 620, Temperature: 23.4, Humidity: 41.2, Valid: true}
	require.NoError(t, f.PublishReading(r, time.Now()))
	require.NoError(t, f.PublishEvent(Event{Timestamp: time.Now(), Type: EventStartup}))
	require.NoError(t, f.PublishEvent(Event{Timestamp: time.Now(), Type: EventWatering, Trigger: "MANUAL"}))

	assert.Equal(t, 1, f.ReadingCount())
	assert.Equal(t, r, f.Readings[0])
	assert.Equal(t, []string{EventStartup, EventWatering}, f.EventTypes())
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	assert.Error(t, f.PublishReading(wire.Reading{}, time.Now()))
	assert.Error(t, f.PublishEvent(Event{Type: EventStartup}))

	assert.Zero(t, f.ReadingCount())
	assert.Empty(t, f.EventTypes())
}

func TestFakePublisherClose(t *testing.T) {
	f := NewFakePublisher()
	require.False(t, f.Closed)

	require.NoError(t, f.Close())
	assert.True(t, f.Closed)
}
