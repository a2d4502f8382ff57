// Package state holds the daemon's live view of the garden behind a lock:
// the latest board reading, link and weather status, and the watering
// history. HTTP handlers and background tasks read consistent point-in-time
// snapshots instead of sharing mutable fields.
package state

import (
	"sync"
	"time"

	"github.com/godrip/godrip/pkg/config"
	"github.com/godrip/godrip/pkg/wire"
)

// Trigger identifies what started a watering pulse.
type Trigger string

const (
	TriggerAuto   Trigger = "AUTO"
	TriggerManual Trigger = "MANUAL"
)

// Weather is the slice of a weather lookup the watering policy acts on.
type Weather struct {
	Description string
	Raining     bool
	FetchedAt   time.Time
}

// Snapshot is a point-in-time view of the system. It is a value type, safe
// to keep using after the tracker's lock is released.
type Snapshot struct {
	Reading    wire.Reading // latest board report
	ReceivedAt time.Time    // zero until the first report arrives

	Connected bool // serial link to the board is up

	Weather Weather

	AutoEnabled   bool
	LastWater     time.Time
	LastTrigger   Trigger
	WateringUntil time.Time // pump (plus settle margin) is busy until this instant

	StartTime time.Time
	Now       time.Time

	Soil config.SoilConfig
}

// HasReading reports whether at least one board report has arrived.
func (s Snapshot) HasReading() bool {
	return !s.ReceivedAt.IsZero()
}

// SensorFault reports whether the latest reading carries the climate sensor
// fault marker (zeroed temperature/humidity pair).
func (s Snapshot) SensorFault() bool {
	return s.HasReading() && !s.Reading.Valid
}

// Watering reports whether a watering pulse plus its settle margin is still
// running.
func (s Snapshot) Watering() bool {
	return s.Now.Before(s.WateringUntil)
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// MoisturePercent maps the raw probe count onto 0–100%, clamped to the
// calibration range. Raw counts rise as the soil dries, so the percentage
// runs the other way: dry_max reads 0%, wet_min reads 100%.
func (s Snapshot) MoisturePercent() int {
	span := s.Soil.DryMax - s.Soil.WetMin
	if span <= 0 {
		return 0
	}

	raw := s.Reading.Moisture
	if raw < s.Soil.WetMin {
		raw = s.Soil.WetMin
	}
	if raw > s.Soil.DryMax {
		raw = s.Soil.DryMax
	}

	pct := 100 - (raw-s.Soil.WetMin)*100/span
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// TemperatureF converts the latest temperature to Fahrenheit for display.
func (s Snapshot) TemperatureF() float32 {
	return s.Reading.Temperature*9/5 + 32
}

// Tracker holds the mutable system state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a tracker for a daemon started at the given time.
func NewTracker(start time.Time, cfg *config.Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:   start,
			AutoEnabled: cfg.Watering.AutoEnabled,
			Weather:     Weather{Description: "Fetching..."},
			Soil:        cfg.Soil,
		},
	}
}

// ApplyReading stores a new board report.
func (t *Tracker) ApplyReading(r wire.Reading, at time.Time) {
	t.mu.Lock()
	t.snap.Reading = r
	t.snap.ReceivedAt = at
	t.mu.Unlock()
}

// SetConnected records the serial link status.
func (t *Tracker) SetConnected(connected bool) {
	t.mu.Lock()
	t.snap.Connected = connected
	t.mu.Unlock()
}

// SetWeather stores the latest weather lookup result.
func (t *Tracker) SetWeather(w Weather) {
	t.mu.Lock()
	t.snap.Weather = w
	t.mu.Unlock()
}

// RecordWatering notes a watering pulse sent at the given time. The pump is
// treated as busy until at+cooldown; watering guards use that window to
// refuse overlapping requests.
func (t *Tracker) RecordWatering(at time.Time, trigger Trigger, cooldown time.Duration) {
	t.mu.Lock()
	t.snap.LastWater = at
	t.snap.LastTrigger = trigger
	t.snap.WateringUntil = at.Add(cooldown)
	t.mu.Unlock()
}

// SetAutoEnabled turns the automatic watering policy on or off.
func (t *Tracker) SetAutoEnabled(enabled bool) {
	t.mu.Lock()
	t.snap.AutoEnabled = enabled
	t.mu.Unlock()
}

// ToggleAuto flips the automatic watering switch and returns the new value.
func (t *Tracker) ToggleAuto() bool {
	t.mu.Lock()
	t.snap.AutoEnabled = !t.snap.AutoEnabled
	enabled := t.snap.AutoEnabled
	t.mu.Unlock()
	return enabled
}

// Snapshot returns a point-in-time copy of the system state. The Now field
// is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
