// Package policy decides when the pump runs. It owns the automatic watering
// loop (dry soil, no rain expected, auto mode on) and the single shared
// watering path both the loop and the manual dashboard button go through, so
// the connection and cooldown guards hold no matter who asks.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/godrip/godrip/pkg/config"
	"github.com/godrip/godrip/pkg/state"
)

// Waterer sends watering commands to the board. *device.Serial and
// *device.Mock satisfy it, as does the daemon's reconnect hub.
type Waterer interface {
	Water() error
	IsConnected() bool
}

var (
	// ErrNotConnected means no board is attached to receive the command.
	ErrNotConnected = errors.New("board not connected")

	// ErrWateringInProgress means a previous pulse (plus its settle margin)
	// has not finished yet.
	ErrWateringInProgress = errors.New("watering already in progress")
)

// Decision is the outcome of one automatic watering check.
type Decision int

const (
	DecisionWatered Decision = iota
	DecisionAutoDisabled
	DecisionNotConnected
	DecisionCooldown
	DecisionNoReading
	DecisionSoilWet
	DecisionRainDelay
	DecisionSendFailed
)

func (d Decision) String() string {
	switch d {
	case DecisionWatered:
		return "watered"
	case DecisionAutoDisabled:
		return "auto_disabled"
	case DecisionNotConnected:
		return "not_connected"
	case DecisionCooldown:
		return "cooldown"
	case DecisionNoReading:
		return "no_reading"
	case DecisionSoilWet:
		return "soil_wet"
	case DecisionRainDelay:
		return "rain_delay"
	case DecisionSendFailed:
		return "send_failed"
	default:
		return "unknown"
	}
}

// Engine runs the watering policy against the live state.
type Engine struct {
	waterer Waterer
	tracker *state.Tracker

	threshold     int // raw counts above this mean the soil needs water
	duration      time.Duration
	checkInterval time.Duration
	settleDelay   time.Duration

	// OnWater, when set, is called after every successful pulse. The daemon
	// hangs telemetry publishing off it.
	OnWater func(state.Trigger)

	// mu serializes watering attempts so two callers cannot both pass the
	// cooldown check.
	mu sync.Mutex
}

// New builds a policy engine from the watering and soil configuration.
func New(waterer Waterer, tracker *state.Tracker, cfg *config.Config) *Engine {
	return &Engine{
		waterer:       waterer,
		tracker:       tracker,
		threshold:     cfg.Soil.DryThreshold,
		duration:      cfg.Watering.Duration,
		checkInterval: cfg.Watering.CheckInterval,
		settleDelay:   cfg.Watering.SettleDelay,
	}
}

// cooldown is how long after a pulse the pump is considered busy: the pulse
// itself plus a second for the soil reading to react.
func (e *Engine) cooldown() time.Duration {
	return e.duration + time.Second
}

// Water sends one watering pulse. It refuses when no board is connected or
// when the previous pulse is still inside its cooldown window. Both the
// automatic loop and the manual dashboard button come through here.
func (e *Engine) Water(trigger state.Trigger) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.waterer.IsConnected() {
		return ErrNotConnected
	}
	if e.tracker.Snapshot().Watering() {
		return ErrWateringInProgress
	}

	if err := e.waterer.Water(); err != nil {
		return fmt.Errorf("failed to send water command: %w", err)
	}

	e.tracker.RecordWatering(time.Now(), trigger, e.cooldown())
	wateringsTotal.WithLabelValues(string(trigger)).Inc()
	log.Printf("Watering started (%s), pump on for %s", trigger, e.duration)

	if e.OnWater != nil {
		e.OnWater(trigger)
	}
	return nil
}

// Tick runs one automatic watering check and reports what it decided.
func (e *Engine) Tick() Decision {
	d := e.check()
	checksTotal.WithLabelValues(d.String()).Inc()
	return d
}

func (e *Engine) check() Decision {
	snap := e.tracker.Snapshot()

	switch {
	case !snap.AutoEnabled:
		return DecisionAutoDisabled
	case !e.waterer.IsConnected():
		return DecisionNotConnected
	case snap.Watering():
		return DecisionCooldown
	case !snap.HasReading():
		return DecisionNoReading
	case snap.Reading.Moisture <= e.threshold:
		return DecisionSoilWet
	case snap.Weather.Raining:
		log.Printf("Soil is dry (%d) but rain is expected (%s), skipping watering",
			snap.Reading.Moisture, snap.Weather.Description)
		return DecisionRainDelay
	}

	log.Printf("Soil is dry (%d > %d), watering", snap.Reading.Moisture, e.threshold)
	if err := e.Water(state.TriggerAuto); err != nil {
		log.Printf("Automatic watering failed: %v", err)
		return DecisionSendFailed
	}
	return DecisionWatered
}

// Run executes the automatic watering loop until ctx is cancelled. It waits
// out the settle delay so the board has a chance to connect and report, runs
// the first check right away, then checks on the configured interval.
func (e *Engine) Run(ctx context.Context) {
	log.Printf("Auto-watering policy starting in %s (check every %s)", e.settleDelay, e.checkInterval)

	select {
	case <-ctx.Done():
		return
	case <-time.After(e.settleDelay):
	}

	e.Tick()

	ticker := time.NewTicker(e.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}
