package policy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godrip/godrip/pkg/config"
	"github.com/godrip/godrip/pkg/state"
	"github.com/godrip/godrip/pkg/wire"
)

type fakeWaterer struct {
	mu        sync.Mutex
	connected bool
	err       error
	calls     int
}

func (f *fakeWaterer) Water() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeWaterer) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeWaterer) setConnected(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
}

func (f *fakeWaterer) waterCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestRig(mutate func(*config.Config)) (*Engine, *state.Tracker, *fakeWaterer) {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	tracker := state.NewTracker(time.Now(), cfg)
	waterer := &fakeWaterer{connected: true}
	return New(waterer, tracker, cfg), tracker, waterer
}

func drySoil() wire.Reading {
	return wire.Reading{Moisture: 620, Temperature: 23.4, Humidity: 41.2, Valid: true}
}

func TestEngine_Tick(t *testing.T) {
	tests := []struct {
		name  string
		setup func(tr *state.Tracker, w *fakeWaterer)
		want  Decision
		calls int
	}{
		{
			name:  "waters dry soil",
			setup: func(tr *state.Tracker, _ *fakeWaterer) { tr.ApplyReading(drySoil(), time.Now()) },
			want:  DecisionWatered,
			calls: 1,
		},
		{
			name: "auto disabled",
			setup: func(tr *state.Tracker, _ *fakeWaterer) {
				tr.ApplyReading(drySoil(), time.Now())
				tr.SetAutoEnabled(false)
			},
			want: DecisionAutoDisabled,
		},
		{
			name: "board not connected",
			setup: func(tr *state.Tracker, w *fakeWaterer) {
				tr.ApplyReading(drySoil(), time.Now())
				w.setConnected(false)
			},
			want: DecisionNotConnected,
		},
		{
			name: "cooldown after a pulse",
			setup: func(tr *state.Tracker, _ *fakeWaterer) {
				tr.ApplyReading(drySoil(), time.Now())
				tr.RecordWatering(time.Now(), state.TriggerManual, time.Minute)
			},
			want: DecisionCooldown,
		},
		{
			name:  "no reading yet",
			setup: func(*state.Tracker, *fakeWaterer) {},
			want:  DecisionNoReading,
		},
		{
			name: "soil wet at threshold",
			setup: func(tr *state.Tracker, _ *fakeWaterer) {
				tr.ApplyReading(wire.Reading{Moisture: 500, Temperature: 23.4, Humidity: 41.2, Valid: true}, time.Now())
			},
			want: DecisionSoilWet,
		},
		{
			name: "rain expected",
			setup: func(tr *state.Tracker, _ *fakeWaterer) {
				tr.ApplyReading(drySoil(), time.Now())
				tr.SetWeather(state.Weather{Description: "Light rain", Raining: true, FetchedAt: time.Now()})
			},
			want: DecisionRainDelay,
		},
		{
			name: "command send failure",
			setup: func(tr *state.Tracker, w *fakeWaterer) {
				tr.ApplyReading(drySoil(), time.Now())
				w.err = errors.New("port gone")
			},
			want:  DecisionSendFailed,
			calls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, tracker, waterer := newTestRig(nil)
			tt.setup(tracker, waterer)

			assert.Equal(t, tt.want, engine.Tick())
			assert.Equal(t, tt.calls, waterer.waterCalls())
		})
	}
}

func TestEngine_TickRecordsWatering(t *testing.T) {
	engine, tracker, _ := newTestRig(nil)
	tracker.ApplyReading(drySoil(), time.Now())

	require.Equal(t, DecisionWatered, engine.Tick())

	snap := tracker.Snapshot()
	assert.Equal(t, state.TriggerAuto, snap.LastTrigger)
	assert.True(t, snap.Watering())
	// Cooldown is the pulse length plus a one second settle margin.
	assert.Equal(t, 4*time.Second, snap.WateringUntil.Sub(snap.LastWater))
}

func TestEngine_WaterGuards(t *testing.T) {
	t.Run("refuses while disconnected", func(t *testing.T) {
		engine, _, waterer := newTestRig(nil)
		waterer.setConnected(false)

		err := engine.Water(state.TriggerManual)
		assert.ErrorIs(t, err, ErrNotConnected)
		assert.Zero(t, waterer.waterCalls())
	})

	t.Run("refuses overlapping pulses", func(t *testing.T) {
		engine, tracker, waterer := newTestRig(nil)

		require.NoError(t, engine.Water(state.TriggerManual))
		assert.Equal(t, state.TriggerManual, tracker.Snapshot().LastTrigger)

		err := engine.Water(state.TriggerManual)
		assert.ErrorIs(t, err, ErrWateringInProgress)
		assert.Equal(t, 1, waterer.waterCalls())
	})

	t.Run("wraps device errors", func(t *testing.T) {
		engine, _, waterer := newTestRig(nil)
		waterer.err = errors.New("port gone")

		err := engine.Water(state.TriggerManual)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotConnected)
		assert.NotErrorIs(t, err, ErrWateringInProgress)
		// A failed send must not start a cooldown window.
		assert.NoError(t, func() error {
			waterer.err = nil
			return engine.Water(state.TriggerManual)
		}())
	})
}

func TestEngine_OnWaterCallback(t *testing.T) {
	engine, _, _ := newTestRig(nil)

	var got []state.Trigger
	engine.OnWater = func(trigger state.Trigger) { got = append(got, trigger) }

	require.NoError(t, engine.Water(state.TriggerManual))
	assert.Equal(t, []state.Trigger{state.TriggerManual}, got)
}

func TestEngine_RunWatersDrySoil(t *testing.T) {
	engine, tracker, waterer := newTestRig(func(cfg *config.Config) {
		cfg.Watering.SettleDelay = time.Millisecond
		cfg.Watering.CheckInterval = time.Millisecond
	})
	tracker.ApplyReading(drySoil(), time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.Run(ctx)
	}()

	require.Eventually(t, func() bool { return waterer.waterCalls() >= 1 },
		2*time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("policy loop did not stop on cancel")
	}
}

func TestEngine_RunFirstCheckFollowsSettleDelay(t *testing.T) {
	// With an hour-long check interval, only the check that runs directly
	// after the settle delay can water within the test window.
	engine, tracker, waterer := newTestRig(func(cfg *config.Config) {
		cfg.Watering.SettleDelay = 300 * time.Millisecond
		cfg.Watering.CheckInterval = time.Hour
	})
	tracker.ApplyReading(drySoil(), time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.Run(ctx)
	}()

	assert.Never(t, func() bool { return waterer.waterCalls() > 0 },
		100*time.Millisecond, 10*time.Millisecond)
	require.Eventually(t, func() bool { return waterer.waterCalls() == 1 },
		2*time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("policy loop did not stop on cancel")
	}
}

func TestDecision_String(t *testing.T) {
	// These strings end up as metric labels, so they are part of the
	// observable surface.
	assert.Equal(t, "watered", DecisionWatered.String())
	assert.Equal(t, "rain_delay", DecisionRainDelay.String())
	assert.Equal(t, "unknown", Decision(99).String())
}
