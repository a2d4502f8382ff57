package device

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/godrip/godrip/pkg/config"
	"github.com/godrip/godrip/pkg/wire"
)

// Mock simulates a board for testing and development without hardware.
//
// The simulated soil dries slowly (raw count climbs toward the dry end of the
// calibration range) and re-wets while a watering pulse runs. Climate values
// wander with deterministic noise; FaultRate injects the occasional climate
// sensor fault.
type Mock struct {
	cfg  config.MockConfig
	soil config.SoilConfig

	// waterFor mirrors the firmware's fixed pulse length.
	waterFor time.Duration

	readings  chan wire.Reading
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	// generatorStarted records that Connect succeeded and generateReadings
	// owns the readings channel; closed makes Close idempotent and final.
	generatorStarted bool
	closed           bool

	// Simulation state
	startTime     time.Time
	moisture      float64 // raw counts
	wateringUntil time.Time
}

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)

// NewMock creates a mocked device. A nil cfg selects the defaults.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       cfg.Mock,
		soil:      cfg.Soil,
		waterFor:  cfg.Watering.Duration,
		readings:  make(chan wire.Reading, DefaultBufferSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Connect simulates connecting to the board.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("device closed")
	}
	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()
	m.moisture = float64(m.cfg.StartMoisture)
	m.generatorStarted = true

	// Start generating readings
	go m.generateReadings()

	return nil
}

// Close stops the mocked device. While the generator goroutine is running the
// readings channel is closed by it on the way out; when Connect was never
// called, Close closes the channel itself. Close is idempotent; the device
// cannot be reconnected afterwards.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	m.cancel()
	m.connected = false

	if !m.generatorStarted {
		close(m.readings)
	}

	return nil
}

// Readings returns the channel of simulated telemetry reports. The channel
// closes once the device is closed.
func (m *Mock) Readings() <-chan wire.Reading {
	return m.readings
}

// Water starts a simulated watering pulse. A pulse requested while one is
// already running queues up behind it, like the firmware's command buffer.
func (m *Mock) Water() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}

	now := time.Now()
	if m.wateringUntil.After(now) {
		m.wateringUntil = m.wateringUntil.Add(m.waterFor)
	} else {
		m.wateringUntil = now.Add(m.waterFor)
	}

	commandsTotal.Inc()
	return nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// generateReadings produces simulated reports at the configured rate. It
// owns the readings channel and closes it on exit.
func (m *Mock) generateReadings() {
	defer close(m.readings)

	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			reading := m.generateReading()
			observeReading(reading)
			select {
			case m.readings <- reading:
			case <-m.ctx.Done():
				return
			default:
				// Channel full, skip
			}
		}
	}
}

// generateReading advances the soil simulation by one sample and renders it
// as a wire reading.
func (m *Mock) generateReading() wire.Reading {
	m.mu.Lock()
	now := time.Now()
	elapsed := now.Sub(m.startTime)
	dt := m.cfg.SampleRate.Seconds()

	if now.Before(m.wateringUntil) {
		// Pump running: soil wets quickly, raw count falls.
		m.moisture -= m.cfg.WetRate * dt
	} else {
		// Evaporation: raw count creeps back up.
		m.moisture += m.cfg.DryRate * dt / 60.0
	}

	if m.moisture < float64(m.soil.WetMin) {
		m.moisture = float64(m.soil.WetMin)
	}
	if m.moisture > float64(m.soil.DryMax) {
		m.moisture = float64(m.soil.DryMax)
	}
	moisture := m.moisture
	m.mu.Unlock()

	t := elapsed.Seconds()
	noise := (math.Sin(t*0.9) + math.Cos(t*1.3)) * m.cfg.NoiseLevel * 0.5

	raw := int(moisture + noise)
	if raw < 0 {
		raw = 0
	} else if raw > wire.MaxMoisture {
		raw = wire.MaxMoisture
	}

	if m.cfg.FaultRate > 0 && rand.Float64() < m.cfg.FaultRate {
		// Climate sensor fault: zeroed pair, moisture still reported.
		return wire.Reading{Moisture: raw}
	}

	// Slow indoor climate wander.
	temperature := 21.0 + 3.0*math.Sin(t/900.0)
	humidity := 52.0 + 8.0*math.Cos(t/1100.0)

	return wire.Reading{
		Moisture:    raw,
		Temperature: float32(temperature),
		Humidity:    float32(humidity),
		Valid:       true,
	}
}
