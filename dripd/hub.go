package main

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/godrip/godrip/pkg/config"
	"github.com/godrip/godrip/pkg/device"
	"github.com/godrip/godrip/pkg/mqtt"
	"github.com/godrip/godrip/pkg/policy"
	"github.com/godrip/godrip/pkg/state"
)

// hub owns the live device and swaps it out across reconnects. The policy
// engine and the web server hold the hub, not the device, so their handle
// stays valid when the serial link drops and comes back.
type hub struct {
	cfg     *config.Config
	useMock bool

	mu  sync.RWMutex
	dev device.Device
}

func newHub(cfg *config.Config, useMock bool) *hub {
	return &hub{cfg: cfg, useMock: useMock}
}

func (h *hub) current() device.Device {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dev
}

func (h *hub) set(dev device.Device) {
	h.mu.Lock()
	h.dev = dev
	h.mu.Unlock()
}

// Water implements policy.Waterer against the current device.
func (h *hub) Water() error {
	dev := h.current()
	if dev == nil {
		return policy.ErrNotConnected
	}
	return dev.Water()
}

// IsConnected implements policy.Waterer.
func (h *hub) IsConnected() bool {
	dev := h.current()
	return dev != nil && dev.IsConnected()
}

// connect builds and connects one device, discovering the port when none is
// configured. Devices are single-use: after a link loss the hub builds a
// fresh one.
func (h *hub) connect() (device.Device, error) {
	if h.useMock {
		dev := device.NewMock(h.cfg)
		if err := dev.Connect(); err != nil {
			return nil, err
		}
		log.Printf("Using mocked device")
		return dev, nil
	}

	port := h.cfg.Serial.Port
	if port == "" {
		found, err := device.Find()
		if err != nil {
			return nil, err
		}
		port = found
	}

	dev := device.New(port, h.cfg.Serial.BaudRate, device.DefaultBufferSize)
	if err := dev.Connect(); err != nil {
		return nil, err
	}
	log.Printf("Serial connection established on %s", port)
	return dev, nil
}

// Run keeps a device connected until ctx is cancelled, pumping its reports
// into the tracker and, when configured, to MQTT. Failed connections are
// retried with exponential backoff; a healthy connection resets the ladder.
func (h *hub) Run(ctx context.Context, tracker *state.Tracker, publisher mqtt.Publisher) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	for {
		dev, err := h.connect()
		if err != nil {
			wait := bo.NextBackOff()
			log.Printf("Device unavailable: %v (retrying in %s)", err, wait.Round(time.Millisecond))
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()

		h.set(dev)
		tracker.SetConnected(true)

		h.pump(ctx, dev, tracker, publisher)

		h.set(nil)
		tracker.SetConnected(false)
		dev.Close()

		if ctx.Err() != nil {
			return
		}
		log.Printf("Device link lost, reconnecting")
	}
}

// pump drains readings until the device channel closes (link loss) or ctx is
// cancelled.
func (h *hub) pump(ctx context.Context, dev device.Device, tracker *state.Tracker, publisher mqtt.Publisher) {
	readings := dev.Readings()
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-readings:
			if !ok {
				return
			}
			now := time.Now()
			tracker.ApplyReading(r, now)
			if publisher != nil {
				if err := publisher.PublishReading(r, now); err != nil {
					log.Printf("Reading publish error: %v", err)
				}
			}
		}
	}
}
