// Command dripd is the garden host daemon. It keeps a serial link to the
// watering board, tracks its reports, fetches weather, runs the automatic
// watering policy, serves the dashboard, and optionally publishes telemetry
// to MQTT.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/godrip/godrip/pkg/config"
	"github.com/godrip/godrip/pkg/mqtt"
	"github.com/godrip/godrip/pkg/policy"
	"github.com/godrip/godrip/pkg/state"
	"github.com/godrip/godrip/pkg/weather"
	"github.com/godrip/godrip/pkg/web"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
		httpFlag   = flag.String("http", "", "Dashboard listen address override (e.g., :5000)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *httpFlag != "" {
		cfg.Web.Listen = *httpFlag
	}

	if err := run(cfg, *mockFlag); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, useMock bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	reasonCh := make(chan string, 1)
	go func() {
		s := <-sigCh
		log.Printf("Received %v, shutting down", s)
		reasonCh <- signalName(s)
		cancel()
	}()

	tracker := state.NewTracker(time.Now(), cfg)

	// Telemetry is optional: no broker configured means no publisher, and a
	// failed broker connection is not fatal.
	var publisher mqtt.Publisher
	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewRealPublisher(cfg.MQTT)
		if err != nil {
			log.Printf("MQTT publishing disabled: %v", err)
		} else {
			publisher = pub
			defer publisher.Close()
			publishEvent(publisher, mqtt.Event{Timestamp: time.Now(), Type: mqtt.EventStartup})
		}
	}

	hub := newHub(cfg, useMock)
	engine := policy.New(hub, tracker, cfg)
	if publisher != nil {
		engine.OnWater = func(trigger state.Trigger) {
			publishEvent(publisher, mqtt.Event{
				Timestamp: time.Now(),
				Type:      mqtt.EventWatering,
				Trigger:   string(trigger),
			})
		}
	}

	log.Printf("started: port=%q mock=%v listen=%s city=%q broker=%q",
		cfg.Serial.Port, useMock, cfg.Web.Listen, cfg.Weather.City, cfg.MQTT.Broker)

	var wg sync.WaitGroup

	// Device pump: connect, drain reports, reconnect on link loss.
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx, tracker, publisher)
	}()

	// Weather updates.
	wc := weather.New(cfg.Weather.APIKey, cfg.Weather.City)
	if wc.Enabled() {
		updater := weather.NewUpdater(wc, cfg.Weather.UpdateInterval, func(cond weather.Conditions) {
			tracker.SetWeather(state.Weather{
				Description: cond.Description,
				Raining:     cond.Raining,
				FetchedAt:   cond.FetchedAt,
			})
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			updater.Run(ctx)
		}()
	} else {
		log.Printf("Weather lookups disabled (no API key), rain delay inactive")
		tracker.SetWeather(state.Weather{Description: "Weather disabled"})
	}

	// Automatic watering policy.
	wg.Add(1)
	go func() {
		defer wg.Done()
		engine.Run(ctx)
	}()

	// Dashboard.
	srv := web.New(cfg.Web.Listen, tracker, engine)
	go func() {
		log.Printf("Dashboard listening on %s", cfg.Web.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Dashboard server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()

	reason := "UNKNOWN"
	select {
	case reason = <-reasonCh:
	default:
	}

	if publisher != nil {
		publishEvent(publisher, mqtt.Event{Timestamp: time.Now(), Type: mqtt.EventShutdown, Reason: reason})
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Dashboard shutdown error: %v", err)
	}

	wg.Wait()
	log.Printf("Shutdown complete")
	return nil
}

func publishEvent(publisher mqtt.Publisher, event mqtt.Event) {
	if err := publisher.PublishEvent(event); err != nil {
		log.Printf("Event publish error: %v", err)
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
