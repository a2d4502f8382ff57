package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/godrip/godrip/pkg/config"
	"github.com/godrip/godrip/pkg/wire"
)

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client       paho.Client
	readingTopic string
	eventTopic   string
}

// NewRealPublisher creates a publisher connected to the configured broker.
func NewRealPublisher(cfg config.MQTTConfig) (*RealPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("broker connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	return &RealPublisher{
		client:       client,
		readingTopic: Topic(cfg.TopicPrefix, cfg.ClientID, LeafReading),
		eventTopic:   Topic(cfg.TopicPrefix, cfg.ClientID, LeafEvent),
	}, nil
}

// PublishReading sends a board report to the broker. Reports are retained at
// QoS 0: a fresh subscriber sees the latest reading immediately, and losing
// one is harmless because the next arrives a second later.
func (p *RealPublisher) PublishReading(r wire.Reading, at time.Time) error {
	payload, err := FormatReadingPayload(r, at)
	if err != nil {
		return fmt.Errorf("failed to format reading payload: %w", err)
	}
	return p.publish(p.readingTopic, 0, true, payload, "reading")
}

// PublishEvent sends a lifecycle or watering event at QoS 1. Events are
// rare and worth delivering.
func (p *RealPublisher) PublishEvent(event Event) error {
	payload, err := FormatEventPayload(event)
	if err != nil {
		return fmt.Errorf("failed to format event payload: %w", err)
	}
	return p.publish(p.eventTopic, 1, false, payload, "event")
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte, kind string) error {
	publishesTotal.WithLabelValues(kind).Inc()

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		publishFailuresTotal.WithLabelValues(kind).Inc()
		return fmt.Errorf("publish %s timeout", kind)
	}
	if err := token.Error(); err != nil {
		publishFailuresTotal.WithLabelValues(kind).Inc()
		return fmt.Errorf("failed to publish %s: %w", kind, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is active.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker, letting in-flight messages drain for up
// to a second.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
