package mqtt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "godrip_mqtt_publishes_total",
		Help: "MQTT publish attempts, labelled by message kind.",
	}, []string{"kind"})

	publishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "godrip_mqtt_publish_failures_total",
		Help: "MQTT publishes that timed out or errored, labelled by message kind.",
	}, []string{"kind"})
)
