package policy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wateringsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "godrip_waterings_total",
		Help: "Watering pulses sent to the board, labelled by trigger.",
	}, []string{"trigger"})

	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "godrip_policy_checks_total",
		Help: "Automatic watering checks, labelled by decision.",
	}, []string{"decision"})
)
