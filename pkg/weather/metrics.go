package weather

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godrip_weather_fetches_total",
		Help: "Successful weather lookups.",
	})
	fetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godrip_weather_fetch_failures_total",
		Help: "Weather lookup attempts that failed, including breaker rejections.",
	})
)
