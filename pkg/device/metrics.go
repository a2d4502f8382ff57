package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/godrip/godrip/pkg/wire"
)

var (
	readingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godrip_device_readings_total",
		Help: "Telemetry reports received from the board.",
	})
	parseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godrip_device_parse_errors_total",
		Help: "Serial lines that failed to parse as reports.",
	})
	sensorFaultsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godrip_device_sensor_faults_total",
		Help: "Reports carrying the climate sensor fault marker.",
	})
	commandsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "godrip_device_commands_total",
		Help: "Watering commands sent to the board.",
	})

	moistureGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "godrip_moisture_raw",
		Help: "Last raw soil moisture count (higher is drier).",
	})
	temperatureGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "godrip_temperature_celsius",
		Help: "Last air temperature in degrees Celsius.",
	})
	humidityGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "godrip_humidity_percent",
		Help: "Last relative humidity.",
	})
)

// observeReading records a successfully parsed report. Climate gauges keep
// their previous value across sensor faults instead of snapping to zero.
func observeReading(r wire.Reading) {
	readingsTotal.Inc()
	moistureGauge.Set(float64(r.Moisture))

	if !r.Valid {
		sensorFaultsTotal.Inc()
		return
	}
	temperatureGauge.Set(float64(r.Temperature))
	humidityGauge.Set(float64(r.Humidity))
}
