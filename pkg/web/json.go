package web

import (
	"encoding/json"
	"time"

	"github.com/godrip/godrip/pkg/state"
)

// DataJSON is the flat document the dashboard polls. Field names are part of
// the UI contract.
type DataJSON struct {
	MoistureRaw         int     `json:"moisture_raw"`
	MoisturePercent     int     `json:"moisture_percent"`
	TempC               float32 `json:"temp_c"`
	TempF               float32 `json:"temp_f"`
	Humidity            float32 `json:"humidity"`
	SensorOK            bool    `json:"sensor_ok"`
	LastUpdate          string  `json:"last_update"`
	WeatherDesc         string  `json:"weather_desc"`
	WeatherRain         bool    `json:"weather_rain"`
	LastWater           string  `json:"last_water"`
	AutoWateringEnabled bool    `json:"auto_watering_enabled"`
	ArduinoConnected    bool    `json:"arduino_connected"`
	Watering            bool    `json:"watering"`
	UptimeSeconds       int64   `json:"uptime_seconds"`
}

// timeOfDay is the wall-clock format the dashboard shows for timestamps.
const timeOfDay = "15:04:05"

func formatData(snap state.Snapshot) []byte {
	d := DataJSON{
		LastUpdate:          "N/A",
		LastWater:           "N/A",
		SensorOK:            !snap.SensorFault(),
		WeatherDesc:         snap.Weather.Description,
		WeatherRain:         snap.Weather.Raining,
		AutoWateringEnabled: snap.AutoEnabled,
		ArduinoConnected:    snap.Connected,
		Watering:            snap.Watering(),
		UptimeSeconds:       int64(snap.Uptime().Truncate(time.Second).Seconds()),
	}

	if snap.HasReading() {
		d.MoistureRaw = snap.Reading.Moisture
		d.MoisturePercent = snap.MoisturePercent()
		d.TempC = snap.Reading.Temperature
		d.TempF = snap.TemperatureF()
		d.Humidity = snap.Reading.Humidity
		d.LastUpdate = snap.ReceivedAt.Format(timeOfDay)
	}

	if !snap.LastWater.IsZero() {
		d.LastWater = snap.LastWater.Format(timeOfDay) + " - " + string(snap.LastTrigger)
	}

	data, _ := json.MarshalIndent(d, "", "  ")
	return data
}
