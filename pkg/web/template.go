package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/godrip/godrip/pkg/state"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Garden Drip Monitor</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; }
.bad { color: red; font-weight: bold; }
.warn { color: orange; }
button { font-family: monospace; padding: 6px 12px; margin-right: 8px; }
#flash { margin: 1em 0; color: #555; }
</style>
</head>
<body>
<h1>Garden Drip Monitor</h1>

{{if not .Connected}}<p class="bad">Arduino not connected. Check the USB connection and device power.</p>{{end}}

<h2>Soil</h2>
<table>
<tr><th>Moisture (raw)</th><td id="moisture-raw">{{.Reading.Moisture}}</td></tr>
<tr><th>Moisture</th><td id="moisture-percent">{{.Percent}}%</td></tr>
</table>

<h2>Climate</h2>
<table>
<tr><th>Temperature</th><td id="temp">{{printf "%.1f" .Reading.Temperature}} &deg;C / {{printf "%.1f" .TempF}} &deg;F</td></tr>
<tr><th>Humidity</th><td id="humidity">{{printf "%.1f" .Reading.Humidity}}%</td></tr>
<tr><th>Sensor</th><td id="sensor" class="{{if .SensorFault}}bad{{else}}ok{{end}}">{{if .SensorFault}}FAULT{{else}}ok{{end}}</td></tr>
<tr><th>Last update</th><td id="last-update">{{.LastUpdate}}</td></tr>
</table>

<h2>Weather</h2>
<table>
<tr><th>Conditions</th><td id="weather-desc">{{.Weather.Description}}</td></tr>
<tr><th>Rain delay</th><td id="weather-rain">{{if .Weather.Raining}}active{{else}}no{{end}}</td></tr>
</table>

<h2>Watering</h2>
<table>
<tr><th>Automatic</th><td id="auto" class="{{if .AutoEnabled}}ok{{else}}warn{{end}}">{{if .AutoEnabled}}ENABLED{{else}}DISABLED{{end}}</td></tr>
<tr><th>Last water</th><td id="last-water">{{.LastWater}}</td></tr>
<tr><th>Pump</th><td id="watering">{{if .Watering}}RUNNING{{else}}idle{{end}}</td></tr>
</table>

<p>
<button onclick="post('/water_manual')">Water now</button>
<button onclick="post('/toggle_auto')">Toggle auto</button>
</p>
<p id="flash"></p>

<h2>System</h2>
<table>
<tr><th>Arduino</th><td id="connected" class="{{if .Connected}}ok{{else}}bad{{end}}">{{if .Connected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
</table>

<p><a href="/data">JSON</a> &middot; <a href="/metrics">metrics</a></p>

<script>
function setText(id, text) { document.getElementById(id).textContent = text; }

async function refresh() {
  try {
    const res = await fetch("/data");
    const d = await res.json();
    setText("moisture-raw", d.moisture_raw);
    setText("moisture-percent", d.moisture_percent + "%");
    setText("temp", d.temp_c.toFixed(1) + " °C / " + d.temp_f.toFixed(1) + " °F");
    setText("humidity", d.humidity.toFixed(1) + "%");
    setText("sensor", d.sensor_ok ? "ok" : "FAULT");
    setText("last-update", d.last_update);
    setText("weather-desc", d.weather_desc);
    setText("weather-rain", d.weather_rain ? "active" : "no");
    setText("auto", d.auto_watering_enabled ? "ENABLED" : "DISABLED");
    setText("last-water", d.last_water);
    setText("watering", d.watering ? "RUNNING" : "idle");
    setText("connected", d.arduino_connected ? "connected" : "disconnected");
  } catch (e) {}
}

async function post(path) {
  try {
    const res = await fetch(path, { method: "POST" });
    const body = await res.json();
    document.getElementById("flash").textContent = body.message;
  } catch (e) {
    document.getElementById("flash").textContent = "Request failed.";
  }
  refresh();
}

setInterval(refresh, 2000);
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap state.Snapshot) {
	// The template wants display strings the snapshot methods don't supply.
	data := struct {
		state.Snapshot
		Uptime     time.Duration
		Percent    int
		TempF      float32
		LastUpdate string
		LastWater  string
	}{
		Snapshot:   snap,
		Uptime:     snap.Uptime(),
		LastUpdate: "N/A",
		LastWater:  "N/A",
	}

	if snap.HasReading() {
		data.Percent = snap.MoisturePercent()
		data.TempF = snap.TemperatureF()
		data.LastUpdate = snap.ReceivedAt.Format(timeOfDay)
	}
	if !snap.LastWater.IsZero() {
		data.LastWater = snap.LastWater.Format(timeOfDay) + " - " + string(snap.LastTrigger)
	}

	indexTmpl.Execute(w, data)
}
