// Package control implements the firmware execution core: periodic sensor
// reports, serial command handling and pump actuation, driven from a single
// non-blocking loop.
//
// The package is hardware-free. The firmware binary plugs machine-backed
// implementations into the interfaces below; tests plug in fakes.
package control

import (
	"github.com/chewxy/math32"

	"github.com/godrip/godrip/pkg/wire"
)

// Millis is monotonic time in milliseconds. The counter wraps around roughly
// every 49.7 days; all schedule arithmetic stays in uint32 space so a wrap
// between two polls cannot stall the scheduler.
type Millis uint32

// Clock returns the current time in milliseconds since an arbitrary origin.
type Clock func() Millis

// SoilSensor reads the capacitive moisture probe. Values are raw counts in
// [0, wire.MaxMoisture]; higher means drier. The read cannot fail.
type SoilSensor interface {
	ReadRaw() int
}

// ClimateSensor reads air temperature (°C) and relative humidity (%). A read
// may take hundreds of milliseconds and may fail outright or produce NaN.
type ClimateSensor interface {
	ReadClimate() (temperature, humidity float32, err error)
}

// Sampler produces one Reading per call. Climate failures are normalized at
// this boundary: on error or NaN both climate fields become exactly 0.0 and
// Valid is false, while the moisture count is reported either way.
type Sampler struct {
	soil    SoilSensor
	climate ClimateSensor
}

// NewSampler combines the two sensors into a single sample source.
func NewSampler(soil SoilSensor, climate ClimateSensor) *Sampler {
	return &Sampler{soil: soil, climate: climate}
}

// Sample reads both sensors once. No retries: a failed climate read stays
// failed until the next scheduled sample.
func (s *Sampler) Sample() wire.Reading {
	r := wire.Reading{Moisture: s.soil.ReadRaw()}

	t, h, err := s.climate.ReadClimate()
	if err != nil || math32.IsNaN(t) || math32.IsNaN(h) {
		return r
	}

	r.Temperature = t
	r.Humidity = h
	r.Valid = true
	return r
}
