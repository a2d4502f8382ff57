// Package wire defines the serial line protocol spoken between the firmware
// and the host: one CSV report line per sample in one direction, one command
// token per line in the other.
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// BaudRate is the fixed speed of the device link. Frame format is 8N1.
	BaudRate = 9600

	// MaxMoisture is the largest raw count the moisture probe reports
	// (10-bit ADC range).
	MaxMoisture = 1023

	// CmdWater triggers one fixed-duration pump run. Matching is exact and
	// case sensitive; the firmware trims surrounding whitespace before
	// comparing, so " WET \n" and "WET\n" are equivalent on the wire.
	CmdWater = "WET"
)

// Reading is one sensor sample as it travels over the wire.
//
// When the climate sensor read fails, Temperature and Humidity are both
// exactly 0.0 and Valid is false. The zeroed pair is the on-wire fault
// marker: report lines carry no separate validity field.
type Reading struct {
	Moisture    int     `json:"moisture_raw"`
	Temperature float32 `json:"temp_c"`
	Humidity    float32 `json:"humidity"`
	Valid       bool    `json:"sensor_ok"`
}

// AppendReport appends the report line for r to dst, including the trailing
// newline, and returns the extended slice.
// Format: "<moisture>,<temp>,<humidity>\n" with one decimal on the floats.
// Example: "512,23.4,55.1\n".
func AppendReport(dst []byte, r Reading) []byte {
	dst = strconv.AppendInt(dst, int64(r.Moisture), 10)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, float64(r.Temperature), 'f', 1, 32)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, float64(r.Humidity), 'f', 1, 32)
	dst = append(dst, '\n')
	return dst
}

// FormatReport returns the report line for r without the line terminator.
func FormatReport(r Reading) string {
	b := AppendReport(nil, r)
	return string(b[:len(b)-1])
}

// ParseReport parses one report line into a Reading. The line terminator must
// already be stripped. A zeroed temperature/humidity pair marks the reading
// as a climate sensor fault (Valid=false).
func ParseReport(line string) (Reading, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return Reading{}, fmt.Errorf("invalid report: expected 3 comma-separated fields, got %d", len(parts))
	}

	moisture, err := strconv.Atoi(parts[0])
	if err != nil {
		return Reading{}, fmt.Errorf("invalid moisture: %w", err)
	}
	if moisture < 0 || moisture > MaxMoisture {
		return Reading{}, fmt.Errorf("moisture out of range: %d (max %d)", moisture, MaxMoisture)
	}

	temp, err := strconv.ParseFloat(parts[1], 32)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid temperature: %w", err)
	}
	if temp < -60 || temp > 125 {
		return Reading{}, fmt.Errorf("temperature out of range: %g", temp)
	}

	humidity, err := strconv.ParseFloat(parts[2], 32)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid humidity: %w", err)
	}
	if humidity < 0 || humidity > 100 {
		return Reading{}, fmt.Errorf("humidity out of range: %g", humidity)
	}

	r := Reading{
		Moisture:    moisture,
		Temperature: float32(temp),
		Humidity:    float32(humidity),
	}
	r.Valid = !(r.Temperature == 0 && r.Humidity == 0)
	return r, nil
}

// IsWaterCommand reports whether a trimmed command line is the watering
// command. Matching is exact: "wet", "Wet" and tokens merely containing WET
// have no effect.
func IsWaterCommand(line string) bool {
	return line == CmdWater
}
