//go:build tinygo

package main

import (
	"machine"

	"github.com/godrip/godrip/pkg/wire"
)

const (
	// Cadence
	REPORT_INTERVAL_MS = 1000 // one report line per second
	WATER_DURATION_MS  = 3000 // fixed pump pulse length

	// Pin assignment (Arduino Uno)
	PIN_RELAY    = machine.D7   // pump relay, low-level trigger module
	PIN_DHT      = machine.D2   // DHT11 data line
	PIN_MOISTURE = machine.ADC0 // moisture probe analog output

	// Serial configuration
	// Format "<moisture>,<temp>,<humidity>\n" is at most ~20 bytes per line,
	// one line per second. 9600 baud 8N1 moves 960 bytes/sec, ~50x headroom,
	// and matches what the host side expects on the other end of the cable.
	UART_BAUD_RATE = wire.BaudRate
)
