//go:build tinygo

//go:generate tinygo flash -target=arduino

package main

import (
	"context"
	"time"

	"machine"

	"tinygo.org/x/drivers/dht"

	"github.com/godrip/godrip/pkg/control"
)

var (
	uart = machine.UART0
	boot = time.Now()
)

// soilProbe reads the moisture probe through the ADC.
type soilProbe struct {
	adc machine.ADC
}

// ReadRaw returns the probe value as a 10-bit count. machine.ADC.Get scales
// every target to 16 bits, so shift back down to the native ADC range.
func (p soilProbe) ReadRaw() int {
	return int(p.adc.Get() >> 6)
}

// climateSensor adapts the DHT11 driver. A failed read is reported upward;
// the sampler turns it into the zeroed fault pair on the wire.
type climateSensor struct {
	dev dht.DummyDevice
}

func (c *climateSensor) ReadClimate() (temperature, humidity float32, err error) {
	if err := c.dev.ReadMeasurements(); err != nil {
		return 0, 0, err
	}
	t, err := c.dev.TemperatureFloat(dht.C)
	if err != nil {
		return 0, 0, err
	}
	h, err := c.dev.HumidityFloat()
	if err != nil {
		return 0, 0, err
	}
	return t, h, nil
}

// millis is the loop clock. The uint32 conversion wraps around every ~49.7
// days, which the scheduler's elapsed arithmetic is built to survive.
func millis() control.Millis {
	return control.Millis(time.Since(boot) / time.Millisecond)
}

func main() {
	// Serial link to the host.
	uart.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})

	// Moisture probe.
	machine.InitADC()
	adc := machine.ADC{Pin: PIN_MOISTURE}
	adc.Configure(machine.ADCConfig{})

	// Pump relay. The actuator forces it to the released level right away.
	PIN_RELAY.Configure(machine.PinConfig{Mode: machine.PinOutput})

	climate := &climateSensor{dev: dht.New(PIN_DHT, dht.DHT11)}

	sampler := control.NewSampler(soilProbe{adc: adc}, climate)
	scheduler := control.NewScheduler(REPORT_INTERVAL_MS, sampler)
	commands := control.NewCommandReader(uart)
	pump := control.NewActuator(PIN_RELAY)

	loop := control.NewLoop(millis, scheduler, commands, pump, uart, WATER_DURATION_MS*time.Millisecond)
	loop.Run(context.Background())
}
