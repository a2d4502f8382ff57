package control

import "time"

// ActuatorState is the pump state machine's position.
type ActuatorState uint8

const (
	// Idle means the relay is released and the pump is off.
	Idle ActuatorState = iota
	// Actuating means the relay is closed and the pump is running.
	Actuating
)

// RelayPin drives the pump relay. machine.Pin satisfies it.
type RelayPin interface {
	Set(high bool)
}

// The relay board is a low-level-trigger module: driving the pin low closes
// the relay and runs the pump.
const (
	relayOn  = false
	relayOff = true
)

// Request asks for one watering pulse.
type Request struct {
	Duration time.Duration
}

// Actuator owns the relay pin and executes watering pulses. Run blocks for
// the whole pulse; the calling loop resumes its other duties afterwards.
type Actuator struct {
	pin   RelayPin
	state ActuatorState
	sleep func(time.Duration)
}

// NewActuator takes ownership of the relay pin and immediately forces it to
// the safe (off) level, so the pump cannot run before the first request.
func NewActuator(pin RelayPin) *Actuator {
	pin.Set(relayOff)
	return &Actuator{pin: pin, state: Idle, sleep: time.Sleep}
}

// Run executes one watering pulse and returns once the relay is released.
// There is no failure mode and no early cancellation: the relay is on for
// the requested duration, then off.
func (a *Actuator) Run(req Request) {
	a.state = Actuating
	a.pin.Set(relayOn)
	a.sleep(req.Duration)
	a.pin.Set(relayOff)
	a.state = Idle
}

// State returns the current state machine position.
func (a *Actuator) State() ActuatorState {
	return a.state
}
