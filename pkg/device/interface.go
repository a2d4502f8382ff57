package device

import "github.com/godrip/godrip/pkg/wire"

// Device is a board the daemon can talk to (real serial or mocked).
//
// Readings delivers the periodic telemetry reports; the channel closes when
// the link goes away or the device is closed. Even a device that never
// connected releases its consumers on Close. That close is the consumer's
// cue to rebuild the device and reconnect. Water sends one watering command.
type Device interface {
	Connect() error
	Close() error
	Readings() <-chan wire.Reading
	Water() error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
