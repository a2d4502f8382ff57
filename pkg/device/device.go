package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/godrip/godrip/pkg/wire"
)

// DefaultBufferSize is the default capacity of the readings channel. The
// board reports once a second, so a small buffer rides out slow consumers.
const DefaultBufferSize = 16

// Port describes an available serial port.
type Port struct {
	Name        string
	Description string
	IsUSB       bool
}

// Serial talks to the board over a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	readings  chan wire.Reading
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	// readerStarted records that Connect succeeded and readReports owns the
	// readings channel; closed makes Close idempotent and final.
	readerStarted bool
	closed        bool
}

// New creates a device on the named port. Zero baudRate and bufSize select
// the defaults. A Serial is single-use: after the link drops or Close is
// called, build a new one to reconnect.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = wire.BaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		bufSize:   bufSize,
		readings:  make(chan wire.Reading, bufSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Ports returns the serial ports visible on the system.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(details))
	for _, p := range details {
		desc := p.Product
		if desc == "" {
			desc = p.Name
		}
		result = append(result, Port{
			Name:        p.Name,
			Description: desc,
			IsUSB:       p.IsUSB,
		})
	}

	return result, nil
}

// Find returns the name of the first port that looks like the board.
func Find() (string, error) {
	ports, err := Ports()
	if err != nil {
		return "", err
	}

	for _, p := range ports {
		if matchesBoard(p) {
			return p.Name, nil
		}
	}

	return "", fmt.Errorf("no board found among %d serial ports", len(ports))
}

// matchesBoard applies the usual Arduino heuristics: a USB product string
// mentioning Arduino, a generic USB-serial adapter, or a CDC-ACM device name.
func matchesBoard(p Port) bool {
	desc := strings.ToLower(p.Description)
	name := strings.ToLower(p.Name)

	switch {
	case strings.Contains(desc, "arduino"):
		return true
	case strings.Contains(desc, "usb serial"):
		return true
	case strings.Contains(name, "ttyacm") || strings.Contains(name, "ttyusb"):
		return true
	case strings.Contains(name, "usbmodem"): // macOS CDC-ACM naming
		return true
	}
	return false
}

// Connect opens the serial port and starts reading reports.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("device closed")
	}
	if d.connected {
		return fmt.Errorf("already connected")
	}

	// The firmware side is fixed at 8N1.
	mode := &serial.Mode{
		BaudRate: d.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true
	d.readerStarted = true

	// Start reading reports in a goroutine
	go d.readReports()

	return nil
}

// Close closes the connection and stops reading reports. While the read
// goroutine is running the readings channel is closed by it on the way out,
// so an explicit Close and an unplugged board look the same to consumers.
// When Connect never succeeded there is no read goroutine, and Close closes
// the channel itself. Close is idempotent; the device cannot be reconnected
// afterwards.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	// Cancel the context and close the port; both unblock the read goroutine.
	d.cancel()

	if !d.readerStarted {
		close(d.readings)
		return nil
	}

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	return nil
}

// Readings returns the channel of parsed telemetry reports. The channel
// closes when the link drops or the device is closed.
func (d *Serial) Readings() <-chan wire.Reading {
	return d.readings
}

// Water sends the watering command. The firmware runs its fixed pulse and
// blocks its own loop for the duration; nothing is echoed back.
func (d *Serial) Water() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	if _, err := d.conn.Write([]byte(wire.CmdWater + "\n")); err != nil {
		return fmt.Errorf("failed to send watering command: %w", err)
	}

	commandsTotal.Inc()
	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readReports reads lines from the serial port and parses them into Readings.
// It owns the readings channel: the channel closes exactly when this
// goroutine exits, whether through Close or a dead link.
func (d *Serial) readReports() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readReports: %v", r)
		}
	}()
	defer func() {
		d.mu.Lock()
		d.cancel()
		if d.conn != nil {
			if err := d.conn.Close(); err != nil {
				log.Printf("Error closing serial port: %v", err)
			}
			d.conn = nil
		}
		d.connected = false
		d.mu.Unlock()
		close(d.readings)
	}()

	scanner := bufio.NewScanner(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				// Scanner stopped (EOF, port error or unplugged board)
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			reading, err := wire.ParseReport(line)
			if err != nil {
				parseErrorsTotal.Inc()
				log.Printf("Failed to parse line '%s': %v", line, err)
				continue
			}

			observeReading(reading)

			// Send reading to channel (non-blocking)
			select {
			case d.readings <- reading:
			case <-d.ctx.Done():
				return
			default:
				// Channel full, log and skip
				log.Printf("Readings channel full, dropping reading")
			}
		}
	}
}
