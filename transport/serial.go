package transport

import (
	"context"
	"sync"
	"time"

	"github.com/goburrow/serial"
	"github.com/sirupsen/logrus"
)

// DefaultBaudRate is used when a serial binding is configured without an
// explicit baud rate. 115200 is the customary flight-controller default.
const DefaultBaudRate = 115200

// serialReadTimeout bounds each blocking port read so the reader goroutine
// notices cancellation and unplugged adapters promptly.
const serialReadTimeout = 100 * time.Millisecond

// SerialBinding talks MAVLink over a UART/USB serial port. A disappearing
// port (unplugged adapter, flight controller reboot) is reopened silently in
// the background; while the port is gone, Write fails with ErrNotConnected.
type SerialBinding struct {
	config serial.Config
	sink   Sink
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.RWMutex
	port serial.Port
}

// NewSerialBinding starts the background open loop for the given device
// path (for example "/dev/ttyUSB0"). baudRate 0 selects DefaultBaudRate.
func NewSerialBinding(device string, baudRate int, sink Sink) *SerialBinding {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &SerialBinding{
		config: serial.Config{
			Address:  device,
			BaudRate: baudRate,
			DataBits: 8,
			StopBits: 1,
			Parity:   "N",
			Timeout:  serialReadTimeout,
		},
		sink:   sink,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go b.openLoop()

	logrus.WithFields(logrus.Fields{
		"component": "SerialBinding",
		"device":    device,
		"baud_rate": baudRate,
	}).Info("Created serial binding")

	return b
}

// Write sends one frame over the currently open port.
func (b *SerialBinding) Write(p []byte) error {
	b.mu.RLock()
	port := b.port
	b.mu.RUnlock()
	if port == nil {
		return ErrNotConnected
	}
	_, err := port.Write(p)
	return err
}

// Connected reports whether the port is currently open.
func (b *SerialBinding) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.port != nil
}

// Close stops the open loop, closes the port and joins the background
// goroutine.
func (b *SerialBinding) Close() error {
	b.cancel()

	b.mu.Lock()
	if b.port != nil {
		_ = b.port.Close()
	}
	b.mu.Unlock()

	<-b.done
	return nil
}

// openLoop opens the port, serves it until it breaks, then retries. Open
// failures are expected (the adapter may not be plugged in yet) and retried
// indefinitely at a fixed interval.
func (b *SerialBinding) openLoop() {
	defer close(b.done)

	for {
		if b.ctx.Err() != nil {
			return
		}

		port, err := serial.Open(&b.config)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "SerialBinding",
				"device":    b.config.Address,
				"error":     err.Error(),
			}).Debug("Open attempt failed")
			if !b.sleep(reconnectInterval) {
				return
			}
			continue
		}

		b.mu.Lock()
		b.port = port
		b.mu.Unlock()

		logrus.WithFields(logrus.Fields{
			"component": "SerialBinding",
			"device":    b.config.Address,
		}).Info("Serial port opened")

		b.readUntilBroken(port)

		b.mu.Lock()
		b.port = nil
		b.mu.Unlock()
		_ = port.Close()
	}
}

func (b *SerialBinding) readUntilBroken(port serial.Port) {
	buffer := make([]byte, readBufferSize)

	for {
		select {
		case <-b.ctx.Done():
			return
		default:
		}

		n, err := port.Read(buffer)
		if n > 0 {
			b.sink(append([]byte(nil), buffer[:n]...))
		}
		if err != nil {
			if err == serial.ErrTimeout {
				continue
			}
			logrus.WithFields(logrus.Fields{
				"component": "SerialBinding",
				"device":    b.config.Address,
				"error":     err.Error(),
			}).Debug("Serial port broken, will reopen")
			return
		}
	}
}

func (b *SerialBinding) sleep(d time.Duration) bool {
	select {
	case <-b.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
