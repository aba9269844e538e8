package transport

import (
	"errors"
	"time"
)

// Sink receives the raw bytes arriving on a binding. Each binding calls its
// Sink from a single reader goroutine, so a Sink backed by an endpoint's
// Feed never runs concurrently with itself.
type Sink func(p []byte)

// Binding is the full surface of a concrete transport binding. Endpoints
// only depend on the Write method; Close is for the code that owns the
// binding's lifecycle.
type Binding interface {
	// Write delivers one serialized frame. An error means the medium is
	// currently down; the binding keeps trying to recover on its own.
	Write(p []byte) error

	// Close shuts the binding down and stops its reader goroutine.
	Close() error
}

// ErrNotConnected is returned by Write while a connection-oriented binding
// has no established connection.
var ErrNotConnected = errors.New("transport: not connected")

// ErrNoPeer is returned by a server-side UDP binding before any peer has
// sent a first datagram.
var ErrNoPeer = errors.New("transport: no peer seen yet")

const (
	// readDeadline bounds each blocking read so reader goroutines notice
	// cancellation promptly.
	readDeadline = 100 * time.Millisecond

	// readBufferSize fits any MAVLink frame with room to spare.
	readBufferSize = 2048

	// reconnectInterval is how long connection-oriented bindings wait
	// between silent reconnection attempts.
	reconnectInterval = 2 * time.Second

	// dialTimeout bounds each connection attempt.
	dialTimeout = 5 * time.Second

	// writeTimeout bounds each blocking write on stream transports.
	writeTimeout = 5 * time.Second
)
