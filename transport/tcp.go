package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TCPBinding maintains a TCP connection to a fixed address, reconnecting
// silently whenever the connection drops. While disconnected, Write fails
// with ErrNotConnected and no bytes are delivered to the sink; the endpoint
// above notices nothing beyond that.
type TCPBinding struct {
	addr   string
	sink   Sink
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.RWMutex
	conn net.Conn
}

// NewTCPBinding starts the background connect loop and returns immediately;
// the first connection attempt happens asynchronously.
func NewTCPBinding(addr string, sink Sink) *TCPBinding {
	ctx, cancel := context.WithCancel(context.Background())
	b := &TCPBinding{
		addr:   addr,
		sink:   sink,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go b.connectLoop()

	logrus.WithFields(logrus.Fields{
		"component":   "TCPBinding",
		"remote_addr": addr,
	}).Info("Created TCP binding")

	return b
}

// Write sends one frame over the current connection.
func (b *TCPBinding) Write(p []byte) error {
	b.mu.RLock()
	conn := b.conn
	b.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write(p); err != nil {
		// The read loop will notice the broken connection and trigger
		// a reconnect; here it is just a failed write.
		return err
	}
	return nil
}

// Connected reports whether a connection is currently established.
func (b *TCPBinding) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.conn != nil
}

// Close stops the connect loop, closes any open connection and joins the
// background goroutine.
func (b *TCPBinding) Close() error {
	b.cancel()

	b.mu.Lock()
	if b.conn != nil {
		_ = b.conn.Close()
	}
	b.mu.Unlock()

	<-b.done
	return nil
}

// connectLoop dials, serves one connection until it breaks, then retries.
// Connection failures are expected and retried indefinitely at a fixed
// interval; they are never surfaced.
func (b *TCPBinding) connectLoop() {
	defer close(b.done)

	for {
		if b.ctx.Err() != nil {
			return
		}

		conn, err := net.DialTimeout("tcp", b.addr, dialTimeout)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"component":   "TCPBinding",
				"remote_addr": b.addr,
				"error":       err.Error(),
			}).Debug("Connect attempt failed")
			if !b.sleep(reconnectInterval) {
				return
			}
			continue
		}

		b.mu.Lock()
		b.conn = conn
		b.mu.Unlock()

		logrus.WithFields(logrus.Fields{
			"component":   "TCPBinding",
			"remote_addr": b.addr,
		}).Info("Connected")

		b.readUntilBroken(conn)

		b.mu.Lock()
		b.conn = nil
		b.mu.Unlock()
		_ = conn.Close()
	}
}

// readUntilBroken delivers inbound bytes until the connection errors out or
// the binding is closed.
func (b *TCPBinding) readUntilBroken(conn net.Conn) {
	buffer := make([]byte, readBufferSize)

	for {
		select {
		case <-b.ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, err := conn.Read(buffer)
		if n > 0 {
			b.sink(append([]byte(nil), buffer[:n]...))
		}
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			logrus.WithFields(logrus.Fields{
				"component":   "TCPBinding",
				"remote_addr": b.addr,
				"error":       err.Error(),
			}).Debug("Connection broken, will reconnect")
			return
		}
	}
}

// sleep waits for d or until the binding is closed. It reports whether the
// binding is still running.
func (b *TCPBinding) sleep(d time.Duration) bool {
	select {
	case <-b.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
