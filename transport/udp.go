package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// UDPBinding is a client-side UDP binding connected to a fixed remote
// address. UDP is connectionless, so writes only fail on local socket
// errors; an absent peer simply produces no inbound traffic.
type UDPBinding struct {
	conn   net.Conn
	sink   Sink
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewUDPBinding dials the remote address and starts the reader goroutine.
func NewUDPBinding(remoteAddr string, sink Sink) (*UDPBinding, error) {
	conn, err := net.Dial("udp", remoteAddr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &UDPBinding{
		conn:   conn,
		sink:   sink,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go b.readLoop()

	logrus.WithFields(logrus.Fields{
		"component":   "UDPBinding",
		"remote_addr": remoteAddr,
		"local_addr":  conn.LocalAddr().String(),
	}).Info("Created UDP binding")

	return b, nil
}

// Write sends one frame to the remote address.
func (b *UDPBinding) Write(p []byte) error {
	_, err := b.conn.Write(p)
	return err
}

// Close stops the reader goroutine and closes the socket.
func (b *UDPBinding) Close() error {
	b.cancel()
	err := b.conn.Close()
	<-b.done
	return err
}

// LocalAddr returns the local address of the socket.
func (b *UDPBinding) LocalAddr() net.Addr {
	return b.conn.LocalAddr()
}

func (b *UDPBinding) readLoop() {
	defer close(b.done)
	buffer := make([]byte, readBufferSize)

	for {
		select {
		case <-b.ctx.Done():
			return
		default:
		}

		_ = b.conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, err := b.conn.Read(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if b.ctx.Err() != nil {
				return
			}
			logrus.WithFields(logrus.Fields{
				"component": "UDPBinding",
				"error":     err.Error(),
			}).Debug("Error reading datagram")
			continue
		}
		if n > 0 {
			b.sink(append([]byte(nil), buffer[:n]...))
		}
	}
}

// UDPServerBinding listens on a local address and talks to whichever peer
// sent the most recent datagram. This matches ground-station behavior, where
// the remote side's address is only learned from its first packet.
type UDPServerBinding struct {
	conn   net.PacketConn
	sink   Sink
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.RWMutex
	peer net.Addr
}

// NewUDPServerBinding listens on listenAddr and starts the reader goroutine.
func NewUDPServerBinding(listenAddr string, sink Sink) (*UDPServerBinding, error) {
	conn, err := net.ListenPacket("udp", listenAddr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &UDPServerBinding{
		conn:   conn,
		sink:   sink,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go b.readLoop()

	logrus.WithFields(logrus.Fields{
		"component":  "UDPServerBinding",
		"local_addr": conn.LocalAddr().String(),
	}).Info("Created UDP server binding")

	return b, nil
}

// Write sends one frame to the most recently seen peer. It fails with
// ErrNoPeer until a first datagram has arrived.
func (b *UDPServerBinding) Write(p []byte) error {
	b.mu.RLock()
	peer := b.peer
	b.mu.RUnlock()
	if peer == nil {
		return ErrNoPeer
	}
	_, err := b.conn.WriteTo(p, peer)
	return err
}

// Close stops the reader goroutine and closes the socket.
func (b *UDPServerBinding) Close() error {
	b.cancel()
	err := b.conn.Close()
	<-b.done
	return err
}

// LocalAddr returns the bound local address.
func (b *UDPServerBinding) LocalAddr() net.Addr {
	return b.conn.LocalAddr()
}

func (b *UDPServerBinding) readLoop() {
	defer close(b.done)
	buffer := make([]byte, readBufferSize)

	for {
		select {
		case <-b.ctx.Done():
			return
		default:
		}

		_ = b.conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, addr, err := b.conn.ReadFrom(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if b.ctx.Err() != nil {
				return
			}
			logrus.WithFields(logrus.Fields{
				"component": "UDPServerBinding",
				"error":     err.Error(),
			}).Debug("Error reading datagram")
			continue
		}

		b.mu.Lock()
		b.peer = addr
		b.mu.Unlock()

		if n > 0 {
			b.sink(append([]byte(nil), buffer[:n]...))
		}
	}
}
