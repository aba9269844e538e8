package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPBinding_WriteFailsWhileDisconnected(t *testing.T) {
	// Grab a port with no listener behind it.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	var rx collector
	b := NewTCPBinding(addr, rx.sink)
	defer b.Close()

	assert.ErrorIs(t, b.Write([]byte("frame")), ErrNotConnected)
	assert.False(t, b.Connected())
}

func TestTCPBinding_RoundTrip(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	var rx collector
	b := NewTCPBinding(l.Addr().String(), rx.sink)
	defer b.Close()

	require.Eventually(t, b.Connected, 5*time.Second, 10*time.Millisecond)

	var server net.Conn
	select {
	case server = <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("server never accepted the connection")
	}
	defer server.Close()

	require.NoError(t, b.Write([]byte("up")))
	buf := make([]byte, 16)
	require.NoError(t, server.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("up"), buf[:n])

	_, err = server.Write([]byte("down"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return rx.count() == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []byte("down"), rx.last())
}

func TestTCPBinding_CloseIsBounded(t *testing.T) {
	// Point at an address that will never answer; Close must still return
	// promptly because the connect loop observes cancellation.
	var rx collector
	b := NewTCPBinding("127.0.0.1:1", rx.sink)

	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	require.NoError(t, b.Close())
	assert.Less(t, time.Since(start), reconnectInterval+time.Second)
}
