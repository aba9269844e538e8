package transport

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopBinding hands every written frame straight back, as if the medium
// echoed it.
type loopBinding struct {
	mu     sync.Mutex
	writes [][]byte
	closed bool
}

func (b *loopBinding) Write(p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("closed")
	}
	b.writes = append(b.writes, append([]byte(nil), p...))
	return nil
}

func (b *loopBinding) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func testKey(fill byte) [32]byte {
	var key [32]byte
	for i := range key {
		key[i] = fill
	}
	return key
}

func TestSecureLink_RoundTrip(t *testing.T) {
	var rx collector
	key := testKey(7)

	link := NewSecureLink(key, rx.sink)
	medium := &loopBinding{}
	w := link.Writer(medium)

	plaintext := []byte("heartbeat frame bytes")
	require.NoError(t, w.Write(plaintext))
	require.Len(t, medium.writes, 1)

	sealed := medium.writes[0]
	assert.NotEqual(t, plaintext, sealed)
	assert.Greater(t, len(sealed), len(plaintext), "sealed frame carries nonce and tag")

	link.Sink(sealed)
	require.Equal(t, 1, rx.count())
	assert.Equal(t, plaintext, rx.last())
}

func TestSecureLink_DropsTamperedDatagram(t *testing.T) {
	var rx collector
	key := testKey(7)

	link := NewSecureLink(key, rx.sink)
	medium := &loopBinding{}
	require.NoError(t, link.Writer(medium).Write([]byte("frame")))

	sealed := medium.writes[0]
	sealed[len(sealed)-1] ^= 0xff
	link.Sink(sealed)

	assert.Equal(t, 0, rx.count(), "tampered datagrams are dropped silently")
}

func TestSecureLink_DropsWrongKey(t *testing.T) {
	var rx collector

	sender := NewSecureLink(testKey(1), func([]byte) {})
	receiver := NewSecureLink(testKey(2), rx.sink)

	medium := &loopBinding{}
	require.NoError(t, sender.Writer(medium).Write([]byte("frame")))

	receiver.Sink(medium.writes[0])
	assert.Equal(t, 0, rx.count())
}

func TestSecureLink_DropsShortDatagram(t *testing.T) {
	var rx collector
	link := NewSecureLink(testKey(7), rx.sink)

	link.Sink([]byte{1, 2, 3})
	assert.Equal(t, 0, rx.count())
}

func TestSecureLink_WriterClosePropagates(t *testing.T) {
	link := NewSecureLink(testKey(7), func([]byte) {})
	medium := &loopBinding{}
	w := link.Writer(medium)

	require.NoError(t, w.Close())
	assert.Error(t, w.Write([]byte("after close")))
}
