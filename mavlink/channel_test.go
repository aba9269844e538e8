package mavlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelAllocator_StrictlyIncreasing(t *testing.T) {
	alloc := NewChannelAllocator()

	const k = 16
	ids := make([]uint8, 0, k)
	for i := 0; i < k; i++ {
		id, err := alloc.Checkout()
		require.NoError(t, err)
		ids = append(ids, id)
	}

	seen := make(map[uint8]bool)
	for i, id := range ids {
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
		assert.Equal(t, uint8(i), id, "ids must increase strictly from the first issued value")
	}
	assert.Equal(t, k, alloc.Issued())
}

func TestChannelAllocator_Exhaustion(t *testing.T) {
	alloc := NewChannelAllocator()

	for i := 0; i < MaxChannels; i++ {
		_, err := alloc.Checkout()
		require.NoError(t, err, "checkout %d within capacity must succeed", i)
	}

	_, err := alloc.Checkout()
	assert.ErrorIs(t, err, ErrChannelsExhausted)

	// Exhaustion is permanent, not a one-shot condition.
	_, err = alloc.Checkout()
	assert.ErrorIs(t, err, ErrChannelsExhausted)
}

func TestChannelAllocator_ConcurrentCheckout(t *testing.T) {
	alloc := NewChannelAllocator()

	const workers = 64
	results := make(chan uint8, workers)
	for i := 0; i < workers; i++ {
		go func() {
			id, err := alloc.Checkout()
			require.NoError(t, err)
			results <- id
		}()
	}

	seen := make(map[uint8]bool)
	for i := 0; i < workers; i++ {
		id := <-results
		assert.False(t, seen[id], "id %d issued twice under concurrency", id)
		seen[id] = true
	}
}

func TestNewEndpoint_FailsWhenChannelsExhausted(t *testing.T) {
	alloc := NewChannelAllocator()
	for i := 0; i < MaxChannels; i++ {
		_, err := alloc.Checkout()
		require.NoError(t, err)
	}

	_, err := NewEndpoint("late", alloc, nopWriter{})
	assert.ErrorIs(t, err, ErrChannelsExhausted)
}
