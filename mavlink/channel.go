package mavlink

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// MaxChannels is the number of parser channels available per process.
// The MAVLink channel field is a single byte, so ids above 255 cannot
// be represented on the wire.
const MaxChannels = 256

// ErrChannelsExhausted is returned by Checkout when every channel id has
// already been issued. Ids are never recycled, so this is permanent for
// the life of the allocator.
var ErrChannelsExhausted = errors.New("mavlink: all channel ids exhausted")

// ChannelAllocator issues process-unique channel ids that key per-endpoint
// decoder state. Construct one at process start and pass it to every
// endpoint constructor; ids are monotonically increasing and never reused.
type ChannelAllocator struct {
	mu   sync.Mutex
	next int
}

// NewChannelAllocator creates an allocator whose first issued id is 0.
func NewChannelAllocator() *ChannelAllocator {
	return &ChannelAllocator{}
}

// Checkout issues the next free channel id. It fails explicitly once
// MaxChannels ids have been handed out; it never wraps around.
func (a *ChannelAllocator) Checkout() (uint8, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.next >= MaxChannels {
		logrus.WithFields(logrus.Fields{
			"component": "ChannelAllocator",
			"issued":    a.next,
		}).Error("Channel id space exhausted")
		return 0, ErrChannelsExhausted
	}

	id := uint8(a.next)
	a.next++
	return id, nil
}

// Issued returns how many channel ids have been handed out so far.
func (a *ChannelAllocator) Issued() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}
