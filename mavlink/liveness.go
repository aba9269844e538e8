package mavlink

import (
	"sync/atomic"
	"time"
)

// DefaultLivenessWindow is how recently a message must have been decoded for
// an endpoint to count as alive. MAVLink components send heartbeats at 1 Hz,
// so three seconds tolerates two dropped heartbeats before the verdict flips.
const DefaultLivenessWindow = 3 * time.Second

// LivenessTracker derives an alive/dead verdict from the timestamp of the
// most recently decoded message. An endpoint that has never received
// anything is never alive.
type LivenessTracker struct {
	window time.Duration
	tp     TimeProvider

	// Unix nanoseconds of the last decoded message, 0 meaning never.
	last atomic.Int64
}

// NewLivenessTracker creates a tracker with the given window. A window of 0
// selects DefaultLivenessWindow. tp may be nil to use the system clock.
func NewLivenessTracker(window time.Duration, tp TimeProvider) *LivenessTracker {
	if window <= 0 {
		window = DefaultLivenessWindow
	}
	return &LivenessTracker{
		window: window,
		tp:     getTimeProvider(tp),
	}
}

// Touch records that a message was decoded now. The stored timestamp never
// moves backward, even if clocks misbehave or Touch races with itself.
func (l *LivenessTracker) Touch() {
	now := l.tp.Now().UnixNano()
	for {
		prev := l.last.Load()
		if prev >= now {
			return
		}
		if l.last.CompareAndSwap(prev, now) {
			return
		}
	}
}

// Alive reports whether a message was decoded within the liveness window.
func (l *LivenessTracker) Alive() bool {
	last := l.last.Load()
	if last == 0 {
		return false
	}
	return l.tp.Now().UnixNano()-last < int64(l.window)
}

// Last returns the time of the most recent decode, or the zero time if no
// message has ever been decoded.
func (l *LivenessTracker) Last() time.Time {
	last := l.last.Load()
	if last == 0 {
		return time.Time{}
	}
	return time.Unix(0, last)
}
