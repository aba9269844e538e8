package mavlink

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockTimeProvider is a controllable clock for deterministic liveness tests.
type mockTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

func newMockTimeProvider() *mockTimeProvider {
	return &mockTimeProvider{now: time.Unix(1000000, 0)}
}

func (m *mockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *mockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func TestLivenessTracker_NeverTouchedIsNotAlive(t *testing.T) {
	l := NewLivenessTracker(DefaultLivenessWindow, newMockTimeProvider())

	assert.False(t, l.Alive())
	assert.True(t, l.Last().IsZero())
}

func TestLivenessTracker_TransitionsToDeadAfterWindow(t *testing.T) {
	tp := newMockTimeProvider()
	l := NewLivenessTracker(3*time.Second, tp)

	l.Touch()
	assert.True(t, l.Alive())

	tp.Advance(2 * time.Second)
	assert.True(t, l.Alive(), "still within the window")

	tp.Advance(2 * time.Second)
	assert.False(t, l.Alive(), "no traffic for longer than the window")
}

func TestLivenessTracker_TouchNeverMovesBackward(t *testing.T) {
	tp := newMockTimeProvider()
	l := NewLivenessTracker(3*time.Second, tp)

	tp.Advance(10 * time.Second)
	l.Touch()
	last := l.Last()

	// A clock that steps backward must not rewind the timestamp.
	tp.mu.Lock()
	tp.now = tp.now.Add(-5 * time.Second)
	tp.mu.Unlock()
	l.Touch()

	assert.Equal(t, last, l.Last())
}

func TestLivenessTracker_DefaultWindow(t *testing.T) {
	l := NewLivenessTracker(0, nil)
	assert.Equal(t, DefaultLivenessWindow, l.window)
}
