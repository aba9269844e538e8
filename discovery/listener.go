package discovery

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is how often a listener probes its medium. One second
// keeps discovery latency low while bounding shutdown latency, since Close
// joins the loop within one interval.
const DefaultPollInterval = 1 * time.Second

// Probe attempts to detect the medium once. It must be short-lived or
// internally timeout-bounded; there is no cancellation of an in-flight
// probe. ok is false when the medium is currently unreachable.
type Probe func() (d Device, ok bool)

// Listener watches one transport medium from a background goroutine and
// registers the discovered device with the device manager. The probe
// strategy is injected, so the same state machine serves Ethernet, USB
// tethering, or anything else.
type Listener struct {
	manager  DeviceManager
	probe    Probe
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewListener starts a listener with DefaultPollInterval.
func NewListener(manager DeviceManager, probe Probe) *Listener {
	return NewListenerWithInterval(manager, probe, DefaultPollInterval)
}

// NewListenerWithInterval starts a listener probing at the given interval.
// An interval of 0 or less selects DefaultPollInterval.
func NewListenerWithInterval(manager DeviceManager, probe Probe, interval time.Duration) *Listener {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{
		manager:  manager,
		probe:    probe,
		interval: interval,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go l.loop(ctx)
	return l
}

// Close stops the background loop and joins it before returning, so the
// device manager reference cannot dangle. Shutdown latency is bounded by
// the poll interval.
func (l *Listener) Close() {
	l.cancel()
	<-l.done
}

// loop sleeps one interval, probes once, repeats until cancelled. Probe
// failure is expected and retried indefinitely; nothing is surfaced.
func (l *Listener) loop(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	// Local latch avoiding redundant Register calls while the medium
	// stays up. Only touched by this goroutine.
	registered := false
	var current Device

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		d, ok := l.probe()
		if !ok {
			if registered {
				// Medium lost. No destructive action: keep the
				// registration and just resume probing.
				logrus.WithFields(logrus.Fields{
					"component": "Listener",
					"device":    current.Key(),
				}).Debug("Medium no longer reachable")
				registered = false
			}
			continue
		}

		if registered && d == current {
			continue
		}

		l.manager.Register(d)
		registered = true
		current = d
	}
}
