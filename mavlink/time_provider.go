package mavlink

import "time"

// TimeProvider is an interface for getting the current time.
// This allows injecting a mock time provider for deterministic testing.
type TimeProvider interface {
	// Now returns the current time.
	Now() time.Time
}

// RealTimeProvider implements TimeProvider using the actual system time.
type RealTimeProvider struct{}

// Now returns the current system time.
func (RealTimeProvider) Now() time.Time {
	return time.Now()
}

// defaultTimeProvider is the package-level default time provider.
var defaultTimeProvider TimeProvider = RealTimeProvider{}

// getTimeProvider returns the provided TimeProvider if non-nil,
// otherwise returns the package-level default.
func getTimeProvider(tp TimeProvider) TimeProvider {
	if tp != nil {
		return tp
	}
	return defaultTimeProvider
}
