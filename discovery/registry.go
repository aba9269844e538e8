package discovery

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// DeviceCallback is notified of registry changes. added is true for a new
// registration, false for a removal.
type DeviceCallback func(d Device, added bool)

// Registry is the default DeviceManager: a concurrent, de-duplicating set of
// discovered devices with snapshot and subscription access.
type Registry struct {
	mu      sync.Mutex
	devices map[string]Device
	subs    []DeviceCallback
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]Device),
	}
}

// Register adds a device. Registering an already-known device is a no-op,
// so listeners may probe-and-register redundantly without side effects.
func (r *Registry) Register(d Device) {
	r.mu.Lock()
	if _, known := r.devices[d.Key()]; known {
		r.mu.Unlock()
		return
	}
	r.devices[d.Key()] = d
	subs := append([]DeviceCallback(nil), r.subs...)
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"component": "Registry",
		"device":    d.Key(),
	}).Info("Registered external device")

	for _, cb := range subs {
		cb(d, true)
	}
}

// Unregister removes a device. Unknown devices are ignored.
func (r *Registry) Unregister(d Device) {
	r.mu.Lock()
	if _, known := r.devices[d.Key()]; !known {
		r.mu.Unlock()
		return
	}
	delete(r.devices, d.Key())
	subs := append([]DeviceCallback(nil), r.subs...)
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"component": "Registry",
		"device":    d.Key(),
	}).Info("Unregistered external device")

	for _, cb := range subs {
		cb(d, false)
	}
}

// Devices returns a snapshot of the currently registered devices.
func (r *Registry) Devices() []Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out
}

// Subscribe installs a callback for future changes and replays the devices
// already registered, so late subscribers miss nothing.
func (r *Registry) Subscribe(cb DeviceCallback) {
	r.mu.Lock()
	r.subs = append(r.subs, cb)
	existing := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		existing = append(existing, d)
	}
	r.mu.Unlock()

	for _, d := range existing {
		cb(d, true)
	}
}
