package discovery

import "fmt"

// DeviceKind identifies the transport medium a device was discovered on.
type DeviceKind string

const (
	DeviceEthernet  DeviceKind = "ethernet"
	DeviceUSBTether DeviceKind = "usb-tether"
	DeviceSerial    DeviceKind = "serial"
)

// Device describes one discovered external transport endpoint. It is an
// opaque descriptor from the endpoint layer's point of view: the upstream
// code decides which binding to construct for it.
type Device struct {
	// Kind is the medium the device was found on.
	Kind DeviceKind
	// Name is the local interface or port the device sits behind.
	Name string
	// Address is how to reach the device (an IP address for network
	// media, a device path for serial).
	Address string
}

// Key returns the identity under which the registry de-duplicates.
func (d Device) Key() string {
	return fmt.Sprintf("%s/%s/%s", d.Kind, d.Name, d.Address)
}

func (d Device) String() string {
	return d.Key()
}

// DeviceManager is the registry contract listeners report to. Both methods
// must be safe to call concurrently from multiple listener goroutines, and
// Register must tolerate duplicates.
type DeviceManager interface {
	Register(d Device)
	Unregister(d Device)
}
