// Package discovery implements the connection-watcher pattern: background
// listeners that repeatedly probe for an external transport medium (a
// physical Ethernet link, a USB-tethered phone) and register discovered
// devices with a shared device manager.
//
// A Listener runs one goroutine that probes at a fixed interval, forever.
// Probe failure is not an error, only the absence of registration; there is
// no backoff and nothing is surfaced. On success the device is registered
// once; on loss the listener takes no destructive action and simply resumes
// probing. Shutdown is cooperative and bounded: Close cancels the loop and
// joins the goroutine before returning.
//
//	registry := discovery.NewRegistry()
//	eth := discovery.NewListener(registry, discovery.EthernetProbe("eth0"))
//	defer eth.Close()
//
//	registry.Subscribe(func(d discovery.Device, added bool) {
//	    // construct an endpoint bound to a transport for d
//	})
//
// The Registry is the default DeviceManager: a concurrent, de-duplicating
// device set with snapshot and subscription access for the upstream code
// that turns devices into endpoints.
package discovery
