// Package airlink wires the telemetry endpoint layer together: it turns a
// configuration and a device registry into a running set of MAVLink
// endpoints and routes traffic between them.
//
// The heavy lifting lives in the subpackages:
//
//   - mavlink: the transport-agnostic endpoint abstraction (stateful frame
//     parsing, liveness, counters, channel allocation).
//   - transport: concrete UDP/TCP/serial bindings plus link encryption.
//   - discovery: connection watchers and the external device registry.
//   - config: YAML configuration.
//   - status: read-only JSON diagnostics API.
//
// A Hub builds one endpoint per configured block, subscribes to the device
// registry so externally discovered devices (an Ethernet ground station, a
// tethered phone) get endpoints too, and fans every decoded message out to
// all other endpoints.
//
//	cfg, err := config.Load("airlink.yaml")
//	hub, err := airlink.NewHub(cfg)
//	defer hub.Close()
package airlink
