// Package transport provides the concrete byte-delivery bindings underlying
// airlink telemetry endpoints: UDP (client and server), TCP, serial/UART, and
// an encrypting wrapper for untrusted links.
//
// Every binding exposes the same narrow contract: Write delivers one
// serialized frame and returns an error while the medium is down, Close
// releases resources, and inbound bytes are handed to the Sink supplied at
// construction from exactly one reader goroutine per binding. That single
// reader preserves the endpoint's serialized-Feed contract.
//
// Bindings own their connection lifecycle entirely. A TCP binding keeps a
// background dial loop and reconnects silently; a serial binding reopens a
// disappearing port; during an outage Write simply fails and reads deliver
// nothing. The endpoint above never observes anything beyond write failures
// and the absence of traffic.
//
//	udp, err := transport.NewUDPBinding("10.0.0.2:14550", ep.Feed)
//	ep, err := mavlink.NewEndpoint("ground-udp", alloc, udp)
//
// For links crossing untrusted media, SecureLink wraps any binding with
// per-datagram authenticated encryption under a pre-shared 32-byte key:
//
//	sl := transport.NewSecureLink(key, ep.Feed)
//	udp, err := transport.NewUDPBinding(addr, sl.Sink)
//	ep, err := mavlink.NewEndpoint("ground-udp", alloc, sl.Writer(udp))
package transport
