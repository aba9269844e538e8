// Package mavlink implements the transport-agnostic telemetry endpoint layer
// of the airlink stack.
//
// An Endpoint hides away the underlying connection (UART, TCP, UDP, a tethered
// device) behind a uniform send/receive surface. It must also hide away any
// problem that can exist on that connection: a disconnecting serial adapter or
// an unreachable ground station is a normal condition, observable only through
// the endpoint's counters and liveness verdict, never through an error or a
// panic. This "send and receive when possible, otherwise do nothing" behavior
// matches the MAVLink heartbeat paradigm, where a component is connected if
// its messages keep arriving and silently absent otherwise.
//
// # Architecture
//
// The package is built from small, independently testable pieces:
//
//   - ChannelAllocator issues the unique channel id that keys each endpoint's
//     private decoder state.
//   - LivenessTracker derives an alive/dead verdict from the time of the most
//     recently decoded message.
//   - Parser reassembles MAVLink frames from an arbitrarily chunked byte
//     stream, delegating checksum validation and message decoding to the
//     gomavlib codec.
//   - Endpoint ties the above together with atomic traffic counters, a single
//     callback slot, and a Writer that delivers serialized frames to the
//     concrete transport.
//
// # Usage
//
//	alloc := mavlink.NewChannelAllocator()
//	ep, err := mavlink.NewEndpoint("fc-serial", alloc, binding)
//	if err != nil {
//	    // channel space exhausted
//	}
//	ep.RegisterCallback(func(msg *mavlink.Message) {
//	    // called synchronously for every fully decoded frame
//	})
//
// The transport binding pushes raw bytes into ep.Feed from its single reader
// goroutine; application threads call ep.Send concurrently.
//
// # Concurrency
//
// Send, SendBatch, IsAlive and Describe are safe for concurrent use. Feed is
// not: the decoder holds sequential parse state, and serialized delivery (one
// reader per connection) is a contract on the transport binding. The callback
// runs synchronously on the delivering goroutine and must return promptly; a
// slow callback stalls decoding on that channel.
package mavlink
