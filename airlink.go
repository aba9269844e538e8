package airlink

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/peregrinehq/airlink/config"
	"github.com/peregrinehq/airlink/discovery"
	"github.com/peregrinehq/airlink/mavlink"
	"github.com/peregrinehq/airlink/transport"
)

// DefaultTelemetryPort is the conventional MAVLink ground-station UDP port,
// used when connecting to discovered external devices.
const DefaultTelemetryPort = 14550

// Hub owns the running telemetry stack: endpoints, their transport bindings,
// the device registry, and the connection listeners feeding it. Every
// message decoded on one endpoint is forwarded to all others, so a flight
// controller on a serial port and a ground station on UDP see each other
// without either knowing the other's transport.
type Hub struct {
	cfg      *config.Config
	alloc    *mavlink.ChannelAllocator
	registry *discovery.Registry

	mu        sync.Mutex
	closed    bool
	endpoints []*mavlink.Endpoint
	bindings  []transport.Binding
	listeners []*discovery.Listener
}

// NewHub constructs the stack from a validated configuration: one endpoint
// per configured block, one connection listener per listener block, and a
// registry subscription that creates endpoints for discovered devices.
func NewHub(cfg *config.Config) (*Hub, error) {
	h := &Hub{
		cfg:      cfg,
		alloc:    mavlink.NewChannelAllocator(),
		registry: discovery.NewRegistry(),
	}

	for _, ec := range cfg.Endpoints {
		if err := h.addConfiguredEndpoint(ec); err != nil {
			h.Close()
			return nil, fmt.Errorf("endpoint %q: %w", ec.Name, err)
		}
	}

	h.registry.Subscribe(h.onDevice)

	for _, lc := range cfg.Listeners {
		probe, err := buildProbe(lc)
		if err != nil {
			h.Close()
			return nil, err
		}
		h.listeners = append(h.listeners,
			discovery.NewListenerWithInterval(h.registry, probe, lc.PollInterval()))
	}

	return h, nil
}

// Registry returns the device registry, for wiring additional listeners or
// registering devices found by other means.
func (h *Hub) Registry() *discovery.Registry {
	return h.registry
}

// Endpoints returns a snapshot of every endpoint's diagnostics info.
func (h *Hub) Endpoints() []mavlink.Info {
	h.mu.Lock()
	eps := append([]*mavlink.Endpoint(nil), h.endpoints...)
	h.mu.Unlock()

	out := make([]mavlink.Info, 0, len(eps))
	for _, ep := range eps {
		out = append(out, ep.Describe())
	}
	return out
}

// Close stops listeners first so no new endpoints appear, then closes every
// transport binding. Safe to call more than once.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	listeners := h.listeners
	bindings := h.bindings
	h.mu.Unlock()

	for _, l := range listeners {
		l.Close()
	}
	for _, b := range bindings {
		_ = b.Close()
	}
	return nil
}

// feedProxy breaks the construction cycle between a binding (which needs a
// sink) and an endpoint (which needs the binding as its writer). Bytes that
// arrive before the endpoint is bound are dropped.
type feedProxy struct {
	mu sync.RWMutex
	ep *mavlink.Endpoint
}

func (f *feedProxy) sink(p []byte) {
	f.mu.RLock()
	ep := f.ep
	f.mu.RUnlock()
	if ep != nil {
		ep.Feed(p)
	}
}

func (f *feedProxy) bind(ep *mavlink.Endpoint) {
	f.mu.Lock()
	f.ep = ep
	f.mu.Unlock()
}

func (h *Hub) addConfiguredEndpoint(ec config.EndpointConfig) error {
	proxy := &feedProxy{}
	sink := transport.Sink(proxy.sink)

	var secure *transport.SecureLink
	if key, ok := ec.Key(); ok {
		secure = transport.NewSecureLink(key, sink)
		sink = secure.Sink
	}

	binding, err := buildBinding(ec, sink)
	if err != nil {
		return err
	}

	writer := binding
	if secure != nil {
		writer = secure.Writer(binding)
	}

	_, err = h.addEndpoint(ec.Name, binding, writer, proxy)
	return err
}

// addEndpoint constructs the endpoint, binds the proxy, and installs the
// routing callback.
func (h *Hub) addEndpoint(tag string, binding transport.Binding, writer mavlink.Writer, proxy *feedProxy) (*mavlink.Endpoint, error) {
	ep, err := mavlink.NewEndpointWithOptions(tag, h.alloc, writer, mavlink.EndpointOptions{
		SystemID:       h.cfg.Link.SystemID,
		ComponentID:    h.cfg.Link.ComponentID,
		LivenessWindow: h.cfg.Link.LivenessWindow(),
	})
	if err != nil {
		_ = binding.Close()
		return nil, err
	}
	proxy.bind(ep)
	ep.RegisterCallback(h.routeFrom(ep))

	h.mu.Lock()
	h.endpoints = append(h.endpoints, ep)
	h.bindings = append(h.bindings, binding)
	h.mu.Unlock()
	return ep, nil
}

// routeFrom fans a decoded message out to every endpoint except its origin.
func (h *Hub) routeFrom(src *mavlink.Endpoint) mavlink.MessageCallback {
	return func(msg *mavlink.Message) {
		h.mu.Lock()
		eps := append([]*mavlink.Endpoint(nil), h.endpoints...)
		h.mu.Unlock()

		for _, ep := range eps {
			if ep != src {
				ep.Send(msg)
			}
		}
	}
}

// onDevice reacts to registry changes by creating an endpoint for each newly
// discovered device. Removal keeps the endpoint: its transport binding keeps
// retrying on its own and its liveness decays naturally.
func (h *Hub) onDevice(d discovery.Device, added bool) {
	if !added {
		return
	}
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return
	}

	addr := net.JoinHostPort(d.Address, strconv.Itoa(DefaultTelemetryPort))
	proxy := &feedProxy{}
	binding, err := transport.NewUDPBinding(addr, proxy.sink)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "Hub",
			"device":    d.Key(),
			"error":     err.Error(),
		}).Warn("Failed to bind discovered device")
		return
	}

	if _, err := h.addEndpoint("ext-"+d.Key(), binding, binding, proxy); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "Hub",
			"device":    d.Key(),
			"error":     err.Error(),
		}).Warn("Failed to create endpoint for discovered device")
	}
}

func buildBinding(ec config.EndpointConfig, sink transport.Sink) (transport.Binding, error) {
	switch ec.Transport {
	case config.TransportUDP:
		return transport.NewUDPBinding(ec.Address, sink)
	case config.TransportUDPServer:
		return transport.NewUDPServerBinding(ec.Address, sink)
	case config.TransportTCP:
		return transport.NewTCPBinding(ec.Address, sink), nil
	case config.TransportSerial:
		return transport.NewSerialBinding(ec.Address, ec.BaudRate, sink), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", ec.Transport)
	}
}

func buildProbe(lc config.ListenerConfig) (discovery.Probe, error) {
	switch lc.Medium {
	case config.MediumEthernet:
		return discovery.EthernetProbe(lc.Interface), nil
	case config.MediumUSBTether:
		return discovery.USBTetherProbe(), nil
	default:
		return nil, fmt.Errorf("unknown listener medium %q", lc.Medium)
	}
}
