package mavlink

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialect"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/frame"
	"github.com/sirupsen/logrus"
)

// Writer delivers one serialized frame to the underlying medium.
// Transport bindings implement only this method from the endpoint's point of
// view; connection lifecycle (dialing, reconnecting, reopening a serial
// port) is entirely the binding's own responsibility. A write error is the
// normal "medium is currently down" signal, not an exceptional condition.
type Writer interface {
	Write(p []byte) error
}

const (
	// DefaultSystemID is used for locally originated frames when the
	// endpoint is not configured otherwise.
	DefaultSystemID = 1
	// DefaultComponentID is used for locally originated frames when the
	// endpoint is not configured otherwise.
	DefaultComponentID = 1
)

// EndpointOptions configures optional endpoint behavior.
type EndpointOptions struct {
	// SystemID stamps outgoing frames. 0 selects DefaultSystemID.
	SystemID byte
	// ComponentID stamps outgoing frames. 0 selects DefaultComponentID.
	ComponentID byte
	// LivenessWindow overrides DefaultLivenessWindow when positive.
	LivenessWindow time.Duration
	// TimeProvider overrides the system clock, for deterministic tests.
	TimeProvider TimeProvider
}

// Info is a read-only snapshot of an endpoint's identity and counters,
// for diagnostics.
type Info struct {
	Tag         string    `json:"tag"`
	Channel     uint8     `json:"channel"`
	Received    uint64    `json:"received"`
	Sent        uint64    `json:"sent"`
	SendFailed  uint64    `json:"send_failed"`
	Alive       bool      `json:"alive"`
	LastMessage time.Time `json:"last_message,omitempty"`
}

func (i Info) String() string {
	return fmt.Sprintf("%s[ch %d] alive=%v rx=%d tx=%d tx_failed=%d",
		i.Tag, i.Channel, i.Alive, i.Received, i.Sent, i.SendFailed)
}

// Endpoint presents one uniform interface over any transport. It absorbs
// transport failures so callers never observe errors or panics from Send,
// and provides a recency-based liveness verdict usable by higher layers for
// failover decisions.
type Endpoint struct {
	// Tag identifies this endpoint in logs and diagnostics. Immutable.
	Tag string

	channel  uint8
	parser   *Parser
	liveness *LivenessTracker
	writer   Writer

	received   atomic.Uint64
	sent       atomic.Uint64
	sendFailed atomic.Uint64

	// Single callback slot, last registration wins.
	cbMu     sync.RWMutex
	callback MessageCallback

	// Serializes frame encoding so sequence numbers and buffer reuse stay
	// consistent under concurrent Send calls.
	sendMu      sync.Mutex
	sendBuf     bytes.Buffer
	frameWriter *frame.Writer
}

// NewEndpoint creates an endpoint with default options. The allocator issues
// the endpoint's channel id; construction fails only when the channel space
// is exhausted or the codec cannot be initialized.
func NewEndpoint(tag string, alloc *ChannelAllocator, w Writer) (*Endpoint, error) {
	return NewEndpointWithOptions(tag, alloc, w, EndpointOptions{})
}

// NewEndpointWithOptions creates an endpoint with explicit options.
func NewEndpointWithOptions(tag string, alloc *ChannelAllocator, w Writer, opts EndpointOptions) (*Endpoint, error) {
	channel, err := alloc.Checkout()
	if err != nil {
		return nil, err
	}

	parser, err := NewParser(channel)
	if err != nil {
		return nil, err
	}

	systemID := opts.SystemID
	if systemID == 0 {
		systemID = DefaultSystemID
	}
	componentID := opts.ComponentID
	if componentID == 0 {
		componentID = DefaultComponentID
	}

	e := &Endpoint{
		Tag:      tag,
		channel:  channel,
		parser:   parser,
		liveness: NewLivenessTracker(opts.LivenessWindow, opts.TimeProvider),
		writer:   w,
	}

	dialectRW := &dialect.ReadWriter{Dialect: common.Dialect}
	if err := dialectRW.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize dialect: %w", err)
	}
	e.frameWriter = &frame.Writer{
		ByteWriter:     &e.sendBuf,
		DialectRW:      dialectRW,
		OutVersion:     frame.V2,
		OutSystemID:    systemID,
		OutComponentID: componentID,
	}
	if err := e.frameWriter.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize frame writer: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"component": "Endpoint",
		"tag":       tag,
		"channel":   channel,
	}).Info("Created endpoint")

	return e, nil
}

// Send serializes the message and hands the bytes to the transport binding.
// It never fails: a write error increments the failed counter and is
// otherwise invisible, because a currently-down medium is an expected
// condition representable purely through counters and IsAlive.
func (e *Endpoint) Send(msg *Message) {
	if msg == nil || msg.Payload == nil {
		e.sendFailed.Add(1)
		return
	}

	e.sendMu.Lock()
	e.sendBuf.Reset()
	err := e.frameWriter.WriteMessage(msg.Payload)
	data := append([]byte(nil), e.sendBuf.Bytes()...)
	e.sendMu.Unlock()

	if err != nil {
		e.sendFailed.Add(1)
		logrus.WithFields(logrus.Fields{
			"component": "Endpoint",
			"tag":       e.Tag,
			"msg_id":    msg.ID(),
			"error":     err.Error(),
		}).Debug("Failed to encode message")
		return
	}

	if err := e.writer.Write(data); err != nil {
		e.sendFailed.Add(1)
		logrus.WithFields(logrus.Fields{
			"component": "Endpoint",
			"tag":       e.Tag,
			"msg_id":    msg.ID(),
			"error":     err.Error(),
		}).Debug("Transport write failed")
		return
	}

	e.sent.Add(1)
}

// SendBatch sends the messages in order. A failed send does not abort the
// remaining messages.
func (e *Endpoint) SendBatch(msgs []*Message) {
	for _, msg := range msgs {
		e.Send(msg)
	}
}

// RegisterCallback installs the single callback slot, replacing any previous
// registration.
func (e *Endpoint) RegisterCallback(cb MessageCallback) {
	e.cbMu.Lock()
	e.callback = cb
	e.cbMu.Unlock()
}

// IsAlive reports whether at least one message has ever been decoded on this
// endpoint and the most recent one is within the liveness window.
func (e *Endpoint) IsAlive() bool {
	return e.liveness.Alive()
}

// Describe returns a read-only snapshot of the endpoint's identity and
// counters. It has no side effects.
func (e *Endpoint) Describe() Info {
	return Info{
		Tag:         e.Tag,
		Channel:     e.channel,
		Received:    e.received.Load(),
		Sent:        e.sent.Load(),
		SendFailed:  e.sendFailed.Load(),
		Alive:       e.liveness.Alive(),
		LastMessage: e.liveness.Last(),
	}
}

// Feed pushes newly arrived bytes through the channel-scoped decoder. Every
// fully decoded frame increments the received counter, refreshes liveness,
// then invokes the callback synchronously if one is registered; with no
// callback the message is counted and dropped.
//
// Feed is not safe for concurrent use on the same endpoint: the transport
// binding must deliver bytes from a single reader goroutine.
func (e *Endpoint) Feed(p []byte) {
	for _, msg := range e.parser.Push(p) {
		e.received.Add(1)
		e.liveness.Touch()

		e.cbMu.RLock()
		cb := e.callback
		e.cbMu.RUnlock()
		if cb != nil {
			e.invokeCallback(cb, msg)
		}
	}
}

// invokeCallback isolates a misbehaving subscriber: a panicking callback is
// logged and swallowed so it cannot crash the delivering goroutine or
// corrupt counters that were already incremented.
func (e *Endpoint) invokeCallback(cb MessageCallback, msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"component": "Endpoint",
				"tag":       e.Tag,
				"msg_id":    msg.ID(),
				"panic":     r,
			}).Error("Message callback panicked")
		}
	}()
	cb(msg)
}
