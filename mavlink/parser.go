package mavlink

import (
	"bytes"
	"fmt"

	"github.com/bluenviron/gomavlib/v3/pkg/dialect"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/frame"
	"github.com/sirupsen/logrus"
)

const (
	magicV1 = 0xFE
	magicV2 = 0xFD

	// Frame overhead in bytes, excluding payload and the optional
	// 13-byte v2 signature.
	v1Overhead = 8
	v2Overhead = 12
	v2SigLen   = 13

	// v2 incompatibility flag bit indicating a signed frame.
	v2FlagSigned = 0x01
)

// Parser reassembles MAVLink frames from an arbitrarily chunked byte stream.
// It is channel-scoped: one Parser per endpoint, advanced by a single caller
// at a time. Partial frames are buffered across Push calls and garbage bytes
// are skipped silently, so a corrupted stream only ever costs the frames it
// actually destroyed.
//
// The parser does not implement the wire codec itself. It scans for frame
// boundaries and hands each complete candidate to gomavlib's frame reader,
// which performs checksum validation and message decoding against the common
// dialect. Frames whose message id is unknown to the dialect are passed
// through as raw messages, matching the codec's own behavior.
type Parser struct {
	channel uint8
	buf     []byte
	br      *bytes.Reader
	reader  *frame.Reader
}

// NewParser creates a parser for the given channel id.
func NewParser(channel uint8) (*Parser, error) {
	dialectRW := &dialect.ReadWriter{Dialect: common.Dialect}
	if err := dialectRW.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize dialect: %w", err)
	}

	br := bytes.NewReader(nil)
	reader := &frame.Reader{
		ByteReader: br,
		DialectRW:  dialectRW,
	}
	if err := reader.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize frame reader: %w", err)
	}

	return &Parser{
		channel: channel,
		br:      br,
		reader:  reader,
	}, nil
}

// Push appends newly arrived bytes and returns every message that became
// fully decodable. Any chunking is tolerated, including byte-by-byte
// delivery. Not safe for concurrent use.
func (p *Parser) Push(data []byte) []*Message {
	p.buf = append(p.buf, data...)

	var out []*Message
	for {
		p.discardToMagic()

		need, ok := p.pendingFrameLen()
		if !ok || len(p.buf) < need {
			// Header or body still incomplete, wait for more bytes.
			return out
		}

		msg, ok := p.decodeCandidate(p.buf[:need])
		if !ok {
			// The candidate did not validate. Skip one byte and
			// rescan; the real frame may start inside it.
			p.buf = p.buf[1:]
			continue
		}

		p.buf = p.buf[need:]
		out = append(out, msg)
	}
}

// discardToMagic drops leading bytes that cannot start a frame.
func (p *Parser) discardToMagic() {
	i := 0
	for i < len(p.buf) && p.buf[i] != magicV1 && p.buf[i] != magicV2 {
		i++
	}
	if i > 0 {
		logrus.WithFields(logrus.Fields{
			"component": "Parser",
			"channel":   p.channel,
			"dropped":   i,
		}).Trace("Discarded bytes while resynchronizing")
		p.buf = p.buf[i:]
	}
}

// pendingFrameLen computes the full on-wire length of the frame candidate at
// the head of the buffer. ok is false while too few header bytes are present
// to know the length.
func (p *Parser) pendingFrameLen() (int, bool) {
	if len(p.buf) == 0 {
		return 0, false
	}
	switch p.buf[0] {
	case magicV2:
		if len(p.buf) < 3 {
			return 0, false
		}
		n := v2Overhead + int(p.buf[1])
		if p.buf[2]&v2FlagSigned != 0 {
			n += v2SigLen
		}
		return n, true
	case magicV1:
		if len(p.buf) < 2 {
			return 0, false
		}
		return v1Overhead + int(p.buf[1]), true
	}
	return 0, false
}

// decodeCandidate runs the codec over one complete frame candidate.
func (p *Parser) decodeCandidate(candidate []byte) (*Message, bool) {
	p.br.Reset(candidate)

	fr, err := p.reader.Read()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "Parser",
			"channel":   p.channel,
			"error":     err.Error(),
		}).Trace("Rejected frame candidate")
		return nil, false
	}

	return &Message{
		SystemID:    fr.GetSystemID(),
		ComponentID: fr.GetComponentID(),
		Payload:     fr.GetMessage(),
	}, true
}
