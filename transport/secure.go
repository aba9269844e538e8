package transport

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/nacl/secretbox"
)

// nonceSize is the NaCl secretbox nonce length prefixed to every sealed
// datagram.
const nonceSize = 24

// ErrSealFailed is returned by a secure Writer when the random nonce cannot
// be generated.
var ErrSealFailed = errors.New("transport: failed to seal frame")

// SecureLink applies per-datagram authenticated encryption under a
// pre-shared 32-byte link key. Each frame is sealed independently with a
// random nonce, so a lossy or reordering medium needs no session state and
// a lost datagram costs nothing. Inbound datagrams failing authentication
// are dropped silently, consistent with the endpoint layer's
// "silently absent" failure semantics.
type SecureLink struct {
	key  [32]byte
	next Sink
}

// NewSecureLink creates a link that forwards decrypted plaintext to next.
func NewSecureLink(key [32]byte, next Sink) *SecureLink {
	return &SecureLink{key: key, next: next}
}

// Sink decrypts one inbound datagram and forwards the plaintext. Hand this
// to the underlying binding as its Sink.
func (s *SecureLink) Sink(p []byte) {
	if len(p) < nonceSize+secretbox.Overhead {
		logrus.WithFields(logrus.Fields{
			"component": "SecureLink",
			"size":      len(p),
		}).Debug("Dropped short datagram")
		return
	}

	var nonce [nonceSize]byte
	copy(nonce[:], p[:nonceSize])

	plaintext, ok := secretbox.Open(nil, p[nonceSize:], &nonce, &s.key)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"component": "SecureLink",
		}).Debug("Dropped datagram failing authentication")
		return
	}
	s.next(plaintext)
}

// Writer wraps the underlying binding's writer so every outgoing frame is
// sealed before it touches the medium.
func (s *SecureLink) Writer(inner Binding) Binding {
	return &sealWriter{link: s, inner: inner}
}

type sealWriter struct {
	link  *SecureLink
	inner Binding
}

func (w *sealWriter) Write(p []byte) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return ErrSealFailed
	}
	sealed := secretbox.Seal(nonce[:], p, &nonce, &w.link.key)
	return w.inner.Write(sealed)
}

func (w *sealWriter) Close() error {
	return w.inner.Close()
}
