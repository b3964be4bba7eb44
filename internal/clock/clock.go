// Package clock provides the wall-clock and nonce-generation primitives
// consumed throughout the Validator and Sync engine (spec §4.7).
package clock

import (
	"crypto/rand"
	"time"
)

// Source abstracts wall-clock seconds so tests can substitute a fixed
// clock instead of depending on time.Now() directly.
type Source interface {
	Now() int64
}

// Real is the production Source, backed by time.Now().
type Real struct{}

// Now returns the current wall-clock time in seconds.
func (Real) Now() int64 { return time.Now().Unix() }

// Fixed is a Source that always returns the same instant, for tests.
type Fixed int64

// Now returns the fixed instant.
func (f Fixed) Now() int64 { return int64(f) }

const nonceAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NonceLen is the length of generated server nonces; within the spec's
// required 16-40 character range.
const NonceLen = 20

// GenerateNonce returns a cryptographically random alphanumeric string
// suitable for use as a server_nonce or, when a client omits its own
// nonce, as a stand-in client nonce (spec Open Question: the conflation is
// intentional).
func GenerateNonce() (string, error) {
	b := make([]byte, NonceLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, NonceLen)
	for i, v := range b {
		out[i] = nonceAlphabet[int(v)%len(nonceAlphabet)]
	}
	return string(out), nil
}
