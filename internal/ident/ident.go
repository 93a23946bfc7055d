// Package ident provides item identifier generation as an injectable
// capability so tests can supply deterministic sequences.
package ident

import (
	"crypto/rand"
	"fmt"
)

const (
	idLength = 12
	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generator produces opaque item identifiers.
type Generator interface {
	Next() string
}

// Random generates 12-character alphanumeric identifiers from crypto/rand.
type Random struct{}

// NewRandom returns the default random generator.
func NewRandom() *Random { return &Random{} }

// Next returns a fresh identifier.
func (*Random) Next() string {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform entropy source is broken;
		// nothing sensible to fall back to.
		panic(fmt.Sprintf("ident: read random: %v", err))
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf)
}

// Sequence generates predictable identifiers (id000000001, id000000002, …)
// for reproducible test fixtures.
type Sequence struct {
	n int
}

// NewSequence returns a deterministic generator starting at 1.
func NewSequence() *Sequence { return &Sequence{} }

// Next returns the next identifier in the sequence.
func (s *Sequence) Next() string {
	s.n++
	return fmt.Sprintf("id%010d", s.n)
}
