// Package shortcode generates random short codes for links.
//
// Codes are drawn uniformly from a 62-character alphanumeric alphabet with
// math/rand. They are identifiers, not secrets: the only risk of a weak
// source is a collision, which the allocator retries and the storage
// uniqueness constraint settles.
package shortcode

import (
	"math/rand/v2"
)

const (
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length   = 6
)

// Generator produces candidate short codes.
type Generator interface {
	NewCode() string
}

type randomGenerator struct {
	length int
}

// NewRandom returns a Generator of fixed-length alphanumeric codes.
// A non-positive length falls back to Length.
func NewRandom(length int) Generator {
	if length <= 0 {
		length = Length
	}
	return &randomGenerator{length: length}
}

func (g *randomGenerator) NewCode() string {
	b := make([]byte, g.length)
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return string(b)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func() string

func (f GeneratorFunc) NewCode() string { return f() }
