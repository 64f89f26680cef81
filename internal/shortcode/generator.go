// Package shortcode generates random short codes and validates
// user-requested aliases.
package shortcode

import (
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// DefaultAlphabet is the 36-symbol charset of generated codes.
	DefaultAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultLength is the length of generated codes.
	DefaultLength = 6
	// MaxLength is the upper bound of any short code, generated or aliased.
	MaxLength = 20
)

// ErrInvalidLength is returned when a non-positive code length is requested.
var ErrInvalidLength = errors.New("short code length must be positive")

// Generator produces short codes drawn uniformly from a fixed alphabet
// using a cryptographically secure source.
type Generator struct {
	alphabet string
}

// NewGenerator returns a Generator over alphabet, or over DefaultAlphabet when it is empty.
func NewGenerator(alphabet string) *Generator {
	if alphabet == "" {
		alphabet = DefaultAlphabet
	}
	return &Generator{alphabet: alphabet}
}

// Generate returns a random code of exactly length symbols.
func (g *Generator) Generate(length int) (string, error) {
	const op = "shortcode.Generator.Generate"

	if length <= 0 || length > MaxLength {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidLength)
	}

	code, err := gonanoid.Generate(g.alphabet, length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
	}

	return code, nil
}

// Alphabet returns the charset codes are drawn from.
func (g *Generator) Alphabet() string {
	return g.alphabet
}
