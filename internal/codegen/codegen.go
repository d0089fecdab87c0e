// Package codegen produces human-typable pairing codes.
//
// Codes are drawn from a 32-symbol alphabet without the look-alikes I, O, 0
// and 1, so a 6-symbol code carries 30 bits from crypto/rand. The generator
// knows nothing about uniqueness: callers run Assign against a store whose
// unique index decides the winner.
package codegen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	Length   = 6

	// TempPrefix keeps one-time codes (7 chars) disjoint from permanent codes (6 chars).
	TempPrefix = "T"

	DefaultMaxAttempts = 10
)

var (
	ErrCollision = errors.New("codegen: code already taken")
	ErrExhausted = errors.New("codegen: no free code after max attempts")

	permanentPattern = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{6}$`)
	tempPattern      = regexp.MustCompile(`^T[A-HJ-NP-Z2-9]{6}$`)
)

type Generator interface {
	Generate(prefix string) (string, error)
}

type randomGenerator struct {
	source io.Reader
	length int
}

func New() Generator {
	return &randomGenerator{source: rand.Reader, length: Length}
}

// NewWithSource is meant for tests that need a deterministic byte stream.
func NewWithSource(source io.Reader) Generator {
	return &randomGenerator{source: source, length: Length}
}

func (g *randomGenerator) Generate(prefix string) (string, error) {
	buf := make([]byte, g.length)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", fmt.Errorf("codegen: read random: %w", err)
	}

	var sb strings.Builder
	sb.Grow(len(prefix) + g.length)
	sb.WriteString(prefix)
	for _, b := range buf {
		// 256 is a multiple of 32, so the modulo is unbiased.
		sb.WriteByte(Alphabet[int(b)%len(Alphabet)])
	}
	return sb.String(), nil
}

// Assign keeps generating candidates until insert accepts one. insert must be
// a single conditional write and report a lost race with ErrCollision.
func Assign(gen Generator, prefix string, maxAttempts int, insert func(code string) error) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate, err := gen.Generate(prefix)
		if err != nil {
			return "", err
		}

		err = insert(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, ErrCollision) {
			return "", err
		}
	}

	return "", ErrExhausted
}

func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func IsPermanent(code string) bool {
	return permanentPattern.MatchString(code)
}

func IsTemp(code string) bool {
	return tempPattern.MatchString(code)
}
