// Package gameid generates session identifiers: a "game_" prefix followed by
// a UUIDv7 in 26 characters of Crockford base32, so IDs sort by creation time.
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/coder/quartz"
)

// Prefix starts every session ID.
const Prefix = "game_"

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

const encodedLen = 26

// RandSource interface for dependency injection of randomness. A
// *math/rand/v2.Rand satisfies it.
type RandSource interface {
	IntN(n int) int
}

// Generator creates session IDs from a clock and a source of randomness.
type Generator struct {
	clock      quartz.Clock
	randSource RandSource
}

// NewGenerator creates a generator. A nil clock uses the real clock; a nil
// RandSource uses crypto/rand.
func NewGenerator(clock quartz.Clock, randSource RandSource) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Generator{clock: clock, randSource: randSource}
}

// Generate creates a session ID with the real clock and crypto/rand.
func Generate() string {
	return NewGenerator(nil, nil).Generate()
}

// Generate creates a new session ID.
func (g *Generator) Generate() string {
	id := g.uuidV7()
	return Prefix + encode(id)
}

// uuidV7 lays out a 48-bit millisecond timestamp, the version and variant
// bits, and 74 random bits.
func (g *Generator) uuidV7() [16]byte {
	var id [16]byte

	ms := g.clock.Now().UnixMilli()
	for i := 0; i < 6; i++ {
		id[i] = byte(ms >> (40 - 8*i))
	}

	if g.randSource != nil {
		for i := 6; i < 16; i++ {
			id[i] = byte(g.randSource.IntN(256))
		}
	} else if _, err := rand.Read(id[6:]); err != nil {
		panic("gameid: reading random bytes: " + err.Error())
	}

	id[6] = (id[6] & 0x0f) | 0x70
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

// encode writes 128 bits as 26 base32 digits, most significant first. The
// first digit only carries the top three bits.
func encode(data [16]byte) string {
	out := make([]byte, encodedLen)
	var acc uint32
	bits := 2 // pad to 130 bits so the stream splits evenly into 5-bit groups
	pos := 0
	for _, b := range data {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = alphabet[(acc>>bits)&0x1f]
			pos++
		}
	}
	return string(out)
}

// Validate checks that id has the session prefix and a well-formed body.
func Validate(id string) error {
	body, ok := strings.CutPrefix(id, Prefix)
	if !ok {
		return fmt.Errorf("game ID must start with %q", Prefix)
	}
	if len(body) != encodedLen {
		return fmt.Errorf("game ID body must be exactly %d characters, got %d", encodedLen, len(body))
	}
	if body[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", body[0])
	}
	for i, c := range body {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
