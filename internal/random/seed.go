// Package random provides the seeded random source every game system draws
// from, plus the small probability helpers the rules are written in.
//
// A game seeded with the same value replays identically as long as callers
// draw in the same order, which is what the damage and level tests rely on.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
