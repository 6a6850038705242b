package engine

import (
	"sync"

	"github.com/google/uuid"
)

// SessionGenerator generates the token shared by every journal entry of one
// top-level operation (a HandleAll, an Apply, a RemoveOne with its replays).
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type SessionGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session tokens.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined session tokens for testing.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
//
// Example:
//
//	gen := NewFixedGenerator("s-1", "s-2")
//	gen.Generate() // "s-1"
//	gen.Generate() // "s-2"
//	gen.Generate() // panic: all tokens exhausted
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
//
// Panics if all tokens have been consumed, so a test that opens more
// sessions than it planned for fails loudly.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
