package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/patchwork/internal/unit"
)

// MemJournal collects journal entries in memory. Set Err to make every
// Append fail.
type MemJournal struct {
	mu      sync.Mutex
	entries []unit.JournalEntry
	Err     error
}

// Append records entry, or returns j.Err when set.
func (j *MemJournal) Append(_ context.Context, entry unit.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Err != nil {
		return j.Err
	}
	j.entries = append(j.entries, entry)
	return nil
}

// Entries returns a copy of the recorded entries.
func (j *MemJournal) Entries() []unit.JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries)
}

// Ops returns the op of every recorded entry, in order.
func (j *MemJournal) Ops() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	ops := make([]string, len(j.entries))
	for i, e := range j.entries {
		ops[i] = e.Op
	}
	return ops
}
