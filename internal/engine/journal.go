package engine

import (
	"context"

	"github.com/roach88/patchwork/internal/unit"
)

// Journal receives one entry per patch state transition.
// Implemented by store.Store.
type Journal interface {
	Append(ctx context.Context, entry unit.JournalEntry) error
}

// record stamps and appends a journal entry. Journal failures are logged and
// never undo the transition they describe.
func (e *Engine) record(ctx context.Context, entry unit.JournalEntry) {
	entry.Seq = e.clock.Next()
	entry.Session = e.session
	if e.journal == nil {
		return
	}
	if err := e.journal.Append(ctx, entry); err != nil {
		e.logger.Error("journal write failed",
			"seq", entry.Seq,
			"op", entry.Op,
			"extension", entry.Extension,
			"target", entry.Target,
			"error", err,
		)
	}
}
