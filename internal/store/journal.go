package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/patchwork/internal/unit"
)

// Append inserts a journal entry. Implements engine.Journal.
//
// Seq is the primary key: writing an existing seq is an error, since the
// logical clock never repeats.
func (s *Store) Append(ctx context.Context, e unit.JournalEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (seq, session, op, extension, target, package, depth)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		e.Seq,
		e.Session,
		e.Op,
		string(e.Extension),
		string(e.Target),
		string(e.Package),
		e.Depth,
	)
	if err != nil {
		return fmt.Errorf("append journal seq %d: %w", e.Seq, err)
	}
	return nil
}

// ReadJournal returns every entry ordered by seq.
//
// Returns an empty slice (not nil) for an empty journal.
func (s *Store) ReadJournal(ctx context.Context) ([]unit.JournalEntry, error) {
	return s.query(ctx, `
		SELECT seq, session, op, extension, target, package, depth
		FROM journal
		ORDER BY seq ASC
	`)
}

// ReadSession returns the entries of one top-level operation ordered by seq.
func (s *Store) ReadSession(ctx context.Context, session string) ([]unit.JournalEntry, error) {
	return s.query(ctx, `
		SELECT seq, session, op, extension, target, package, depth
		FROM journal
		WHERE session = ?
		ORDER BY seq ASC
	`, session)
}

// ReadTarget returns the entries that touched target ordered by seq.
func (s *Store) ReadTarget(ctx context.Context, target unit.Path) ([]unit.JournalEntry, error) {
	return s.query(ctx, `
		SELECT seq, session, op, extension, target, package, depth
		FROM journal
		WHERE target = ?
		ORDER BY seq ASC
	`, string(target))
}

// Sessions returns distinct session tokens in order of their first entry.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session
		FROM journal
		GROUP BY session
		ORDER BY MIN(seq) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var session string
		if err := rows.Scan(&session); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LastSeq returns the highest seq in the journal, or 0 when it is empty.
// Pass it to engine.NewClockAt to continue numbering.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM journal`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]unit.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []unit.JournalEntry{}
	for rows.Next() {
		var (
			e                        unit.JournalEntry
			extension, target, pkgID string
		)
		if err := rows.Scan(&e.Seq, &e.Session, &e.Op, &extension, &target, &pkgID, &e.Depth); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Extension = unit.Path(extension)
		e.Target = unit.Path(target)
		e.Package = unit.PackageID(pkgID)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}

	return entries, nil
}
