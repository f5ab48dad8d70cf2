package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/cauldron/internal/engine"
)

// Append implements engine.Journal. Re-appending an existing seq is a no-op,
// so a crashed run can be resumed without duplicating entries.
func (s *Store) Append(ctx context.Context, e engine.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (seq, kind, station, at, event, result)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`, e.Seq, string(e.Kind), e.Station, e.At, string(e.Event), string(e.Result))
	if err != nil {
		return fmt.Errorf("append journal seq %d: %w", e.Seq, err)
	}
	return nil
}

// Entries returns the whole journal in seq order.
func (s *Store) Entries(ctx context.Context) ([]engine.Entry, error) {
	return s.queryEntries(ctx, `
		SELECT seq, kind, station, at, event, result
		FROM journal
		ORDER BY seq ASC
	`)
}

// EntriesFor returns the journal entries addressed to station, in seq order.
func (s *Store) EntriesFor(ctx context.Context, station string) ([]engine.Entry, error) {
	return s.queryEntries(ctx, `
		SELECT seq, kind, station, at, event, result
		FROM journal
		WHERE station = ?
		ORDER BY seq ASC
	`, station)
}

// LastSeq returns the highest journaled seq, or 0 for an empty journal.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM journal`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]engine.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []engine.Entry{}
	for rows.Next() {
		var (
			e             engine.Entry
			kind          string
			event, result string
		)
		if err := rows.Scan(&e.Seq, &kind, &e.Station, &e.At, &event, &result); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		e.Kind = engine.Kind(kind)
		e.Event = []byte(event)
		e.Result = []byte(result)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}
