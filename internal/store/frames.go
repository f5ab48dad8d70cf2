package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/world"
)

// Anchored implements world.Payloads.
func (s *Store) Anchored(ctx context.Context, pos brew.Position) ([]world.Handle, error) {
	return s.queryHandles(ctx, `
		SELECT handle FROM frames
		WHERE world = ? AND x = ? AND y = ? AND z = ?
		ORDER BY id ASC
	`, pos.World, pos.X, pos.Y, pos.Z)
}

// Handles implements world.Payloads.
func (s *Store) Handles(ctx context.Context) ([]world.Handle, error) {
	return s.queryHandles(ctx, `SELECT handle FROM frames ORDER BY id ASC`)
}

func (s *Store) queryHandles(ctx context.Context, query string, args ...any) ([]world.Handle, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var handles []world.Handle
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		handles = append(handles, world.Handle(h))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	return handles, nil
}

// Payload implements world.Payloads.
func (s *Store) Payload(ctx context.Context, h world.Handle) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM frames WHERE handle = ?`, string(h)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, world.ErrFrameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", h, err)
	}
	return data, nil
}

// InsertPayload implements world.Payloads. Inserting an existing handle is
// a no-op.
func (s *Store) InsertPayload(ctx context.Context, h world.Handle, anchor brew.Position, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO frames (handle, world, x, y, z, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(handle) DO NOTHING
	`, string(h), anchor.World, anchor.X, anchor.Y, anchor.Z, data)
	if err != nil {
		return fmt.Errorf("insert frame %s: %w", h, err)
	}
	return nil
}

// UpdatePayload implements world.Payloads.
func (s *Store) UpdatePayload(ctx context.Context, h world.Handle, data []byte) error {
	res, err := s.db.ExecContext(ctx, `UPDATE frames SET payload = ? WHERE handle = ?`, data, string(h))
	if err != nil {
		return fmt.Errorf("update frame %s: %w", h, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update frame %s: %w", h, err)
	}
	if n == 0 {
		return world.ErrFrameNotFound
	}
	return nil
}

// DeletePayload implements world.Payloads.
func (s *Store) DeletePayload(ctx context.Context, h world.Handle) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM frames WHERE handle = ?`, string(h)); err != nil {
		return fmt.Errorf("delete frame %s: %w", h, err)
	}
	return nil
}
