package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/world"
)

// Block implements world.Blocks. Unset positions read as air.
func (s *Store) Block(ctx context.Context, pos brew.Position) (world.Block, error) {
	var (
		kind  string
		level int
		lit   bool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT kind, level, lit FROM blocks
		WHERE world = ? AND x = ? AND y = ? AND z = ?
	`, pos.World, pos.X, pos.Y, pos.Z).Scan(&kind, &level, &lit)
	if errors.Is(err, sql.ErrNoRows) {
		return world.Air, nil
	}
	if err != nil {
		return world.Block{}, fmt.Errorf("read block %s: %w", pos, err)
	}
	return world.Block{Kind: world.Kind(kind), Level: level, Lit: lit}, nil
}

// SetBlock implements world.Blocks. Setting air deletes the row.
func (s *Store) SetBlock(ctx context.Context, pos brew.Position, b world.Block) error {
	if b.Kind == world.KindAir || b.Kind == "" {
		_, err := s.db.ExecContext(ctx, `
			DELETE FROM blocks
			WHERE world = ? AND x = ? AND y = ? AND z = ?
		`, pos.World, pos.X, pos.Y, pos.Z)
		if err != nil {
			return fmt.Errorf("clear block %s: %w", pos, err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blocks (world, x, y, z, kind, level, lit)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(world, x, y, z) DO UPDATE SET
			kind = excluded.kind,
			level = excluded.level,
			lit = excluded.lit
	`, pos.World, pos.X, pos.Y, pos.Z, string(b.Kind), b.Level, b.Lit)
	if err != nil {
		return fmt.Errorf("write block %s: %w", pos, err)
	}
	return nil
}
