// Package repository persists finished games in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRecordNotFound is returned when no row matches a game id.
var ErrRecordNotFound = errors.New("game record not found")

// DBTX is the subset of pgx used by the repository. *pgxpool.Pool and
// pgx.Tx both satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS game_records (
	game_id      TEXT PRIMARY KEY,
	seed         BIGINT      NOT NULL,
	winner       TEXT        NOT NULL,
	turns        INTEGER     NOT NULL,
	actions      INTEGER     NOT NULL,
	human_weaver TEXT        NOT NULL,
	ai_weaver    TEXT        NOT NULL,
	checksum     TEXT        NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL
)`

const insertRecord = `
INSERT INTO game_records
	(game_id, seed, winner, turns, actions, human_weaver, ai_weaver, checksum, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (game_id) DO NOTHING`

const selectColumns = `game_id, seed, winner, turns, actions, human_weaver, ai_weaver, checksum, finished_at`

// GameRepository stores game.GameRecord rows.
type GameRepository struct {
	db DBTX
}

// NewGameRepository creates a repository on db.
func NewGameRepository(db DBTX) *GameRepository {
	return &GameRepository{db: db}
}

// Migrate creates the game_records table if needed.
func (r *GameRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create game_records: %w", err)
	}
	return nil
}

// SaveGame inserts a record. Saving the same game twice is a no-op.
func (r *GameRepository) SaveGame(ctx context.Context, rec game.GameRecord) error {
	if rec.GameID == "" {
		return fmt.Errorf("save game: empty game id")
	}
	finished := rec.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, insertRecord,
		rec.GameID, rec.Seed, string(rec.Winner), rec.Turns, rec.Actions,
		rec.HumanWeaver, rec.AIWeaver, rec.Checksum, finished,
	)
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", rec.GameID, err)
	}
	return nil
}

// GetGame loads one record.
func (r *GameRepository) GetGame(ctx context.Context, gameID string) (game.GameRecord, error) {
	row := r.db.QueryRow(ctx, "SELECT "+selectColumns+" FROM game_records WHERE game_id = $1", gameID)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.GameRecord{}, fmt.Errorf("game %s: %w", gameID, ErrRecordNotFound)
	}
	if err != nil {
		return game.GameRecord{}, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	return rec, nil
}

// ListRecent returns up to limit records, newest first.
func (r *GameRepository) ListRecent(ctx context.Context, limit int) ([]game.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx,
		"SELECT "+selectColumns+" FROM game_records ORDER BY finished_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var out []game.GameRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return out, nil
}

// WinCounts returns the number of wins per seat.
func (r *GameRepository) WinCounts(ctx context.Context) (map[rules.AgentID]int, error) {
	rows, err := r.db.Query(ctx, "SELECT winner, COUNT(*) FROM game_records GROUP BY winner")
	if err != nil {
		return nil, fmt.Errorf("failed to count wins: %w", err)
	}
	defer rows.Close()

	counts := make(map[rules.AgentID]int)
	for rows.Next() {
		var winner string
		var n int
		if err := rows.Scan(&winner, &n); err != nil {
			return nil, fmt.Errorf("failed to scan win count: %w", err)
		}
		counts[rules.AgentID(winner)] = n
	}
	return counts, rows.Err()
}

func scanRecord(row pgx.Row) (game.GameRecord, error) {
	var rec game.GameRecord
	var winner string
	err := row.Scan(&rec.GameID, &rec.Seed, &winner, &rec.Turns, &rec.Actions,
		&rec.HumanWeaver, &rec.AIWeaver, &rec.Checksum, &rec.FinishedAt)
	rec.Winner = rules.AgentID(winner)
	return rec, err
}
