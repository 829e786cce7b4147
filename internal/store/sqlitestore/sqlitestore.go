// Package sqlitestore persists sessions and an unbounded leaderboard in a
// SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/coder/quartz"
	_ "modernc.org/sqlite"

	"github.com/lox/leastcount/internal/game"
	"github.com/lox/leastcount/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	current_round INTEGER NOT NULL,
	status        TEXT NOT NULL,
	data          TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL,
	save_seq      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_save_seq ON sessions (save_seq DESC);
CREATE TABLE IF NOT EXISTS leaderboard (
	id            TEXT PRIMARY KEY,
	winner_name   TEXT NOT NULL,
	total_rounds  INTEGER NOT NULL,
	final_score   INTEGER NOT NULL,
	players_count INTEGER NOT NULL,
	completed_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS leaderboard_completed_at ON leaderboard (completed_at DESC);
`

// Store provides SQLite-backed session persistence.
type Store struct {
	sqlDB *sql.DB
	clock quartz.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for created/updated timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// Open opens the database at path and creates the schema.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{sqlDB: sqlDB, clock: quartz.NewReal()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveSession upserts the session.
func (s *Store) SaveSession(ctx context.Context, rec game.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		return store.ErrMissingID
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	now := s.clock.Now().UTC().UnixMilli()

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO sessions (id, current_round, status, data, created_at, updated_at, save_seq)
VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(save_seq), 0) + 1 FROM sessions))
ON CONFLICT (id) DO UPDATE SET
	current_round = excluded.current_round,
	status = excluded.status,
	data = excluded.data,
	updated_at = excluded.updated_at,
	save_seq = excluded.save_seq
`,
		rec.ID,
		rec.CurrentRound,
		string(rec.Status),
		string(data),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession loads the session saved under id, or the most recently saved
// session when id is empty.
func (s *Store) LoadSession(ctx context.Context, id string) (game.Record, error) {
	if err := ctx.Err(); err != nil {
		return game.Record{}, err
	}

	var row *sql.Row
	if id == "" {
		row = s.sqlDB.QueryRowContext(ctx, `SELECT data FROM sessions ORDER BY save_seq DESC LIMIT 1`)
	} else {
		row = s.sqlDB.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id)
	}

	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return game.Record{}, store.ErrNotFound
		}
		return game.Record{}, fmt.Errorf("load session: %w", err)
	}
	var rec game.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return game.Record{}, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}

// AddLeaderboardEntry inserts a completed game.
func (s *Store) AddLeaderboardEntry(ctx context.Context, entry store.LeaderboardEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry.ID = strings.TrimSpace(entry.ID)
	if entry.ID == "" {
		return fmt.Errorf("leaderboard entry id is required")
	}
	if entry.CompletedAt.IsZero() {
		entry.CompletedAt = s.clock.Now()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO leaderboard (id, winner_name, total_rounds, final_score, players_count, completed_at)
VALUES (?, ?, ?, ?, ?, ?)
`,
		entry.ID,
		entry.WinnerName,
		entry.TotalRounds,
		entry.FinalScore,
		entry.PlayersCount,
		entry.CompletedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("add leaderboard entry: %w", err)
	}
	return nil
}

// Leaderboard lists newest-first entries.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, winner_name, total_rounds, final_score, players_count, completed_at
FROM leaderboard
ORDER BY completed_at DESC, rowid DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]store.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var (
			entry       store.LeaderboardEntry
			completedAt int64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.WinnerName,
			&entry.TotalRounds,
			&entry.FinalScore,
			&entry.PlayersCount,
			&completedAt,
		); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entry.CompletedAt = time.UnixMilli(completedAt).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return entries, nil
}

var _ store.Store = (*Store)(nil)
