// Package store defines how Least Count sessions and completed-game results
// are persisted. The game engine never sees a Store; the presentation layer
// saves Records after mutating a session.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/leastcount/internal/game"
)

var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")
	// ErrMissingID is returned when saving a record that has no session ID.
	ErrMissingID = errors.New("session record has no id")
)

// LocalLeaderboardLimit caps the leaderboard kept by local stores.
const LocalLeaderboardLimit = 50

// Store persists session records and the leaderboard of completed games.
type Store interface {
	// SaveSession upserts rec by its ID. Records without an ID are rejected.
	SaveSession(ctx context.Context, rec game.Record) error
	// LoadSession returns the record saved under id, or the most recently
	// saved record when id is empty.
	LoadSession(ctx context.Context, id string) (game.Record, error)
	// AddLeaderboardEntry records a completed game.
	AddLeaderboardEntry(ctx context.Context, entry LeaderboardEntry) error
	// Leaderboard lists up to limit entries, newest first.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	Close() error
}

// Queue is implemented by local stores that keep saves made while the
// primary store was unreachable.
type Queue interface {
	Pending(ctx context.Context) ([]game.Record, error)
	ClearPending(ctx context.Context) error
	Enqueue(ctx context.Context, rec game.Record) error
}

// LocalStore is a Store that can also queue records for later sync.
type LocalStore interface {
	Store
	Queue
}

// LeaderboardEntry summarises one completed game.
type LeaderboardEntry struct {
	ID           string    `json:"id"`
	WinnerName   string    `json:"winnerName"`
	TotalRounds  int       `json:"totalRounds"`
	FinalScore   int       `json:"finalScore"`
	PlayersCount int       `json:"playersCount"`
	CompletedAt  time.Time `json:"completedAt"`
}

// NewLeaderboardEntry stamps a game summary with a fresh ID and the clock's
// current time.
func NewLeaderboardEntry(sum game.Summary, clock quartz.Clock) LeaderboardEntry {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return LeaderboardEntry{
		ID:           uuid.NewString(),
		WinnerName:   sum.WinnerName,
		TotalRounds:  sum.TotalRounds,
		FinalScore:   sum.FinalScore,
		PlayersCount: sum.PlayersCount,
		CompletedAt:  clock.Now().UTC(),
	}
}
