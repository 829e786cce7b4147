package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/leastcount/internal/game"
)

// syncWorkers bounds concurrent writes to the primary during Sync.
const syncWorkers = 4

// Fallback writes to a primary store and falls back to a local store when
// the primary fails. Saves that only reached the local store are queued and
// replayed by Sync. Callers never see a primary failure that the local store
// absorbed.
type Fallback struct {
	primary Store
	local   LocalStore
	logger  *log.Logger
}

// NewFallback combines a primary store with a local fallback. A nil primary
// makes the local store authoritative.
func NewFallback(primary Store, local LocalStore, logger *log.Logger) *Fallback {
	return &Fallback{
		primary: primary,
		local:   local,
		logger:  logger.WithPrefix("store"),
	}
}

// SaveSession saves to the primary, or to the local store and the offline
// queue if the primary fails.
func (f *Fallback) SaveSession(ctx context.Context, rec game.Record) error {
	if rec.ID == "" {
		return ErrMissingID
	}
	if f.primary != nil {
		err := f.primary.SaveSession(ctx, rec)
		if err == nil {
			f.logger.Debug("Saved session", "id", rec.ID, "round", rec.CurrentRound)
			// Keep the local copy current so offline loads see the latest state.
			if lerr := f.local.SaveSession(ctx, rec); lerr != nil {
				f.logger.Warn("Failed to mirror session locally", "id", rec.ID, "error", lerr)
			}
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		f.logger.Warn("Primary store unavailable, saving offline", "id", rec.ID, "error", err)
		if err := f.local.Enqueue(ctx, rec); err != nil {
			return fmt.Errorf("queue offline save: %w", err)
		}
	}
	return f.local.SaveSession(ctx, rec)
}

// LoadSession tries the primary, then the local store.
func (f *Fallback) LoadSession(ctx context.Context, id string) (game.Record, error) {
	if f.primary != nil && id != "" {
		rec, err := f.primary.LoadSession(ctx, id)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrNotFound) {
			f.logger.Warn("Primary store unavailable, loading offline copy", "id", id, "error", err)
		}
	}
	return f.local.LoadSession(ctx, id)
}

// AddLeaderboardEntry records to the primary, or locally on failure.
func (f *Fallback) AddLeaderboardEntry(ctx context.Context, entry LeaderboardEntry) error {
	if f.primary != nil {
		err := f.primary.AddLeaderboardEntry(ctx, entry)
		if err == nil {
			return nil
		}
		f.logger.Warn("Primary store unavailable, recording result offline", "winner", entry.WinnerName, "error", err)
	}
	return f.local.AddLeaderboardEntry(ctx, entry)
}

// Leaderboard reads from the primary, or the local store on failure.
func (f *Fallback) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if f.primary != nil {
		entries, err := f.primary.Leaderboard(ctx, limit)
		if err == nil {
			return entries, nil
		}
		f.logger.Warn("Primary store unavailable, reading offline leaderboard", "error", err)
	}
	return f.local.Leaderboard(ctx, limit)
}

// Sync replays queued offline saves into the primary and clears the queue
// once every save succeeded. Only the latest queued record per session is
// sent. It returns the number of sessions synced.
func (f *Fallback) Sync(ctx context.Context) (int, error) {
	if f.primary == nil {
		return 0, nil
	}
	pending, err := f.local.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("read offline queue: %w", err)
	}
	latest := latestByID(pending)
	if len(latest) == 0 {
		return 0, nil
	}

	f.logger.Info("Syncing offline sessions", "count", len(latest))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncWorkers)
	for _, rec := range latest {
		g.Go(func() error {
			if err := f.primary.SaveSession(gctx, rec); err != nil {
				return fmt.Errorf("sync session %s: %w", rec.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := f.local.ClearPending(ctx); err != nil {
		return 0, fmt.Errorf("clear offline queue: %w", err)
	}
	f.logger.Info("Offline sessions synced", "count", len(latest))
	return len(latest), nil
}

// Close closes both stores.
func (f *Fallback) Close() error {
	var errs []error
	if f.primary != nil {
		errs = append(errs, f.primary.Close())
	}
	errs = append(errs, f.local.Close())
	return errors.Join(errs...)
}

// latestByID keeps the last record queued for each session, in first-seen order.
func latestByID(recs []game.Record) []game.Record {
	index := make(map[string]int, len(recs))
	var out []game.Record
	for _, rec := range recs {
		if i, ok := index[rec.ID]; ok {
			out[i] = rec
			continue
		}
		index[rec.ID] = len(out)
		out = append(out, rec)
	}
	return out
}

var _ Store = (*Fallback)(nil)
