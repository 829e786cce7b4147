// Package filestore keeps sessions and the leaderboard as JSON files in a
// local directory. It is the offline fallback for a remote store.
//
// Layout:
//
//	<dir>/current.json        most recently saved session
//	<dir>/sessions/<id>.json  every saved session
//	<dir>/leaderboard.json    newest-first, capped leaderboard
//	<dir>/pending.json        saves waiting to be synced to the primary
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lox/leastcount/internal/fileutil"
	"github.com/lox/leastcount/internal/game"
	"github.com/lox/leastcount/internal/store"
)

// Store is a directory-backed store. It is safe for concurrent use within
// one process.
type Store struct {
	dir   string
	limit int
	mu    sync.Mutex
}

// Open prepares dir for use, creating it if needed.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(filepath.Join(dir, "sessions"), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Store{dir: dir, limit: store.LocalLeaderboardLimit}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) sessionPath(id string) (string, error) {
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	return filepath.Join(s.dir, "sessions", id+".json"), nil
}

// SaveSession writes the session file and makes it the current session.
func (s *Store) SaveSession(ctx context.Context, rec game.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		return store.ErrMissingID
	}
	path, err := s.sessionPath(rec.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fileutil.WriteJSON(path, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := fileutil.WriteJSON(s.path("current.json"), rec); err != nil {
		return fmt.Errorf("save current session: %w", err)
	}
	return nil
}

// LoadSession reads the session saved under id, or the current session when
// id is empty.
func (s *Store) LoadSession(ctx context.Context, id string) (game.Record, error) {
	if err := ctx.Err(); err != nil {
		return game.Record{}, err
	}
	path := s.path("current.json")
	if id != "" {
		var err error
		if path, err = s.sessionPath(id); err != nil {
			return game.Record{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var rec game.Record
	found, err := fileutil.ReadJSON(path, &rec)
	if err != nil {
		return game.Record{}, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return game.Record{}, store.ErrNotFound
	}
	return rec, nil
}

// AddLeaderboardEntry prepends entry and trims the leaderboard to its cap.
func (s *Store) AddLeaderboardEntry(ctx context.Context, entry store.LeaderboardEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readLeaderboard()
	if err != nil {
		return err
	}
	entries = append([]store.LeaderboardEntry{entry}, entries...)
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	if err := fileutil.WriteJSON(s.path("leaderboard.json"), entries); err != nil {
		return fmt.Errorf("save leaderboard: %w", err)
	}
	return nil
}

// Leaderboard returns up to limit entries, newest first.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readLeaderboard()
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Store) readLeaderboard() ([]store.LeaderboardEntry, error) {
	var entries []store.LeaderboardEntry
	if _, err := fileutil.ReadJSON(s.path("leaderboard.json"), &entries); err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return entries, nil
}

// Enqueue appends rec to the offline queue.
func (s *Store) Enqueue(ctx context.Context, rec game.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pending, err := s.readPending()
	if err != nil {
		return err
	}
	pending = append(pending, rec)
	if err := fileutil.WriteJSON(s.path("pending.json"), pending); err != nil {
		return fmt.Errorf("save offline queue: %w", err)
	}
	return nil
}

// Pending returns queued records in the order they were saved.
func (s *Store) Pending(ctx context.Context) ([]game.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readPending()
}

// ClearPending empties the offline queue.
func (s *Store) ClearPending(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path("pending.json")); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear offline queue: %w", err)
	}
	return nil
}

func (s *Store) readPending() ([]game.Record, error) {
	var pending []game.Record
	if _, err := fileutil.ReadJSON(s.path("pending.json"), &pending); err != nil {
		return nil, fmt.Errorf("load offline queue: %w", err)
	}
	return pending, nil
}

// Close is a no-op; every write is flushed before it returns.
func (s *Store) Close() error {
	return nil
}

var _ store.LocalStore = (*Store)(nil)
