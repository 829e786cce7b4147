// Package redisstore keeps sessions and the leaderboard in Redis.
//
// Keys, under a configurable prefix (default "leastcount:"):
//
//	<prefix>session:<id>  session record JSON
//	<prefix>current       id of the most recently saved session
//	<prefix>leaderboard   list of entry JSON, newest first
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lox/leastcount/internal/game"
	"github.com/lox/leastcount/internal/store"
)

// DefaultPrefix namespaces every key.
const DefaultPrefix = "leastcount:"

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store is a Redis-backed store.
type Store struct {
	client *redis.Client
	prefix string
}

// Dial connects to Redis and verifies the connection.
func Dial(ctx context.Context, opts Options) (*Store, error) {
	s, err := Connect(opts)
	if err != nil {
		return nil, err
	}
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Connect creates a store without contacting the server. Commands fail until
// Redis is reachable.
func Connect(opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return New(client, opts.Prefix), nil
}

// Ping checks that the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", s.client.Options().Addr, err)
	}
	return nil
}

// New wraps an existing client. An empty prefix uses DefaultPrefix.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *Store) currentKey() string {
	return s.prefix + "current"
}

func (s *Store) leaderboardKey() string {
	return s.prefix + "leaderboard"
}

// SaveSession stores the record and marks it current in one transaction.
func (s *Store) SaveSession(ctx context.Context, rec game.Record) error {
	if rec.ID == "" {
		return store.ErrMissingID
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(rec.ID), data, 0)
		pipe.Set(ctx, s.currentKey(), rec.ID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession returns the session saved under id, or the current session
// when id is empty.
func (s *Store) LoadSession(ctx context.Context, id string) (game.Record, error) {
	if id == "" {
		current, err := s.client.Get(ctx, s.currentKey()).Result()
		if errors.Is(err, redis.Nil) {
			return game.Record{}, store.ErrNotFound
		}
		if err != nil {
			return game.Record{}, fmt.Errorf("load current session id: %w", err)
		}
		id = current
	}

	data, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.Record{}, store.ErrNotFound
	}
	if err != nil {
		return game.Record{}, fmt.Errorf("load session: %w", err)
	}
	var rec game.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return game.Record{}, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}

// AddLeaderboardEntry pushes entry onto the head of the leaderboard.
func (s *Store) AddLeaderboardEntry(ctx context.Context, entry store.LeaderboardEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode leaderboard entry: %w", err)
	}
	if err := s.client.LPush(ctx, s.leaderboardKey(), data).Err(); err != nil {
		return fmt.Errorf("add leaderboard entry: %w", err)
	}
	return nil
}

// Leaderboard returns up to limit entries, newest first.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	raw, err := s.client.LRange(ctx, s.leaderboardKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	entries := make([]store.LeaderboardEntry, 0, len(raw))
	for _, item := range raw {
		var entry store.LeaderboardEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("decode leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ store.Store = (*Store)(nil)
