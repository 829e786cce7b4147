package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/quartz"

	"github.com/lox/leastcount/internal/config"
	"github.com/lox/leastcount/internal/game"
	"github.com/lox/leastcount/internal/gameid"
	"github.com/lox/leastcount/internal/store"
	"github.com/lox/leastcount/internal/tui"
)

type PlayCmd struct {
	Resume  string   `short:"r" help:"Resume a saved game by ID"`
	Last    bool     `help:"Resume the most recently saved game"`
	Players []string `arg:"" optional:"" help:"Player names for a new game (defaults to config)"`
}

func (c *PlayCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	logFile, err := openLogFile(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()
	logger := newLogger(cfg, logFile, "MAIN")

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	session, err := c.session(ctx, cfg, st)
	if err != nil {
		return err
	}
	logger.Info("Starting game", "id", session.ID(), "players", session.Len(), "round", session.CurrentRound())

	clock := quartz.NewReal()
	model := tui.NewModel(ctx, session, tui.Options{
		Store:        st,
		Logger:       logger,
		Clock:        clock,
		IDs:          gameid.NewGenerator(clock, nil),
		MinThreshold: config.MinEliminationThreshold,
		MaxThreshold: config.MaxEliminationThreshold,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run TUI: %w", err)
	}

	if id := session.ID(); id != "" {
		fmt.Printf("Game %s saved. Resume with: leastcount play --resume %s\n", id, id)
	}
	return nil
}

// session resumes a saved game or starts a new one.
func (c *PlayCmd) session(ctx context.Context, cfg *config.Config, st store.Store) (*game.Session, error) {
	rules := cfg.GameConfig()

	if c.Resume != "" || c.Last {
		if c.Resume != "" {
			if err := gameid.Validate(c.Resume); err != nil {
				return nil, err
			}
		}
		rec, err := st.LoadSession(ctx, c.Resume)
		if err != nil {
			return nil, fmt.Errorf("load game: %w", err)
		}
		return game.Restore(rec, game.WithConfig(rules))
	}

	opts := []game.Option{game.WithConfig(rules)}
	if len(c.Players) > 0 {
		opts = append(opts, game.WithPlayers(c.Players...))
	}
	return game.New(opts...)
}
