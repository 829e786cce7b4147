package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/leastcount/internal/game"
	"github.com/lox/leastcount/internal/tui"
)

type ShowCmd struct {
	ID    string `arg:"" optional:"" help:"Game ID (defaults to the most recent game)"`
	Plain bool   `help:"Disable colours"`
	Share bool   `help:"Print a plain-text summary others can resume from"`
}

func (c *ShowCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger := log.New(os.Stderr)
	logger.SetLevel(cfg.LogLevel())

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	rec, err := st.LoadSession(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	session, err := game.Restore(rec, game.WithConfig(cfg.GameConfig()))
	if err != nil {
		return err
	}

	if c.Share {
		fmt.Println(tui.ShareText(session))
		return nil
	}
	if c.Plain {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	fmt.Println(tui.HeaderStyle.Render(" " + session.ID() + " "))
	fmt.Println(tui.RenderScoreboard(session))
	return nil
}
