package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"

	"github.com/lox/leastcount/internal/store"
	"github.com/lox/leastcount/internal/tui"
)

type LeaderboardCmd struct {
	Limit int `short:"n" default:"10" help:"Number of games to list"`
}

func (c *LeaderboardCmd) Run(ctx context.Context, g *Globals) error {
	if c.Limit < 1 {
		return fmt.Errorf("limit must be at least 1")
	}
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

	entries, err := st.Leaderboard(ctx, c.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No completed games yet")
		return nil
	}
	fmt.Println(renderLeaderboard(entries))
	return nil
}

func renderLeaderboard(entries []store.LeaderboardEntry) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tui.InfoStyle).
		Headers("Winner", "Score", "Rounds", "Players", "Completed").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Inherit(tui.RoundInfoStyle)
			}
			return style
		})
	for _, e := range entries {
		t.Row(
			e.WinnerName,
			strconv.Itoa(e.FinalScore),
			strconv.Itoa(e.TotalRounds),
			strconv.Itoa(e.PlayersCount),
			e.CompletedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return t.String()
}
