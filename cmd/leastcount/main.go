package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version     kong.VersionFlag `short:"v" help:"Show version"`
	Play        PlayCmd          `cmd:"" help:"Score a game in the terminal"`
	Show        ShowCmd          `cmd:"" help:"Print the scoreboard of a saved game"`
	Leaderboard LeaderboardCmd   `cmd:"" help:"List completed games"`
	Sync        SyncCmd          `cmd:"" help:"Push games saved offline to the configured store"`
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to load .env file", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("leastcount"),
		kong.Description("Score tracker for Least Count card games"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&cli.Globals)
	kctx.FatalIfErrorf(err)
}
