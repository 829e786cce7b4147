package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/lox/leastcount/internal/config"
)

type SyncCmd struct{}

func (c *SyncCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if cfg.Storage.Driver == config.DriverFile {
		return fmt.Errorf("nothing to sync: storage driver is %q", config.DriverFile)
	}
	logger := log.New(os.Stderr)
	logger.SetLevel(cfg.LogLevel())

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	n, err := st.Sync(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Synced %d games\n", n)
	return nil
}
