package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rubiojr/ocrsearch/pkg/config"
	"github.com/rubiojr/ocrsearch/pkg/log"
	"github.com/rubiojr/ocrsearch/pkg/storage"
	"github.com/urfave/cli/v3"
)

// loadConfig reads the configuration named by --config and applies its
// logging settings.
func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log.Configure(c.Bool("debug"), cfg.DebugServices)
	return cfg, nil
}

// openIndex opens the page index in the configured storage directory.
func openIndex(ctx context.Context, cfg *config.Config) (*storage.PageIndex, error) {
	if err := os.MkdirAll(cfg.StorageDir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	idx, err := storage.Open(ctx, cfg.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("opening page index: %w", err)
	}
	return idx, nil
}

func closeIndex(idx *storage.PageIndex) {
	if err := idx.Close(); err != nil {
		fmt.Printf("Warning: failed to close page index: %v\n", err)
	}
}
