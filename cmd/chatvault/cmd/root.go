package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesm/chatvault/internal/archive"
	"github.com/wesm/chatvault/internal/config"
	"github.com/wesm/chatvault/internal/contacts"
	"github.com/wesm/chatvault/internal/prefetch"
	"github.com/wesm/chatvault/internal/store"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatvault",
	Short: "Offline chat archive browser",
	Long: `chatvault reads a local iMessage archive (chat.db) together with the
macOS address book, resolves raw phone and email identifiers to contact
names, and provides listing and search over the archived conversations.

All databases are opened read-only; nothing is ever written back.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context, enabling
// graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openService builds the archive service from the configured databases and
// loads the contact directory. A directory that cannot be read is logged and
// tolerated; identifiers then resolve to placeholders.
func openService(ctx context.Context) (*archive.Service, func(), error) {
	msgStore, err := store.Open(cfg.Data.MessageDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open message archive %s: %w", cfg.Data.MessageDB, err)
	}

	directory, err := contacts.Open(cfg.Data.ContactDB)
	if err != nil {
		msgStore.Close()
		return nil, nil, fmt.Errorf("open contact directory %s: %w", cfg.Data.ContactDB, err)
	}

	svc := archive.NewService(msgStore, directory,
		archive.WithLogger(logger),
		archive.WithPrefetchOptions(
			prefetch.WithBatchSize(cfg.Prefetch.BatchSize),
			prefetch.WithBatchDelay(time.Duration(cfg.Prefetch.BatchDelayMS)*time.Millisecond),
			prefetch.WithLogger(logger),
		),
	)

	if err := svc.RefreshDirectory(ctx); err != nil {
		logger.Warn("contact directory unavailable, showing raw identifiers", "error", err)
	}

	cleanup := func() {
		directory.Close()
		msgStore.Close()
	}
	return svc, cleanup, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.chatvault/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
