package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesm/chatvault/internal/api"
	"github.com/wesm/chatvault/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the archive as an HTTP API daemon",
	Long: `Run chatvault as a long-running daemon serving the archive over HTTP.

The daemon runs in the foreground and provides:
  - HTTP API server on the configured port (default: 8080)
  - Scheduled contact-directory refreshes (cron format)

Configure the refresh schedule in config.toml:
  [server]
  refresh_schedule = "*/30 * * * *"   # every 30 minutes

Use Ctrl+C to stop the daemon gracefully.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	sched := scheduler.New(svc.RefreshDirectory).WithLogger(logger)
	if expr := cfg.Server.RefreshSchedule; expr != "" {
		if err := sched.Schedule(expr); err != nil {
			return fmt.Errorf("schedule directory refresh: %w", err)
		}
	}
	sched.Start()

	apiServer := api.NewServer(cfg, svc, sched, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	fmt.Printf("chatvault daemon started\n")
	fmt.Printf("  API server: http://%s\n",
		net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.Server.APIPort)))
	fmt.Printf("  Message archive: %s\n", cfg.Data.MessageDB)
	fmt.Printf("  Contact directory: %s\n", cfg.Data.ContactDB)
	if st := sched.Status(); st.Scheduled {
		fmt.Printf("  Directory refresh: %s, next at %s\n",
			st.Schedule, st.NextRun.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")

	select {
	case <-cmd.Context().Done():
		logger.Info("received shutdown signal")
		fmt.Println("\nShutting down...")
	case err := <-serverErr:
		logger.Error("API server error", "error", err)
		fmt.Printf("\nAPI server error: %v\n", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "error", err)
	}

	select {
	case <-sched.Stop().Done():
		fmt.Println("Shutdown complete.")
	case <-time.After(30 * time.Second):
		fmt.Println("Shutdown timed out after 30 seconds.")
	}

	return nil
}
