package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"upload-coordinator/internal/logging"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "uploadctl",
	Short: "Command line client of the upload coordinator",
}

func init() {
	rootCmd.PersistentFlags().StringP("server", "s", "http://localhost:8080", "Upload coordinator base URL")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.New(cmd.ErrOrStderr(), "", level)
}
