package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/app"
	"github.com/lectern/lectern/internal/config"
	"github.com/lectern/lectern/internal/log"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index course transcripts without starting the server",
	Long: `Parses and indexes every .txt transcript in the given directory (or the
configured documents directory). Useful with a persistent store path so the
server starts with a warm index.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if err := cfg.ValidateProvider(); err != nil {
		return fmt.Errorf("validating provider: %w", err)
	}

	dir := cfg.DocsDir
	if len(args) > 0 {
		dir = args[0]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	courses, chunks, err := a.System.AddCourseFolder(ctx, dir)
	if err != nil {
		return fmt.Errorf("ingesting documents: %w", err)
	}

	stats := a.System.Stats()
	fmt.Printf("Added %d courses (%d chunks); catalog now holds %d courses.\n",
		courses, chunks, stats.TotalCourses)
	return nil
}
