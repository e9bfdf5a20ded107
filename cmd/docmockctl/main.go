// Command docmockctl runs docmock's ingestion offline: preview how a document
// is chunked, ingest it into a local store, and list stored endpoints.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dgallion1/docmock/internal/config"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		dbPath  string
		verbose bool
	)
	cfg := config.Load()
	cmd := &cobra.Command{
		Use:           "docmockctl",
		Short:         "Offline tools for docmock documents and endpoints",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", cfg.DBPath, "sqlite database path")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")

	logger := func() *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	withDB := func() config.Config {
		c := cfg
		c.DBPath = dbPath
		return c
	}

	cmd.AddCommand(newChunkCommand(cfg))
	cmd.AddCommand(newIngestCommand(withDB, logger))
	cmd.AddCommand(newEndpointsCommand(withDB))
	return cmd
}
