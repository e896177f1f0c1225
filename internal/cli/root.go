// Package cli provides the lumen command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lumen/internal/config"
	"lumen/internal/logger"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lumen",
		Short: "Semantic search over your ebook library",
		Long: `Lumen indexes EPUB and PDF ebooks into a vector store and answers
semantic search queries over them, either from the command line or
through an MCP server for AI assistants.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			handler := logger.NewContextHandler(slog.NewJSONHandler(os.Stderr, nil))
			slog.SetDefault(slog.New(handler))
		},
	}

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newSetKeyCmd())

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}
