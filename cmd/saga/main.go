// Package main provides the entry point for the saga CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version     = "0.1.0-dev"
	globalStory string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "saga",
		Short:   "A narrative knowledge base with temporal relationships and semantic search",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&globalStory, "story", "s", "", "Story to operate on (required)")

	rootCmd.AddCommand(
		newStoriesCmd(),
		newEntitiesCmd(),
		newScenesCmd(),
		newMilestonesCmd(),
		newGoalsCmd(),
		newRelateCmd(),
		newRelationsCmd(),
		newGraphCmd(),
		newTimelineCmd(),
		newKnowledgeCmd(),
		newSearchCmd(),
		newIngestCmd(),
		newImportCmd(),
		newExportCmd(),
		newPredicatesCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
