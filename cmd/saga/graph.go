package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/saga-core/internal/domain/services"
)

type graphFlags struct {
	depth  int
	at     int64
	format string
}

func newGraphCmd() *cobra.Command {
	var flags graphFlags

	cmd := &cobra.Command{
		Use:   "graph ENTITY",
		Short: "Walk the relationship graph around an entity",
		Long: `Performs a breadth-first walk of the relationship graph starting at an
entity, following edges in both directions up to --depth hops.

With --at, only relationships active at that story time are traversed, so
the graph shows the story's state at a moment in time.

Examples:
  saga -s mystory graph Mira
  saga -s mystory graph Mira --depth 3
  saga -s mystory graph Mira --depth 2 --at 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args[0], flags)
		},
	}

	cmd.Flags().IntVar(&flags.depth, "depth", services.MinGraphDepth,
		fmt.Sprintf("Traversal depth (%d-%d)", services.MinGraphDepth, services.MaxGraphDepth))
	cmd.Flags().Int64Var(&flags.at, "at", 0, "Only traverse relationships active at this story time")
	cmd.Flags().StringVar(&flags.format, "format", "list", "Output format: list, json")

	return cmd
}

func runGraph(cmd *cobra.Command, entityRef string, flags graphFlags) error {
	ctx := cmd.Context()

	if flags.format != "list" && flags.format != "json" {
		return fmt.Errorf("invalid format: %s (valid: list, json)", flags.format)
	}

	var at *int64
	if cmd.Flags().Changed("at") {
		at = &flags.at
	}

	return withDeps(func(d *Deps) error {
		result, err := d.Relationships.HandleGraph(ctx, d.StoryID, entityRef, flags.depth, at)
		if err != nil {
			return fmt.Errorf("walking graph: %w", err)
		}

		if flags.format == "json" {
			return printJSON(result)
		}

		fmt.Printf("Graph around %s: %d entities, %d relationships\n",
			entityRef, len(result.Entities), len(result.Relationships))
		for i := range result.Relationships {
			printRelationshipView(&result.Relationships[i])
		}

		return nil
	})
}
