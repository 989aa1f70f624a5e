package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/saga-core/internal/application/handlers"
)

type timelineFlags struct {
	from int64
	to   int64
	at   int64
}

func newTimelineCmd() *cobra.Command {
	var flags timelineFlags

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Query relationships by story time",
		Long: `Queries relationships against the story timeline.

With --from and --to, lists relationships whose validity overlaps the
half-open window [from, to). With --at, lists relationships active at a
single story time.

Examples:
  saga -s mystory timeline --from 0 --to 100
  saga -s mystory timeline --at 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(cmd, flags)
		},
	}

	cmd.Flags().Int64Var(&flags.from, "from", 0, "Window start (inclusive)")
	cmd.Flags().Int64Var(&flags.to, "to", 0, "Window end (exclusive)")
	cmd.Flags().Int64Var(&flags.at, "at", 0, "Single story time instead of a window")

	return cmd
}

func runTimeline(cmd *cobra.Command, flags timelineFlags) error {
	ctx := cmd.Context()

	hasWindow := cmd.Flags().Changed("from") || cmd.Flags().Changed("to")
	hasAt := cmd.Flags().Changed("at")

	if hasWindow && hasAt {
		return errors.New("--at cannot be combined with --from/--to")
	}
	if !hasWindow && !hasAt {
		return errors.New("either --at or both --from and --to are required")
	}
	if hasWindow && (!cmd.Flags().Changed("from") || !cmd.Flags().Changed("to")) {
		return errors.New("both --from and --to are required for a window query")
	}

	return withDeps(func(d *Deps) error {
		var views []handlers.RelationshipView
		var err error

		if hasAt {
			views, err = d.Relationships.HandleActive(ctx, flags.at)
		} else {
			views, err = d.Relationships.HandleTimeline(ctx, flags.from, flags.to)
		}
		if err != nil {
			return fmt.Errorf("querying timeline: %w", err)
		}

		if len(views) == 0 {
			fmt.Println("No relationships found.")
			return nil
		}

		for i := range views {
			printRelationshipView(&views[i])
		}

		return nil
	})
}
