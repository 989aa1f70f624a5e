package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/saga-core/internal/application/handlers"
	"github.com/ersonp/saga-core/internal/domain/services"
)

type relateFlags struct {
	weight float64
	from   int64
	until  int64
	meta   string
}

func newRelateCmd() *cobra.Command {
	var flags relateFlags

	cmd := &cobra.Command{
		Use:   "relate SUBJECT PREDICATE OBJECT",
		Short: "Create a relationship between two entities",
		Long: `Creates a directed relationship edge between two existing entities.
Subject and object may be entity names or IDs; use quotes for names with
spaces.

--from and --until bound the relationship in story time as a half-open
interval: active from --from (inclusive) until --until (exclusive). Either
bound may be omitted for an open interval.

Examples:
  saga -s mystory relate Mira knows_about "the heist"
  saga -s mystory relate Mira located_at "Harbor District" --from 10 --until 42
  saga -s mystory relate Mira allied_with Bren --from 100 --weight 0.8`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelate(cmd, args, flags)
		},
	}

	cmd.Flags().Float64Var(&flags.weight, "weight", 0, "Relationship weight")
	cmd.Flags().Int64Var(&flags.from, "from", 0, "Story time the relationship starts at (inclusive)")
	cmd.Flags().Int64Var(&flags.until, "until", 0, "Story time the relationship ends at (exclusive)")
	cmd.Flags().StringVar(&flags.meta, "meta", "", "Relationship metadata as JSON")

	cmd.AddCommand(
		newRelateUpdateCmd(),
		newRelateDeleteCmd(),
		newRelateHistoryCmd(),
	)

	return cmd
}

func runRelate(cmd *cobra.Command, args []string, flags relateFlags) error {
	ctx := cmd.Context()
	subject, predicate, object := args[0], args[1], args[2]

	meta, err := parseMetaFlag(flags.meta)
	if err != nil {
		return err
	}

	opts := handlers.CreateOptions{Meta: meta}
	if cmd.Flags().Changed("weight") {
		opts.Weight = &flags.weight
	}
	if cmd.Flags().Changed("from") {
		opts.StartsAt = &flags.from
	}
	if cmd.Flags().Changed("until") {
		opts.EndsAt = &flags.until
	}

	return withDeps(func(d *Deps) error {
		view, err := d.Relationships.HandleCreate(ctx, d.StoryID, subject, predicate, object, opts)
		if err != nil {
			return fmt.Errorf("creating relationship: %w", err)
		}

		fmt.Printf("Created relationship: %s\n", view.ID)
		fmt.Printf("  %s -[%s]-> %s  %s\n", subject, view.Predicate, object, formatInterval(view.StartsAt, view.EndsAt))

		return nil
	})
}

type relateUpdateFlags struct {
	predicate  string
	weight     float64
	from       int64
	until      int64
	clearFrom  bool
	clearUntil bool
	meta       string
}

func newRelateUpdateCmd() *cobra.Command {
	var flags relateUpdateFlags

	cmd := &cobra.Command{
		Use:   "update RELATIONSHIP_ID",
		Short: "Update a relationship",
		Long: `Applies a partial update to an existing relationship. Only the
flags you pass change; --clear-from and --clear-until reopen a bound.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelateUpdate(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.predicate, "predicate", "", "New predicate")
	cmd.Flags().Float64Var(&flags.weight, "weight", 0, "New weight")
	cmd.Flags().Int64Var(&flags.from, "from", 0, "New start time (inclusive)")
	cmd.Flags().Int64Var(&flags.until, "until", 0, "New end time (exclusive)")
	cmd.Flags().BoolVar(&flags.clearFrom, "clear-from", false, "Remove the start bound")
	cmd.Flags().BoolVar(&flags.clearUntil, "clear-until", false, "Remove the end bound")
	cmd.Flags().StringVar(&flags.meta, "meta", "", "New metadata as JSON")

	return cmd
}

func runRelateUpdate(cmd *cobra.Command, id string, flags relateUpdateFlags) error {
	ctx := cmd.Context()

	meta, err := parseMetaFlag(flags.meta)
	if err != nil {
		return err
	}

	params := services.UpdateRelationshipParams{
		ClearStartsAt: flags.clearFrom,
		ClearEndsAt:   flags.clearUntil,
		Meta:          meta,
	}
	if cmd.Flags().Changed("predicate") {
		params.Predicate = &flags.predicate
	}
	if cmd.Flags().Changed("weight") {
		params.Weight = &flags.weight
	}
	if cmd.Flags().Changed("from") {
		params.StartsAt = &flags.from
	}
	if cmd.Flags().Changed("until") {
		params.EndsAt = &flags.until
	}

	return withDeps(func(d *Deps) error {
		view, err := d.Relationships.HandleUpdate(ctx, id, params)
		if err != nil {
			return fmt.Errorf("updating relationship: %w", err)
		}

		fmt.Printf("Updated relationship: %s\n", view.ID)
		printRelationshipView(view)

		return nil
	})
}

func newRelateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete RELATIONSHIP_ID",
		Short: "Delete a relationship",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelateDelete,
	}
}

func runRelateDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if err := d.Relationships.HandleDelete(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting relationship: %w", err)
		}

		fmt.Printf("Deleted relationship: %s\n", args[0])
		return nil
	})
}

func newRelateHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history RELATIONSHIP_ID",
		Short: "Show the audit trail of a relationship",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelateHistory,
	}
}

func runRelateHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		entries, err := d.Relationships.HandleHistory(ctx, args[0])
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No history found.")
			return nil
		}

		for _, entry := range entries {
			fmt.Printf("  %s  %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"), entry.Action)
		}

		return nil
	})
}
