package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/saga-core/internal/application/handlers"
)

type relationsFlags struct {
	at        int64
	with      string
	predicate string
	format    string
}

func newRelationsCmd() *cobra.Command {
	var flags relationsFlags

	cmd := &cobra.Command{
		Use:   "relations ENTITY",
		Short: "List relationships for an entity",
		Long: `Shows the relationships connected to an entity.

With --at, only relationships active at that story time are shown: an edge
is active when its start is at or before the time and its end, if any, is
after it.

With --with, only relationships connecting the entity to the other entity
are shown, in either direction.

Examples:
  saga -s mystory relations Mira
  saga -s mystory relations Mira --at 42
  saga -s mystory relations Mira --with "Harbor District" --at 42
  saga -s mystory relations Mira --predicate located_at --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelations(cmd, args[0], flags)
		},
	}

	cmd.Flags().Int64Var(&flags.at, "at", 0, "Only relationships active at this story time")
	cmd.Flags().StringVar(&flags.with, "with", "", "Only relationships connecting to this entity")
	cmd.Flags().StringVar(&flags.predicate, "predicate", "", "Filter by predicate")
	cmd.Flags().StringVar(&flags.format, "format", "list", "Output format: list, json")

	return cmd
}

func runRelations(cmd *cobra.Command, entityRef string, flags relationsFlags) error {
	ctx := cmd.Context()

	if flags.format != "list" && flags.format != "json" {
		return fmt.Errorf("invalid format: %s (valid: list, json)", flags.format)
	}
	if flags.with != "" && flags.predicate != "" {
		return fmt.Errorf("--predicate cannot be combined with --with")
	}

	var at *int64
	if cmd.Flags().Changed("at") {
		at = &flags.at
	}

	if flags.with != "" {
		return runRelationsBetween(ctx, entityRef, flags, at)
	}

	opts := handlers.RelationsOptions{
		At:        at,
		Predicate: flags.predicate,
	}

	return withDeps(func(d *Deps) error {
		result, err := d.Relationships.HandleRelations(ctx, d.StoryID, entityRef, opts)
		if err != nil {
			return fmt.Errorf("listing relationships: %w", err)
		}

		if flags.format == "json" {
			return printJSON(result)
		}

		if len(result.Relationships) == 0 {
			fmt.Printf("No relationships found for entity: %s\n", entityRef)
			return nil
		}

		fmt.Printf("Relationships for %s (%d):\n", entityRef, len(result.Relationships))
		for i := range result.Relationships {
			printRelationshipView(&result.Relationships[i])
		}

		return nil
	})
}

func runRelationsBetween(ctx context.Context, entityRef string, flags relationsFlags, at *int64) error {
	return withDeps(func(d *Deps) error {
		views, err := d.Relationships.HandleBetween(ctx, d.StoryID, entityRef, flags.with, at)
		if err != nil {
			return fmt.Errorf("listing relationships between entities: %w", err)
		}

		if flags.format == "json" {
			return printJSON(views)
		}

		if len(views) == 0 {
			fmt.Printf("No relationships found between %s and %s\n", entityRef, flags.with)
			return nil
		}

		fmt.Printf("Relationships between %s and %s (%d):\n", entityRef, flags.with, len(views))
		for i := range views {
			printRelationshipView(&views[i])
		}

		return nil
	})
}
