package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/saga-core/internal/application/handlers"
	"github.com/ersonp/saga-core/internal/domain/entities"
)

func newEntitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Manage story entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntitiesList(cmd, "", DefaultListLimit)
		},
	}

	cmd.AddCommand(
		newEntitiesCreateCmd(),
		newEntitiesListCmd(),
		newEntitiesShowCmd(),
		newEntitiesDeleteCmd(),
	)

	return cmd
}

func newEntitiesCreateCmd() *cobra.Command {
	var (
		entityType  string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an entity",
		Long: `Creates a named story entity.

Valid types: character, location, artifact, event, knowledge_fact

Examples:
  saga -s mystory entities create Mira --type character
  saga -s mystory entities create "Harbor District" --type location -d "the old docks"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntitiesCreate(cmd, args[0], entityType, description)
		},
	}

	cmd.Flags().StringVarP(&entityType, "type", "t", "character", "Entity type")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Entity description")

	return cmd
}

func runEntitiesCreate(cmd *cobra.Command, name, entityType, description string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		entity, err := d.Entities.HandleCreate(ctx, d.StoryID, name, entityType, description)
		if err != nil {
			return fmt.Errorf("creating entity: %w", err)
		}

		fmt.Printf("Created entity: %s\n", entity.ID)
		fmt.Printf("  %s (%s)\n", entity.Name, entity.Type)

		return nil
	})
}

func newEntitiesListCmd() *cobra.Command {
	var (
		searchQuery string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntitiesList(cmd, searchQuery, limit)
		},
	}

	cmd.Flags().StringVar(&searchQuery, "search", "", "Search entities by name")
	cmd.Flags().IntVar(&limit, "limit", DefaultListLimit, "Maximum number of entities to return")

	return cmd
}

func runEntitiesList(cmd *cobra.Command, searchQuery string, limit int) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		var result *handlers.EntityListResult
		var err error

		if searchQuery != "" {
			result, err = d.Entities.HandleSearch(ctx, d.StoryID, searchQuery, limit)
		} else {
			result, err = d.Entities.HandleList(ctx, d.StoryID, limit, 0)
		}
		if err != nil {
			return fmt.Errorf("listing entities: %w", err)
		}

		if len(result.Entities) == 0 {
			fmt.Println("No entities found.")
			return nil
		}

		fmt.Printf("Entities (%d total):\n\n", result.Total)
		for _, entity := range result.Entities {
			printEntityLine(entity)
		}

		return nil
	})
}

func newEntitiesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show an entity by name or ID",
		Args:  cobra.ExactArgs(1),
		RunE:  runEntitiesShow,
	}
}

func runEntitiesShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		entity, err := d.Entities.HandleShow(ctx, d.StoryID, args[0])
		if err != nil {
			return fmt.Errorf("showing entity: %w", err)
		}

		fmt.Printf("ID:          %s\n", entity.ID)
		fmt.Printf("Name:        %s\n", entity.Name)
		fmt.Printf("Type:        %s\n", entity.Type)
		if entity.Description != "" {
			fmt.Printf("Description: %s\n", entity.Description)
		}

		return nil
	})
}

func newEntitiesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete an entity and its relationships",
		Args:  cobra.ExactArgs(1),
		RunE:  runEntitiesDelete,
	}
}

func runEntitiesDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if err := d.Entities.HandleDelete(ctx, d.StoryID, args[0]); err != nil {
			return fmt.Errorf("deleting entity: %w", err)
		}

		fmt.Printf("Deleted entity: %s\n", args[0])
		return nil
	})
}

func printEntityLine(entity *entities.Entity) {
	fmt.Printf("  %-38s %-14s %s\n", entity.ID, entity.Type, entity.Name)
}
