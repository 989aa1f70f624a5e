package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/saga-core/internal/application/handlers"
	"github.com/ersonp/saga-core/internal/domain/services"
	"github.com/ersonp/saga-core/internal/infrastructure/config"
	"github.com/ersonp/saga-core/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/saga-core/internal/infrastructure/vectordb/qdrant"
)

func newStoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stories",
		Short: "Manage stories",
		RunE:  runStoriesList,
	}

	cmd.AddCommand(
		newStoriesListCmd(),
		newStoriesCreateCmd(),
		newStoriesStatusCmd(),
		newStoriesDeleteCmd(),
	)

	return cmd
}

func newStoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stories",
		RunE:  runStoriesList,
	}
}

func runStoriesList(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	stories, err := config.LoadStories(cwd)
	if err != nil {
		return fmt.Errorf("loading stories: %w", err)
	}

	if len(stories.Stories) == 0 {
		fmt.Println("No stories configured.")
		fmt.Println("Use 'saga stories create NAME' to create a story.")
		return nil
	}

	fmt.Printf("%-25s %-30s %s\n", "NAME", "COLLECTION", "DESCRIPTION")
	fmt.Printf("%-25s %-30s %s\n", "----", "----------", "-----------")

	for name, story := range stories.Stories {
		fmt.Printf("%-25s %-30s %s\n", name, story.Collection, story.Description)
	}

	return nil
}

func newStoriesCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoriesCreate(cmd, args[0], description)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Story description")

	return cmd
}

func runStoriesCreate(cmd *cobra.Command, name string, description string) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	storyDB, err := openStoryDB(cwd, name)
	if err != nil {
		return err
	}
	defer storyDB.Close()

	collectionManager, err := newCollectionManager(cwd, config.GenerateCollectionName(name))
	if err != nil {
		return err
	}
	defer collectionManager.Close()

	handler := handlers.NewInitHandler(storyDB, services.NewPredicateService(storyDB), collectionManager)

	result, err := handler.Handle(ctx, cwd, name, description)
	if err != nil {
		return fmt.Errorf("creating story: %w", err)
	}

	fmt.Printf("Created story %q\n", result.StoryName)
	fmt.Printf("  collection: %s\n", result.CollectionName)
	fmt.Printf("  database:   %s\n", result.DatabasePath)

	return nil
}

func newStoriesStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show record counts for the selected story",
		Long: `Shows how many entities and relationships the selected story holds.

Example:
  saga -s mystory stories status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoriesStatus(cmd)
		},
	}
}

func runStoriesStatus(cmd *cobra.Command) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		entityCount, err := d.Entities.HandleCount(ctx, d.StoryID)
		if err != nil {
			return fmt.Errorf("counting entities: %w", err)
		}

		relCount, err := d.Relationships.HandleCount(ctx)
		if err != nil {
			return fmt.Errorf("counting relationships: %w", err)
		}

		fmt.Printf("Story: %s\n", globalStory)
		fmt.Printf("  entities:      %d\n", entityCount)
		fmt.Printf("  relationships: %d\n", relCount)

		return nil
	})
}

func newStoriesDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoriesDelete(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete even if the story contains entities")

	return cmd
}

func runStoriesDelete(cmd *cobra.Command, name string, force bool) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	stories, err := config.LoadStories(cwd)
	if err != nil {
		return fmt.Errorf("loading stories: %w", err)
	}

	entry, err := stories.Get(name)
	if err != nil {
		return err
	}

	if !force {
		count, err := countStoryEntities(ctx, cwd, name)
		if err == nil && count > 0 {
			return fmt.Errorf("story %q contains %d entities, use --force to delete", name, count)
		}
	}

	collectionManager, err := newCollectionManager(cwd, entry.Collection)
	if err == nil {
		if err := collectionManager.DeleteCollection(ctx); err != nil {
			fmt.Printf("Warning: could not delete collection %q: %v\n", entry.Collection, err)
		}
		collectionManager.Close()
	}

	if err := os.RemoveAll(config.StoryDir(cwd, name)); err != nil {
		return fmt.Errorf("removing story directory: %w", err)
	}

	stories.Remove(name)
	if err := stories.Save(cwd); err != nil {
		return fmt.Errorf("saving stories: %w", err)
	}

	fmt.Printf("Deleted story %q\n", name)

	return nil
}

// newCollectionManager builds a Qdrant repository bound to the given
// collection.
func newCollectionManager(basePath, collection string) (*qdrant.Repository, error) {
	cfg, err := config.Load(basePath)
	if err != nil {
		// Fall back to defaults when the config has not been written yet
		cfg = config.Default()
	}

	qdrantCfg := cfg.Qdrant
	qdrantCfg.Collection = collection

	repo, err := qdrant.NewRepository(qdrantCfg)
	if err != nil {
		return nil, fmt.Errorf("creating qdrant repository: %w", err)
	}

	return repo, nil
}

// countStoryEntities counts the entities in a story's database, if it exists.
func countStoryEntities(ctx context.Context, basePath, name string) (int, error) {
	path := config.SQLitePathForStory(basePath, name)
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}

	storyDB, err := sqlite.NewRepository(config.SQLiteConfig{Path: path})
	if err != nil {
		return 0, err
	}
	defer storyDB.Close()

	return storyDB.CountEntities(ctx, config.SanitizeStoryName(name))
}
