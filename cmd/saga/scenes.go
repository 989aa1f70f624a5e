package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/services"
)

func newScenesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "Manage scenes and their content blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenesList(cmd, DefaultListLimit)
		},
	}

	cmd.AddCommand(
		newScenesCreateCmd(),
		newScenesListCmd(),
		newScenesShowCmd(),
		newScenesDeleteCmd(),
		newScenesAddBlockCmd(),
		newScenesMoveBlockCmd(),
		newScenesDeleteBlockCmd(),
		newScenesRecapCmd(),
	)

	return cmd
}

func newScenesCreateCmd() *cobra.Command {
	var (
		location string
		at       int64
	)

	cmd := &cobra.Command{
		Use:   "create TITLE",
		Short: "Create a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var timestamp *int64
			if cmd.Flags().Changed("at") {
				timestamp = &at
			}
			return runScenesCreate(cmd, args[0], location, timestamp)
		},
	}

	cmd.Flags().StringVar(&location, "location", "", "Location entity (name or ID)")
	cmd.Flags().Int64Var(&at, "at", 0, "Story time the scene takes place at")

	return cmd
}

func runScenesCreate(cmd *cobra.Command, title, location string, timestamp *int64) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		scene, err := d.Scenes.HandleCreate(ctx, d.StoryID, title, location, timestamp)
		if err != nil {
			return fmt.Errorf("creating scene: %w", err)
		}

		fmt.Printf("Created scene: %s\n", scene.ID)
		fmt.Printf("  %s\n", scene.Title)

		return nil
	})
}

func newScenesListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenesList(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultListLimit, "Maximum number of scenes to return")

	return cmd
}

func runScenesList(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		scenes, err := d.Scenes.HandleList(ctx, d.StoryID, limit, 0)
		if err != nil {
			return fmt.Errorf("listing scenes: %w", err)
		}

		if len(scenes) == 0 {
			fmt.Println("No scenes found.")
			return nil
		}

		for _, scene := range scenes {
			at := ""
			if scene.Timestamp != nil {
				at = fmt.Sprintf("t=%d", *scene.Timestamp)
			}
			fmt.Printf("  %-38s %-10s %s\n", scene.ID, at, scene.Title)
		}

		return nil
	})
}

func newScenesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show SCENE_ID",
		Short: "Show a scene with its blocks",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenesShow,
	}
}

func runScenesShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		scene, blocks, err := d.Scenes.HandleShow(ctx, args[0])
		if err != nil {
			return fmt.Errorf("showing scene: %w", err)
		}

		fmt.Printf("Scene: %s\n", scene.Title)
		if scene.Timestamp != nil {
			fmt.Printf("Time:  %d\n", *scene.Timestamp)
		}
		fmt.Println()

		if len(blocks) == 0 {
			fmt.Println("No blocks.")
			return nil
		}

		for _, block := range blocks {
			printBlock(&block)
		}

		return nil
	})
}

func printBlock(block *entities.SceneBlock) {
	switch block.Type {
	case entities.BlockMilestone:
		fmt.Printf("%3d. [%s] %s (%s)\n", block.Position, block.Type, block.Verb, block.ID)
	default:
		content := block.Content
		if len(content) > 60 {
			content = content[:57] + "..."
		}
		fmt.Printf("%3d. [%s] %s (%s)\n", block.Position, block.Type, content, block.ID)
	}
}

func newScenesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete SCENE_ID",
		Short: "Delete a scene and its blocks",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenesDelete,
	}
}

func runScenesDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if err := d.Scenes.HandleDelete(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting scene: %w", err)
		}

		fmt.Printf("Deleted scene: %s\n", args[0])
		return nil
	})
}

type addBlockFlags struct {
	blockType string
	content   string
	summary   string
	subject   string
	verb      string
	object    string
	position  int
}

func newScenesAddBlockCmd() *cobra.Command {
	var flags addBlockFlags

	cmd := &cobra.Command{
		Use:   "add-block SCENE_ID",
		Short: "Add a content block to a scene",
		Long: `Adds a block at the end of a scene, or at --position.

Block types: prose, dialogue, milestone.
Milestone blocks take --subject, --verb and --object and also record a
milestone on the story timeline.

Examples:
  saga -s mystory scenes add-block SCENE --type prose --content "Rain fell over the harbor."
  saga -s mystory scenes add-block SCENE --type milestone --subject Mira --verb discovers --object "the map"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenesAddBlock(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.blockType, "type", "t", "prose", "Block type (prose, dialogue, milestone)")
	cmd.Flags().StringVar(&flags.content, "content", "", "Block content")
	cmd.Flags().StringVar(&flags.summary, "summary", "", "Block summary")
	cmd.Flags().StringVar(&flags.subject, "subject", "", "Milestone subject entity (name or ID)")
	cmd.Flags().StringVar(&flags.verb, "verb", "", "Milestone verb")
	cmd.Flags().StringVar(&flags.object, "object", "", "Milestone object entity (name or ID)")
	cmd.Flags().IntVar(&flags.position, "position", -1, "Insert at position instead of appending")

	return cmd
}

func runScenesAddBlock(cmd *cobra.Command, sceneID string, flags addBlockFlags) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		params := services.BlockParams{
			Type:    entities.BlockType(flags.blockType),
			Content: flags.content,
			Summary: flags.summary,
			Verb:    flags.verb,
		}

		if flags.subject != "" {
			subject, err := d.Entities.HandleShow(ctx, d.StoryID, flags.subject)
			if err != nil {
				return fmt.Errorf("resolving subject: %w", err)
			}
			params.SubjectID = &subject.ID
		}
		if flags.object != "" {
			object, err := d.Entities.HandleShow(ctx, d.StoryID, flags.object)
			if err != nil {
				return fmt.Errorf("resolving object: %w", err)
			}
			params.ObjectID = &object.ID
		}

		var block *entities.SceneBlock
		var err error
		if flags.position >= 0 {
			block, err = d.Scenes.HandleInsertBlock(ctx, sceneID, flags.position, params)
		} else {
			block, err = d.Scenes.HandleAppendBlock(ctx, sceneID, params)
		}
		if err != nil {
			return fmt.Errorf("adding block: %w", err)
		}

		fmt.Printf("Added %s block at position %d: %s\n", block.Type, block.Position, block.ID)
		return nil
	})
}

func newScenesMoveBlockCmd() *cobra.Command {
	var position int

	cmd := &cobra.Command{
		Use:   "move-block BLOCK_ID",
		Short: "Move a block to a new position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenesMoveBlock(cmd, args[0], position)
		},
	}

	cmd.Flags().IntVar(&position, "position", 0, "New position")

	return cmd
}

func runScenesMoveBlock(cmd *cobra.Command, blockID string, position int) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if err := d.Scenes.HandleMoveBlock(ctx, blockID, position); err != nil {
			return fmt.Errorf("moving block: %w", err)
		}

		fmt.Printf("Moved block %s to position %d\n", blockID, position)
		return nil
	})
}

func newScenesDeleteBlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-block BLOCK_ID",
		Short: "Delete a block from its scene",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenesDeleteBlock,
	}
}

func runScenesDeleteBlock(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if err := d.Scenes.HandleDeleteBlock(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting block: %w", err)
		}

		fmt.Printf("Deleted block: %s\n", args[0])
		return nil
	})
}

func newScenesRecapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recap SCENE_ID",
		Short: "Summarize a scene",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenesRecap,
	}
}

func runScenesRecap(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if d.Ingest == nil {
			// Recap shares the LLM with ingestion
			return errOpenAIKeyRequired
		}

		recap, err := d.Scenes.HandleRecap(ctx, args[0])
		if err != nil {
			return fmt.Errorf("summarizing scene: %w", err)
		}

		fmt.Println(recap)
		return nil
	})
}
