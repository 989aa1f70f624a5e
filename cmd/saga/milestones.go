package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMilestonesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestones",
		Short: "Manage plot milestones",
	}

	cmd.AddCommand(
		newMilestonesAddCmd(),
		newMilestonesListCmd(),
		newMilestonesDeleteCmd(),
	)

	return cmd
}

type milestoneFlags struct {
	subject     string
	object      string
	description string
	weight      float64
}

func newMilestonesAddCmd() *cobra.Command {
	var flags milestoneFlags

	cmd := &cobra.Command{
		Use:   "add SCENE_ID VERB",
		Short: "Record a milestone in a scene",
		Long: `Records a plot beat in a scene.

Examples:
  saga -s mystory milestones add SCENE betrays --subject Mira --object Bren
  saga -s mystory milestones add SCENE "burns down" --subject "Harbor District" --weight 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMilestonesAdd(cmd, args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVar(&flags.subject, "subject", "", "Subject entity (name or ID)")
	cmd.Flags().StringVar(&flags.object, "object", "", "Object entity (name or ID)")
	cmd.Flags().StringVarP(&flags.description, "description", "d", "", "Milestone description")
	cmd.Flags().Float64Var(&flags.weight, "weight", 1.0, "Narrative weight")

	return cmd
}

func runMilestonesAdd(cmd *cobra.Command, sceneID, verb string, flags milestoneFlags) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		milestone, err := d.Milestones.HandleCreate(ctx, d.StoryID, sceneID, flags.subject, verb, flags.object, flags.description, flags.weight)
		if err != nil {
			return fmt.Errorf("recording milestone: %w", err)
		}

		fmt.Printf("Recorded milestone: %s\n", milestone.ID)
		fmt.Printf("  %s\n", milestone.Verb)

		return nil
	})
}

func newMilestonesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list SCENE_ID",
		Short: "List the milestones of a scene",
		Args:  cobra.ExactArgs(1),
		RunE:  runMilestonesList,
	}
}

func runMilestonesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		milestones, err := d.Milestones.HandleListByScene(ctx, args[0])
		if err != nil {
			return fmt.Errorf("listing milestones: %w", err)
		}

		if len(milestones) == 0 {
			fmt.Println("No milestones found.")
			return nil
		}

		for _, milestone := range milestones {
			fmt.Printf("  %-38s %s\n", milestone.ID, milestone.Verb)
			if milestone.Description != "" {
				fmt.Printf("  %-38s %s\n", "", milestone.Description)
			}
		}

		return nil
	})
}

func newMilestonesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete MILESTONE_ID",
		Short: "Delete a milestone",
		Args:  cobra.ExactArgs(1),
		RunE:  runMilestonesDelete,
	}
}

func runMilestonesDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if err := d.Milestones.HandleDelete(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting milestone: %w", err)
		}

		fmt.Printf("Deleted milestone: %s\n", args[0])
		return nil
	})
}
