package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGoalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage story goals",
	}

	cmd.AddCommand(
		newGoalsAddCmd(),
		newGoalsListCmd(),
		newGoalsFulfillCmd(),
		newGoalsDeleteCmd(),
		newGoalsCandidatesCmd(),
	)

	return cmd
}

func newGoalsAddCmd() *cobra.Command {
	var (
		object      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add SUBJECT VERB",
		Short: "Record a goal",
		Long: `Records a narrative objective for an entity.

Examples:
  saga -s mystory goals add Mira "find the map"
  saga -s mystory goals add Mira defeats --object "Iron Baron"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGoalsAdd(cmd, args[0], args[1], object, description)
		},
	}

	cmd.Flags().StringVar(&object, "object", "", "Object entity (name or ID)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Goal description")

	return cmd
}

func runGoalsAdd(cmd *cobra.Command, subject, verb, object, description string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		goal, err := d.Goals.HandleCreate(ctx, d.StoryID, subject, verb, object, description)
		if err != nil {
			return fmt.Errorf("recording goal: %w", err)
		}

		fmt.Printf("Recorded goal: %s\n", goal.ID)
		fmt.Printf("  %s %s\n", subject, goal.Verb)

		return nil
	})
}

func newGoalsListCmd() *cobra.Command {
	var (
		open      bool
		fulfilled bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *bool
			if open && fulfilled {
				return fmt.Errorf("--open and --fulfilled are mutually exclusive")
			}
			if open {
				f := false
				filter = &f
			}
			if fulfilled {
				f := true
				filter = &f
			}
			return runGoalsList(cmd, filter, limit)
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Only unfulfilled goals")
	cmd.Flags().BoolVar(&fulfilled, "fulfilled", false, "Only fulfilled goals")
	cmd.Flags().IntVar(&limit, "limit", DefaultGoalLimit, "Maximum number of goals to return")

	return cmd
}

func runGoalsList(cmd *cobra.Command, filter *bool, limit int) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		goals, err := d.Goals.HandleList(ctx, filter, limit)
		if err != nil {
			return fmt.Errorf("listing goals: %w", err)
		}

		if len(goals) == 0 {
			fmt.Println("No goals found.")
			return nil
		}

		for i := range goals {
			goal := &goals[i]
			status := "open"
			if goal.Fulfilled() {
				status = "fulfilled"
			}
			fmt.Printf("  %-38s %-10s %s\n", goal.ID, status, goal.Verb)
			if goal.Description != "" {
				fmt.Printf("  %-38s %-10s %s\n", "", "", goal.Description)
			}
		}

		return nil
	})
}

func newGoalsFulfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fulfill GOAL_ID MILESTONE_ID",
		Short: "Mark a goal as fulfilled by a milestone",
		Args:  cobra.ExactArgs(2),
		RunE:  runGoalsFulfill,
	}
}

func runGoalsFulfill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		goal, err := d.Goals.HandleFulfill(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("fulfilling goal: %w", err)
		}

		fmt.Printf("Fulfilled goal %s via milestone %s\n", goal.ID, args[1])
		return nil
	})
}

func newGoalsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete GOAL_ID",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE:  runGoalsDelete,
	}
}

func runGoalsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if err := d.Goals.HandleDelete(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting goal: %w", err)
		}

		fmt.Printf("Deleted goal: %s\n", args[0])
		return nil
	})
}

func newGoalsCandidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates SUBJECT",
		Short: "List milestones that could fulfill a subject's goals",
		Args:  cobra.ExactArgs(1),
		RunE:  runGoalsCandidates,
	}
}

func runGoalsCandidates(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		milestones, err := d.Goals.HandleMilestonesForSubject(ctx, d.StoryID, args[0])
		if err != nil {
			return fmt.Errorf("listing candidate milestones: %w", err)
		}

		if len(milestones) == 0 {
			fmt.Println("No milestones found.")
			return nil
		}

		for _, milestone := range milestones {
			fmt.Printf("  %-38s %s\n", milestone.ID, milestone.Verb)
		}

		return nil
	})
}
