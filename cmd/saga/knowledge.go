package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newKnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Track what entities know over story time",
	}

	cmd.AddCommand(
		newKnowledgeAddCmd(),
		newKnowledgeListCmd(),
		newKnowledgeStateCmd(),
		newKnowledgeDeleteCmd(),
	)

	return cmd
}

func newKnowledgeAddCmd() *cobra.Command {
	var (
		at   int64
		data string
	)

	cmd := &cobra.Command{
		Use:   "add ENTITY",
		Short: "Record a knowledge snapshot",
		Long: `Records what an entity knows as a JSON object. With --at, the
snapshot anchors to a story time; without it, the snapshot is the entity's
baseline knowledge.

Examples:
  saga -s mystory knowledge add Mira --data '{"map_location": "unknown"}'
  saga -s mystory knowledge add Mira --at 42 --data '{"map_location": "the vault"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var timestamp *int64
			if cmd.Flags().Changed("at") {
				timestamp = &at
			}
			return runKnowledgeAdd(cmd, args[0], timestamp, data)
		},
	}

	cmd.Flags().Int64Var(&at, "at", 0, "Story time of the snapshot")
	cmd.Flags().StringVar(&data, "data", "", "Snapshot content as JSON (required)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runKnowledgeAdd(cmd *cobra.Command, entityRef string, timestamp *int64, data string) error {
	ctx := cmd.Context()

	knowledge, err := parseMetaFlag(data)
	if err != nil {
		return fmt.Errorf("parsing --data: %w", err)
	}

	return withDeps(func(d *Deps) error {
		snapshot, err := d.Knowledge.HandleAdd(ctx, d.StoryID, entityRef, timestamp, knowledge)
		if err != nil {
			return fmt.Errorf("recording snapshot: %w", err)
		}

		fmt.Printf("Recorded snapshot: %s\n", snapshot.ID)
		return nil
	})
}

func newKnowledgeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list ENTITY",
		Short: "List an entity's knowledge snapshots",
		Args:  cobra.ExactArgs(1),
		RunE:  runKnowledgeList,
	}
}

func runKnowledgeList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		snapshots, err := d.Knowledge.HandleList(ctx, d.StoryID, args[0])
		if err != nil {
			return fmt.Errorf("listing snapshots: %w", err)
		}

		if len(snapshots) == 0 {
			fmt.Println("No snapshots found.")
			return nil
		}

		for i := range snapshots {
			snapshot := &snapshots[i]
			at := "baseline"
			if snapshot.Timestamp != nil {
				at = fmt.Sprintf("t=%d", *snapshot.Timestamp)
			}
			fmt.Printf("  %-38s %s\n", snapshot.ID, at)
		}

		return nil
	})
}

func newKnowledgeStateCmd() *cobra.Command {
	var at int64

	cmd := &cobra.Command{
		Use:   "state ENTITY",
		Short: "Compute what an entity knows at a story time",
		Long: `Merges an entity's snapshots up to the given story time, later
snapshots overriding earlier keys. Without --at, gives the latest state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var timestamp *int64
			if cmd.Flags().Changed("at") {
				timestamp = &at
			}
			return runKnowledgeState(cmd, args[0], timestamp)
		},
	}

	cmd.Flags().Int64Var(&at, "at", 0, "Story time to compute the state at")

	return cmd
}

func runKnowledgeState(cmd *cobra.Command, entityRef string, at *int64) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		result, err := d.Knowledge.HandleState(ctx, d.StoryID, entityRef, at)
		if err != nil {
			return fmt.Errorf("computing state: %w", err)
		}

		return printJSON(result)
	})
}

func newKnowledgeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete SNAPSHOT_ID",
		Short: "Delete a knowledge snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runKnowledgeDelete,
	}
}

func runKnowledgeDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if err := d.Knowledge.HandleDelete(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting snapshot: %w", err)
		}

		fmt.Printf("Deleted snapshot: %s\n", args[0])
		return nil
	})
}
