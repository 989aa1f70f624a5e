package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a story as a JSON archive",
		Long: `Writes the story's entities and relationships as a JSON archive
that 'saga import' can read back. Without --output the archive goes to
stdout.

Examples:
  saga -s mystory export
  saga -s mystory export --output backup.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, output string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		w := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		result, err := d.Export.Handle(ctx, d.StoryID, w)
		if err != nil {
			return fmt.Errorf("exporting story: %w", err)
		}

		if output != "" {
			fmt.Printf("Exported %d entities and %d relationships to %s\n",
				result.Entities, result.Relationships, output)
		}

		return nil
	})
}
