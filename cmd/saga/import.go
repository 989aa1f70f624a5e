package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/saga-core/internal/application/handlers"
)

type importFlags struct {
	format string
	dryRun bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import entities and relationships from JSON or CSV",
		Long: `Imports a story archive. JSON archives carry entities and
relationships; CSV files carry relationship rows with subject, predicate
and object columns plus optional starts_at/ends_at bounds. Entities named
by relationships are created on demand.

Examples:
  saga -s mystory import archive.json
  saga -s mystory import relationships.csv --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		fmt.Printf("Importing %s...\n", filePath)

		result, err := d.Import.Handle(ctx, d.StoryID, filePath, handlers.ImportOptions{
			Format: flags.format,
			DryRun: flags.dryRun,
		})
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Printf("\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", e.Error())
			}
		}

		fmt.Println()
		if flags.dryRun {
			fmt.Printf("Dry run: %d entities and %d relationships would be imported\n",
				result.EntitiesCreated, result.RelationshipsCreated)
		} else {
			fmt.Printf("Imported %d entities and %d relationships\n",
				result.EntitiesCreated, result.RelationshipsCreated)
		}

		return nil
	})
}
