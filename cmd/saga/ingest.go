package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/saga-core/internal/application/handlers"
)

type ingestFlags struct {
	pattern   string
	recursive bool
}

func newIngestCmd() *cobra.Command {
	var flags ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest PATH",
		Short: "Extract entities and relationships from prose",
		Long: `Reads prose files and extracts entities and relationships using the
LLM. PATH may be a single file or a directory; with a directory, --pattern
selects which files to read.

Examples:
  saga -s mystory ingest chapter1.txt
  saga -s mystory ingest drafts/ --pattern "*.md" --recursive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.pattern, "pattern", "p", "*.txt", "File pattern for directory ingestion")
	cmd.Flags().BoolVarP(&flags.recursive, "recursive", "r", false, "Recurse into subdirectories")

	return cmd
}

func runIngest(cmd *cobra.Command, path string, flags ingestFlags) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if d.Ingest == nil {
			return errOpenAIKeyRequired
		}

		if handlers.IsDirectory(path) {
			result, err := d.Ingest.HandleDirectory(ctx, d.StoryID, path, flags.pattern, flags.recursive, func(file string) {
				fmt.Printf("Ingesting %s...\n", file)
			})
			if err != nil {
				return fmt.Errorf("ingesting directory: %w", err)
			}

			fmt.Printf("\nIngested %d files: %d entities, %d relationships\n",
				result.TotalFiles, result.TotalEntities, result.TotalRelationships)
			for _, e := range result.Errors {
				fmt.Printf("  error: %v\n", e)
			}

			return nil
		}

		fmt.Printf("Ingesting %s...\n", path)

		result, err := d.Ingest.Handle(ctx, d.StoryID, path)
		if err != nil {
			return fmt.Errorf("ingesting file: %w", err)
		}

		fmt.Printf("Extracted %d entities and %d relationships from %s\n",
			len(result.Entities), len(result.Relationships), result.FilePath)
		if result.Skipped > 0 {
			fmt.Printf("Skipped %d low-confidence elements\n", result.Skipped)
		}

		for _, entity := range result.Entities {
			fmt.Printf("  + [%s] %s\n", entity.Type, entity.Name)
		}
		for _, rel := range result.Relationships {
			fmt.Printf("  + %s -[%s]-> %s\n", rel.SourceID, rel.Predicate, rel.TargetID)
		}

		return nil
	})
}
