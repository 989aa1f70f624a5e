package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/saga-core/internal/application/handlers"
)

func newSearchCmd() *cobra.Command {
	var (
		limit       int
		contentType string
	)

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Semantic search over story content",
		Long: `Performs semantic search over indexed story content: scene blocks,
milestones, goals, entities and relationships.

Examples:
  saga -s mystory search "who betrayed Mira"
  saga -s mystory search "the harbor fire" --type scene_block`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], contentType, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultSearchLimit, "Maximum number of results")
	cmd.Flags().StringVarP(&contentType, "type", "t", "", "Filter by content type (scene_block, milestone, goal, entity, relationship)")

	return cmd
}

func runSearch(cmd *cobra.Command, query, contentType string, limit int) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if d.Search == nil {
			return errOpenAIKeyRequired
		}

		var result *handlers.SearchResult
		var err error
		if contentType != "" {
			result, err = d.Search.HandleByType(ctx, query, contentType, limit)
		} else {
			result, err = d.Search.Handle(ctx, query, limit)
		}
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}

		if len(result.Snippets) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		fmt.Printf("Found %d results:\n\n", len(result.Snippets))
		for i, snippet := range result.Snippets {
			fmt.Printf("%d. [%s] %s\n", i+1, snippet.Type, snippet.Text)
			fmt.Printf("   ref: %s\n\n", snippet.RefID)
		}

		return nil
	})
}
