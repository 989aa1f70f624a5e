package main

import (
	"encoding/json"
	"fmt"

	"github.com/ersonp/saga-core/internal/application/handlers"
)

// parseMetaFlag decodes a --meta flag value into a map.
func parseMetaFlag(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}

	var meta map[string]any
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("parsing --meta: %w", err)
	}

	return meta, nil
}

// formatInterval renders a relationship's validity as [starts, ends).
// Open bounds render as "..".
func formatInterval(startsAt, endsAt *int64) string {
	if startsAt == nil && endsAt == nil {
		return "always"
	}

	start := ".."
	if startsAt != nil {
		start = fmt.Sprintf("%d", *startsAt)
	}
	end := ".."
	if endsAt != nil {
		end = fmt.Sprintf("%d", *endsAt)
	}

	return fmt.Sprintf("[%s, %s)", start, end)
}

// printRelationshipView renders one relationship line.
func printRelationshipView(view *handlers.RelationshipView) {
	fmt.Printf("  %-38s %-20s %-14s %s -> %s\n",
		view.ID,
		view.Predicate,
		formatInterval(view.StartsAt, view.EndsAt),
		view.SubjectID,
		view.ObjectID,
	)
}

// printJSON renders any value as indented JSON.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
