// Package ports defines interfaces for external service communication.
package ports

import "context"

// LLMClient defines the interface for LLM operations.
type LLMClient interface {
	// ExtractElements extracts story elements (entities, relationships)
	// from the given prose.
	ExtractElements(ctx context.Context, text string) ([]StoryElement, error)

	// Summarize produces a short recap of the given scene text.
	Summarize(ctx context.Context, text string) (string, error)
}

// StoryElement is a single element extracted from prose. Kind selects which
// fields are populated: entities carry Name/EntityType/Description,
// relationships carry Subject/Predicate/Object and optional story-time bounds.
type StoryElement struct {
	Kind        string  `json:"kind"` // "entity" or "relationship"
	Name        string  `json:"name,omitempty"`
	EntityType  string  `json:"entity_type,omitempty"`
	Description string  `json:"description,omitempty"`
	Subject     string  `json:"subject,omitempty"`
	Predicate   string  `json:"predicate,omitempty"`
	Object      string  `json:"object,omitempty"`
	StartsAt    *int64  `json:"starts_at,omitempty"`
	EndsAt      *int64  `json:"ends_at,omitempty"`
	Confidence  float64 `json:"confidence"`
}
