package entities

import "time"

// KnowledgeSnapshot captures what an entity knows at a story-time point.
// A nil Timestamp marks a baseline snapshot that applies from the beginning.
type KnowledgeSnapshot struct {
	ID        string         `json:"id"`
	EntityID  string         `json:"entity_id"`
	Timestamp *int64         `json:"timestamp,omitempty"`
	Knowledge map[string]any `json:"knowledge"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
