package entities

import "time"

// ContentType identifies which kind of record a snippet was derived from.
type ContentType string

const (
	ContentSceneBlock   ContentType = "scene_block"
	ContentMilestone    ContentType = "milestone"
	ContentGoal         ContentType = "goal"
	ContentEntity       ContentType = "entity"
	ContentRelationship ContentType = "relationship"
)

// Snippet is the unit stored in the vector database for semantic search.
// RefID points back at the relational record the text was derived from.
type Snippet struct {
	ID        string      `json:"id"`
	Type      ContentType `json:"content_type"`
	RefID     string      `json:"ref_id"`
	Text      string      `json:"text"`
	Embedding []float32   `json:"embedding,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
