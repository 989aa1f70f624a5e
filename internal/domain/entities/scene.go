package entities

import "time"

// BlockType represents the kind of content a scene block carries.
type BlockType string

const (
	BlockProse     BlockType = "prose"
	BlockDialogue  BlockType = "dialogue"
	BlockMilestone BlockType = "milestone"
)

// Scene represents a story scene with optional location and story-time anchor.
type Scene struct {
	ID         string    `json:"id"`
	StoryID    string    `json:"story_id"`
	Title      string    `json:"title"`
	LocationID *string   `json:"location_id,omitempty"`
	Timestamp  *int64    `json:"timestamp,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SceneBlock is a unit of scene content. Blocks are ordered within a scene by
// Position. The prose/dialogue/milestone fields are populated according to
// Type; the rest stay empty.
type SceneBlock struct {
	ID        string         `json:"id"`
	SceneID   string         `json:"scene_id"`
	Type      BlockType      `json:"block_type"`
	Position  int            `json:"position"`
	Content   string         `json:"content,omitempty"`
	Summary   string         `json:"summary,omitempty"`
	Lines     map[string]any `json:"lines,omitempty"`
	SubjectID *string        `json:"subject_id,omitempty"`
	Verb      string         `json:"verb,omitempty"`
	ObjectID  *string        `json:"object_id,omitempty"`
	Weight    *float64       `json:"weight,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
