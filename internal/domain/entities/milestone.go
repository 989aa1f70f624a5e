package entities

import "time"

// Milestone is a structured story event: subject verb object, anchored to the
// scene it happened in. Milestones are first-class records so goals can link
// to them independently of scene block lifecycle.
type Milestone struct {
	ID          string         `json:"id"`
	SceneID     string         `json:"scene_id"`
	SubjectID   *string        `json:"subject_id,omitempty"`
	Verb        string         `json:"verb"`
	ObjectID    *string        `json:"object_id,omitempty"`
	Description string         `json:"description,omitempty"`
	Weight      float64        `json:"weight"`
	Meta        map[string]any `json:"meta,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
