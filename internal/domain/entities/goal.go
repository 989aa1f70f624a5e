package entities

import "time"

// StoryGoal is a narrative objective. A goal is fulfilled by linking it to the
// milestone that realized it, which stamps FulfilledAt.
type StoryGoal struct {
	ID                string     `json:"id"`
	SubjectID         string     `json:"subject_id"`
	Verb              string     `json:"verb"`
	ObjectID          *string    `json:"object_id,omitempty"`
	Description       string     `json:"description,omitempty"`
	FulfilledAt       *time.Time `json:"fulfilled_at,omitempty"`
	LinkedMilestoneID *string    `json:"linked_milestone_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Fulfilled reports whether the goal has been fulfilled.
func (g *StoryGoal) Fulfilled() bool {
	return g.FulfilledAt != nil
}
