package entities

import "time"

// Relationship represents a directed edge between two entities, optionally
// bounded on the story's internal time axis. StartsAt and EndsAt are story-time
// points: a nil StartsAt means the relationship has always held, a nil EndsAt
// means it holds indefinitely. The validity interval is half-open:
// [StartsAt, EndsAt). CreatedAt is wall-clock time, kept for auditing only.
type Relationship struct {
	ID        string         `json:"id"`
	SourceID  string         `json:"source_id"`
	TargetID  string         `json:"target_id"`
	Predicate string         `json:"relation_type"`
	Weight    *float64       `json:"weight,omitempty"`
	StartsAt  *int64         `json:"starts_at,omitempty"`
	EndsAt    *int64         `json:"ends_at,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ActiveAt reports whether the relationship holds at story time t.
// The end bound is exclusive: a relationship with EndsAt=20 is not active at 20.
// An interval with StartsAt > EndsAt is never active.
func (r *Relationship) ActiveAt(t int64) bool {
	if r.StartsAt != nil && *r.StartsAt > t {
		return false
	}
	if r.EndsAt != nil && t >= *r.EndsAt {
		return false
	}
	return true
}

// Overlaps reports whether the relationship's validity interval shares at
// least one instant with the half-open story-time window [from, to).
// Missing bounds are treated as unbounded in that direction.
func (r *Relationship) Overlaps(from, to int64) bool {
	if r.StartsAt != nil && *r.StartsAt >= to {
		return false
	}
	if r.EndsAt != nil && *r.EndsAt <= from {
		return false
	}
	if r.StartsAt != nil && r.EndsAt != nil && *r.StartsAt > *r.EndsAt {
		// Malformed interval: empty set overlaps nothing.
		return false
	}
	return true
}

// Involves reports whether the entity appears on either side of the edge.
func (r *Relationship) Involves(entityID string) bool {
	return r.SourceID == entityID || r.TargetID == entityID
}

// Connects reports whether the relationship links the two entities in either
// direction.
func (r *Relationship) Connects(a, b string) bool {
	return (r.SourceID == a && r.TargetID == b) || (r.SourceID == b && r.TargetID == a)
}

// OtherSide returns the entity on the opposite side of the edge from entityID.
// For a self-loop it returns entityID itself.
func (r *Relationship) OtherSide(entityID string) string {
	if r.SourceID == entityID {
		return r.TargetID
	}
	return r.SourceID
}
