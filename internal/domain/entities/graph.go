package entities

// RelationshipGraph is the transient result of a depth-bounded traversal of
// the relationship graph around a center entity. It is built fresh per request
// and never persisted. Timestamp is nil when the traversal ignored story time.
type RelationshipGraph struct {
	CenterEntity  string         `json:"center_entity"`
	Timestamp     *int64         `json:"timestamp,omitempty"`
	Relationships []Relationship `json:"relationships"`
	Entities      []string       `json:"entities"`
}
