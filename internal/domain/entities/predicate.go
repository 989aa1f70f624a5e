package entities

import "time"

// Predicate is a registered relationship predicate. The registry is advisory:
// relationships may use predicates that are not registered, but the registry
// gives tooling a vocabulary to suggest and describe.
type Predicate struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// DefaultPredicates are seeded into new stories.
var DefaultPredicates = []Predicate{
	{Name: "causes", Description: "Source event or entity brings about the target"},
	{Name: "knows_about", Description: "Source entity is aware of the target"},
	{Name: "located_at", Description: "Source entity is at the target location"},
	{Name: "precedes", Description: "Source event happens before the target"},
	{Name: "fulfills", Description: "Source milestone realizes the target goal"},
}
