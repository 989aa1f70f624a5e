// Package entities contains core domain data structures.
package entities

import (
	"strings"
	"time"
)

// EntityType represents the category of a story entity.
type EntityType string

// Built-in entity types.
const (
	EntityCharacter     EntityType = "character"
	EntityLocation      EntityType = "location"
	EntityArtifact      EntityType = "artifact"
	EntityEvent         EntityType = "event"
	EntityKnowledgeFact EntityType = "knowledge_fact"
)

// Entity represents a named story subject (character, location, artifact,
// event, or knowledge fact) that can participate in relationships and scenes.
type Entity struct {
	ID             string         `json:"id"`
	StoryID        string         `json:"story_id"`
	Name           string         `json:"name"`
	NormalizedName string         `json:"normalized_name"`
	Type           EntityType     `json:"entity_type"`
	Description    string         `json:"description,omitempty"`
	Meta           map[string]any `json:"meta,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// KnownEntityTypes lists the built-in entity types in display order.
var KnownEntityTypes = []EntityType{
	EntityCharacter,
	EntityLocation,
	EntityArtifact,
	EntityEvent,
	EntityKnowledgeFact,
}

// ValidEntityType reports whether t is one of the built-in entity types.
func ValidEntityType(t EntityType) bool {
	for _, known := range KnownEntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// NormalizeName converts a name to lowercase for case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
