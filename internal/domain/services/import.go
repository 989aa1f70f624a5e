package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/ports"
	"github.com/ersonp/saga-core/internal/infrastructure/parsers"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun bool // Validate without saving
}

// ImportError describes a single rejected record during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation. Valid records are
// imported even when others in the same archive are rejected.
type ImportResult struct {
	EntitiesCreated      int
	RelationshipsCreated int
	Errors               []ImportError
}

// ImportService loads story archives produced elsewhere into a story.
type ImportService struct {
	storyDB       ports.StoryDB
	relationships *RelationshipService
}

// NewImportService creates a new import service.
func NewImportService(storyDB ports.StoryDB, relationships *RelationshipService) *ImportService {
	return &ImportService{
		storyDB:       storyDB,
		relationships: relationships,
	}
}

// Import validates and imports a parsed archive. Relationship endpoints are
// resolved by name, creating entities as needed.
func (s *ImportService) Import(ctx context.Context, storyID string, archive *parsers.Archive, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	for i := range archive.Entities {
		raw := &archive.Entities[i]
		if importErr := validateRawEntity(raw); importErr != nil {
			result.Errors = append(result.Errors, *importErr)
			continue
		}
		if opts.DryRun {
			result.EntitiesCreated++
			continue
		}

		entity, err := s.storyDB.FindOrCreateEntity(ctx, storyID, raw.Name, entities.EntityType(raw.Type))
		if err != nil {
			return nil, fmt.Errorf("importing entity %q: %w", raw.Name, err)
		}
		if raw.Description != "" && entity.Description == "" {
			entity.Description = raw.Description
			if err := s.storyDB.SaveEntity(ctx, entity); err != nil {
				return nil, fmt.Errorf("updating entity %q: %w", raw.Name, err)
			}
		}
		result.EntitiesCreated++
	}

	for i := range archive.Relationships {
		raw := &archive.Relationships[i]
		if importErr := validateRawRelationship(raw); importErr != nil {
			result.Errors = append(result.Errors, *importErr)
			continue
		}
		if opts.DryRun {
			result.RelationshipsCreated++
			continue
		}

		if err := s.importRelationship(ctx, storyID, raw); err != nil {
			return nil, err
		}
		result.RelationshipsCreated++
	}

	return result, nil
}

func (s *ImportService) importRelationship(ctx context.Context, storyID string, raw *parsers.RawRelationship) error {
	subject, err := s.storyDB.FindOrCreateEntity(ctx, storyID, raw.Subject, importedType(raw.SubjectType))
	if err != nil {
		return fmt.Errorf("resolving subject %q: %w", raw.Subject, err)
	}
	object, err := s.storyDB.FindOrCreateEntity(ctx, storyID, raw.Object, importedType(raw.ObjectType))
	if err != nil {
		return fmt.Errorf("resolving object %q: %w", raw.Object, err)
	}

	_, err = s.relationships.Create(ctx, CreateRelationshipParams{
		SourceID:  subject.ID,
		TargetID:  object.ID,
		Predicate: raw.Predicate,
		Weight:    raw.Weight,
		StartsAt:  raw.StartsAt,
		EndsAt:    raw.EndsAt,
		Meta:      raw.Meta,
	})
	if err != nil {
		return fmt.Errorf("importing relationship %s %s %s: %w", raw.Subject, raw.Predicate, raw.Object, err)
	}
	return nil
}

// validateRawEntity checks a raw entity, returning nil when valid.
func validateRawEntity(raw *parsers.RawEntity) *ImportError {
	if strings.TrimSpace(raw.Name) == "" {
		return &ImportError{Line: raw.LineNum, Field: "name", Message: "missing required field: name"}
	}
	if !entities.ValidEntityType(entities.EntityType(raw.Type)) {
		return &ImportError{
			Line:    raw.LineNum,
			Field:   "type",
			Value:   raw.Type,
			Message: fmt.Sprintf("invalid type %q (valid: character, location, artifact, event, knowledge_fact)", raw.Type),
		}
	}
	return nil
}

// validateRawRelationship checks a raw relationship, returning nil when valid.
func validateRawRelationship(raw *parsers.RawRelationship) *ImportError {
	if strings.TrimSpace(raw.Subject) == "" {
		return &ImportError{Line: raw.LineNum, Field: "subject", Message: "missing required field: subject"}
	}
	if strings.TrimSpace(raw.Predicate) == "" {
		return &ImportError{Line: raw.LineNum, Field: "predicate", Message: "missing required field: predicate"}
	}
	if strings.TrimSpace(raw.Object) == "" {
		return &ImportError{Line: raw.LineNum, Field: "object", Message: "missing required field: object"}
	}
	if raw.Weight != nil && (*raw.Weight < 0 || *raw.Weight > 1) {
		return &ImportError{
			Line:    raw.LineNum,
			Field:   "weight",
			Value:   fmt.Sprintf("%f", *raw.Weight),
			Message: "weight must be between 0 and 1",
		}
	}
	return nil
}

// importedType maps a declared type onto a known entity type, defaulting to
// character.
func importedType(raw string) entities.EntityType {
	t := entities.EntityType(strings.ToLower(strings.TrimSpace(raw)))
	if entities.ValidEntityType(t) {
		return t
	}
	return entities.EntityCharacter
}
