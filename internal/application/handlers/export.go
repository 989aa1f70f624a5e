package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/services"
	"github.com/ersonp/saga-core/internal/infrastructure/parsers"
)

// exportBatchSize is the page size used when walking entities.
const exportBatchSize = 500

// ExportHandler writes a story's entities and relationships as a JSON
// archive that the import handler can read back.
type ExportHandler struct {
	entityService *services.EntityService
	relationships *services.RelationshipService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(entityService *services.EntityService, relationships *services.RelationshipService) *ExportHandler {
	return &ExportHandler{
		entityService: entityService,
		relationships: relationships,
	}
}

// ExportResult contains the counts of exported records.
type ExportResult struct {
	Entities      int
	Relationships int
}

// Handle exports a story as a JSON archive to the writer.
func (h *ExportHandler) Handle(ctx context.Context, storyID string, w io.Writer) (*ExportResult, error) {
	all, err := h.collectEntities(ctx, storyID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Entity, len(all))
	archive := &parsers.Archive{
		Entities: make([]parsers.RawEntity, 0, len(all)),
	}
	for _, entity := range all {
		byID[entity.ID] = entity
		archive.Entities = append(archive.Entities, parsers.RawEntity{
			Name:        entity.Name,
			Type:        string(entity.Type),
			Description: entity.Description,
			Meta:        entity.Meta,
		})
	}

	// Each edge shows up once per endpoint, so deduplicate by ID
	seen := make(map[string]bool)
	for _, entity := range all {
		rels, err := h.relationships.ForEntity(ctx, entity.ID)
		if err != nil {
			return nil, fmt.Errorf("exporting relationships for %s: %w", entity.Name, err)
		}
		for i := range rels {
			rel := &rels[i]
			if seen[rel.ID] {
				continue
			}
			seen[rel.ID] = true

			subject, ok := byID[rel.SourceID]
			if !ok {
				continue
			}
			object, ok := byID[rel.TargetID]
			if !ok {
				continue
			}

			archive.Relationships = append(archive.Relationships, parsers.RawRelationship{
				Subject:     subject.Name,
				SubjectType: string(subject.Type),
				Predicate:   rel.Predicate,
				Object:      object.Name,
				ObjectType:  string(object.Type),
				Weight:      rel.Weight,
				StartsAt:    rel.StartsAt,
				EndsAt:      rel.EndsAt,
				Meta:        rel.Meta,
			})
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(archive); err != nil {
		return nil, fmt.Errorf("writing archive: %w", err)
	}

	return &ExportResult{
		Entities:      len(archive.Entities),
		Relationships: len(archive.Relationships),
	}, nil
}

// collectEntities pages through every entity in the story.
func (h *ExportHandler) collectEntities(ctx context.Context, storyID string) ([]*entities.Entity, error) {
	var all []*entities.Entity
	for offset := 0; ; offset += exportBatchSize {
		page, err := h.entityService.List(ctx, storyID, exportBatchSize, offset)
		if err != nil {
			return nil, fmt.Errorf("listing entities: %w", err)
		}
		all = append(all, page...)
		if len(page) < exportBatchSize {
			return all, nil
		}
	}
}
