package handlers

import (
	"context"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/services"
)

// EntityHandler handles entity operations at the application layer.
type EntityHandler struct {
	entityService *services.EntityService
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(entityService *services.EntityService) *EntityHandler {
	return &EntityHandler{
		entityService: entityService,
	}
}

// EntityListResult contains the result of listing entities.
type EntityListResult struct {
	Entities []*entities.Entity `json:"entities"`
	Total    int                `json:"total"`
}

// HandleCreate creates a new entity.
func (h *EntityHandler) HandleCreate(ctx context.Context, storyID, name, entityType, description string) (*entities.Entity, error) {
	return h.entityService.Create(ctx, storyID, name, entities.EntityType(entityType), description, nil)
}

// HandleShow resolves an entity by ID or name.
func (h *EntityHandler) HandleShow(ctx context.Context, storyID, ref string) (*entities.Entity, error) {
	return h.entityService.Resolve(ctx, storyID, ref)
}

// HandleList returns all entities for a story with pagination.
func (h *EntityHandler) HandleList(ctx context.Context, storyID string, limit, offset int) (*EntityListResult, error) {
	entitiesList, err := h.entityService.List(ctx, storyID, limit, offset)
	if err != nil {
		return nil, err
	}

	count, err := h.entityService.Count(ctx, storyID)
	if err != nil {
		return nil, err
	}

	return &EntityListResult{
		Entities: entitiesList,
		Total:    count,
	}, nil
}

// HandleSearch searches entities by name pattern.
func (h *EntityHandler) HandleSearch(ctx context.Context, storyID, query string, limit int) (*EntityListResult, error) {
	entitiesList, err := h.entityService.Search(ctx, storyID, query, limit)
	if err != nil {
		return nil, err
	}

	return &EntityListResult{
		Entities: entitiesList,
		Total:    len(entitiesList),
	}, nil
}

// HandleDelete removes an entity and its relationships.
func (h *EntityHandler) HandleDelete(ctx context.Context, storyID, ref string) error {
	entity, err := h.entityService.Resolve(ctx, storyID, ref)
	if err != nil {
		return err
	}
	return h.entityService.Delete(ctx, entity.ID)
}

// HandleCount returns the number of entities in a story.
func (h *EntityHandler) HandleCount(ctx context.Context, storyID string) (int, error) {
	return h.entityService.Count(ctx, storyID)
}
