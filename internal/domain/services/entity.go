package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/ports"
)

// EntityService manages story entities.
type EntityService struct {
	storyDB ports.StoryDB
}

// NewEntityService creates a new EntityService.
func NewEntityService(storyDB ports.StoryDB) *EntityService {
	return &EntityService{storyDB: storyDB}
}

// Create creates a new entity with an explicit type and description.
func (s *EntityService) Create(ctx context.Context, storyID, name string, entityType entities.EntityType, description string, meta map[string]any) (*entities.Entity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("entity name is required: %w", entities.ErrInvalidArgument)
	}
	if !entities.ValidEntityType(entityType) {
		return nil, fmt.Errorf("unknown entity type %q: %w", entityType, entities.ErrInvalidArgument)
	}

	existing, err := s.storyDB.FindEntityByName(ctx, storyID, name)
	if err != nil {
		return nil, fmt.Errorf("checking entity name: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("entity %q already exists: %w", name, entities.ErrInvalidArgument)
	}

	now := timeNow()
	entity := &entities.Entity{
		ID:             uuid.New().String(),
		StoryID:        storyID,
		Name:           strings.TrimSpace(name),
		NormalizedName: entities.NormalizeName(name),
		Type:           entityType,
		Description:    description,
		Meta:           meta,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.storyDB.SaveEntity(ctx, entity); err != nil {
		return nil, fmt.Errorf("saving entity: %w", err)
	}

	_ = s.storyDB.LogAction(ctx, "entity.create", entity.ID, map[string]any{"name": entity.Name})

	return entity, nil
}

// FindOrCreate finds an entity by name or creates it if not found.
func (s *EntityService) FindOrCreate(ctx context.Context, storyID, name string, entityType entities.EntityType) (*entities.Entity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("entity name is required: %w", entities.ErrInvalidArgument)
	}
	if !entities.ValidEntityType(entityType) {
		return nil, fmt.Errorf("unknown entity type %q: %w", entityType, entities.ErrInvalidArgument)
	}
	return s.storyDB.FindOrCreateEntity(ctx, storyID, name, entityType)
}

// FindByName finds an entity by its name (case-insensitive). Returns nil
// without error when the name is unknown.
func (s *EntityService) FindByName(ctx context.Context, storyID, name string) (*entities.Entity, error) {
	return s.storyDB.FindEntityByName(ctx, storyID, name)
}

// FindByID finds an entity by its ID.
func (s *EntityService) FindByID(ctx context.Context, entityID string) (*entities.Entity, error) {
	return s.storyDB.FindEntityByID(ctx, entityID)
}

// Resolve accepts either an entity ID or a name and returns the entity.
func (s *EntityService) Resolve(ctx context.Context, storyID, ref string) (*entities.Entity, error) {
	entity, err := s.storyDB.FindEntityByID(ctx, ref)
	if err == nil {
		return entity, nil
	}

	entity, err = s.storyDB.FindEntityByName(ctx, storyID, ref)
	if err != nil {
		return nil, fmt.Errorf("resolving entity %q: %w", ref, err)
	}
	if entity == nil {
		return nil, fmt.Errorf("entity %q: %w", ref, entities.ErrNotFound)
	}
	return entity, nil
}

// List returns all entities for a story with pagination.
func (s *EntityService) List(ctx context.Context, storyID string, limit, offset int) ([]*entities.Entity, error) {
	return s.storyDB.ListEntities(ctx, storyID, limit, offset)
}

// Search searches entities by name pattern.
func (s *EntityService) Search(ctx context.Context, storyID, query string, limit int) ([]*entities.Entity, error) {
	return s.storyDB.SearchEntities(ctx, storyID, query, limit)
}

// Delete removes an entity and its relationships.
func (s *EntityService) Delete(ctx context.Context, entityID string) error {
	if _, err := s.storyDB.FindEntityByID(ctx, entityID); err != nil {
		return fmt.Errorf("finding entity: %w", err)
	}

	// Relationships first so no dangling edges survive
	if err := s.storyDB.DeleteRelationshipsByEntity(ctx, entityID); err != nil {
		return fmt.Errorf("deleting entity relationships: %w", err)
	}

	if err := s.storyDB.DeleteEntity(ctx, entityID); err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}

	_ = s.storyDB.LogAction(ctx, "entity.delete", entityID, nil)

	return nil
}

// Count returns the number of entities in a story.
func (s *EntityService) Count(ctx context.Context, storyID string) (int, error) {
	return s.storyDB.CountEntities(ctx, storyID)
}
