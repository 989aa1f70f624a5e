package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/mocks"
)

func TestEntityService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates entity with normalized name", func(t *testing.T) {
		db := mocks.NewStoryDB()
		svc := NewEntityService(db)

		entity, err := svc.Create(ctx, "story-1", "  The Harbor District  ", entities.EntityLocation, "port quarter", nil)
		require.NoError(t, err)

		assert.NotEmpty(t, entity.ID)
		assert.Equal(t, "The Harbor District", entity.Name)
		assert.Equal(t, "the harbor district", entity.NormalizedName)
		assert.Equal(t, entities.EntityLocation, entity.Type)
		assert.Equal(t, 1, db.LogActionCallCount)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		svc := NewEntityService(mocks.NewStoryDB())

		_, err := svc.Create(ctx, "story-1", "   ", entities.EntityCharacter, "", nil)
		assert.ErrorIs(t, err, entities.ErrInvalidArgument)
	})

	t.Run("rejects unknown entity type", func(t *testing.T) {
		svc := NewEntityService(mocks.NewStoryDB())

		_, err := svc.Create(ctx, "story-1", "Mira", entities.EntityType("spaceship"), "", nil)
		assert.ErrorIs(t, err, entities.ErrInvalidArgument)
	})

	t.Run("rejects duplicate name case-insensitively", func(t *testing.T) {
		db := mocks.NewStoryDB()
		svc := NewEntityService(db)

		_, err := svc.Create(ctx, "story-1", "Mira", entities.EntityCharacter, "", nil)
		require.NoError(t, err)

		_, err = svc.Create(ctx, "story-1", "MIRA", entities.EntityCharacter, "", nil)
		assert.ErrorIs(t, err, entities.ErrInvalidArgument)
	})
}

func TestEntityService_Resolve(t *testing.T) {
	ctx := context.Background()

	db := mocks.NewStoryDB()
	seedEntity(db, "mira-id", "Mira")
	svc := NewEntityService(db)

	t.Run("by ID", func(t *testing.T) {
		entity, err := svc.Resolve(ctx, "story-1", "mira-id")
		require.NoError(t, err)
		assert.Equal(t, "Mira", entity.Name)
	})

	t.Run("by name when ID lookup misses", func(t *testing.T) {
		entity, err := svc.Resolve(ctx, "story-1", "mira")
		require.NoError(t, err)
		assert.Equal(t, "mira-id", entity.ID)
	})

	t.Run("unknown ref", func(t *testing.T) {
		_, err := svc.Resolve(ctx, "story-1", "nobody")
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})
}

func TestEntityService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes entity and its relationships", func(t *testing.T) {
		db := mocks.NewStoryDB()
		seedEntity(db, "mira", "Mira")
		seedEntity(db, "bren", "Bren")
		seedRelationship(db, "r1", "mira", "bren", "allied_with", nil, nil)
		seedRelationship(db, "r2", "bren", "mira", "knows_about", nil, nil)
		svc := NewEntityService(db)

		require.NoError(t, svc.Delete(ctx, "mira"))

		assert.NotContains(t, db.Entities, "mira")
		assert.Empty(t, db.Relationships)
	})

	t.Run("unknown entity", func(t *testing.T) {
		svc := NewEntityService(mocks.NewStoryDB())

		err := svc.Delete(ctx, "missing")
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})
}
