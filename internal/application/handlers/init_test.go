package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/mocks"
	"github.com/ersonp/saga-core/internal/domain/services"
	"github.com/ersonp/saga-core/internal/infrastructure/config"
)

func setupInitHandlerTest() (*InitHandler, *mocks.StoryDB, *mocks.CollectionManager) {
	storyDB := mocks.NewStoryDB()
	predicates := services.NewPredicateService(storyDB)
	collectionManager := &mocks.CollectionManager{}
	return NewInitHandler(storyDB, predicates, collectionManager), storyDB, collectionManager
}

func TestInitHandler_Handle(t *testing.T) {
	t.Run("first story writes config and seeds predicates", func(t *testing.T) {
		handler, storyDB, collectionManager := setupInitHandlerTest()
		ctx := context.Background()
		base := t.TempDir()

		result, err := handler.Handle(ctx, base, "The Long Night", "a heist")
		require.NoError(t, err)

		assert.Equal(t, "The Long Night", result.StoryName)
		assert.Equal(t, "saga_the_long_night", result.CollectionName)
		assert.True(t, config.Exists(base))

		// Default predicates are seeded
		assert.Len(t, storyDB.Predicates, len(entities.DefaultPredicates))
		assert.Equal(t, 1, collectionManager.EnsureCollectionCallCount)

		// Story is registered
		stories, err := config.LoadStories(base)
		require.NoError(t, err)
		require.True(t, stories.Exists("The Long Night"))
		collection, err := stories.GetCollection("The Long Night")
		require.NoError(t, err)
		assert.Equal(t, "saga_the_long_night", collection)
	})

	t.Run("duplicate story is rejected", func(t *testing.T) {
		handler, _, _ := setupInitHandlerTest()
		ctx := context.Background()
		base := t.TempDir()

		_, err := handler.Handle(ctx, base, "midnight", "")
		require.NoError(t, err)

		_, err = handler.Handle(ctx, base, "midnight", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("second story reuses the existing config", func(t *testing.T) {
		handler, _, _ := setupInitHandlerTest()
		ctx := context.Background()
		base := t.TempDir()

		_, err := handler.Handle(ctx, base, "first", "")
		require.NoError(t, err)
		_, err = handler.Handle(ctx, base, "second", "")
		require.NoError(t, err)

		stories, err := config.LoadStories(base)
		require.NoError(t, err)
		assert.True(t, stories.Exists("first"))
		assert.True(t, stories.Exists("second"))
	})

	t.Run("nil collection manager skips collection creation", func(t *testing.T) {
		storyDB := mocks.NewStoryDB()
		predicates := services.NewPredicateService(storyDB)
		handler := NewInitHandler(storyDB, predicates, nil)
		ctx := context.Background()

		result, err := handler.Handle(ctx, t.TempDir(), "offline", "")
		require.NoError(t, err)
		assert.Equal(t, "saga_offline", result.CollectionName)
	})
}
