package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/mocks"
)

func TestRecapService_Recap(t *testing.T) {
	ctx := context.Background()

	setup := func() (*RecapService, *mocks.StoryDB, *mocks.LLMClient) {
		db := mocks.NewStoryDB()
		db.Scenes["s1"] = &entities.Scene{ID: "s1", StoryID: "story-1", Title: "The Harbor at Dusk"}
		llm := &mocks.LLMClient{Summary: "Mira reaches the harbor."}
		return NewRecapService(llm, db), db, llm
	}

	t.Run("summarizes blocks in position order", func(t *testing.T) {
		svc, db, llm := setup()
		db.Blocks["b2"] = &entities.SceneBlock{ID: "b2", SceneID: "s1", Position: 1, Content: "The bell rang twice."}
		db.Blocks["b1"] = &entities.SceneBlock{ID: "b1", SceneID: "s1", Position: 0, Content: "Mira crossed the square."}

		recap, err := svc.Recap(ctx, "s1")
		require.NoError(t, err)

		assert.Equal(t, "Mira reaches the harbor.", recap)
		assert.Equal(t, 1, llm.SummarizeCallCount)
		assert.Contains(t, llm.LastText, "The Harbor at Dusk")
		mira := strings.Index(llm.LastText, "Mira crossed")
		bell := strings.Index(llm.LastText, "The bell rang")
		require.GreaterOrEqual(t, mira, 0)
		assert.Less(t, mira, bell)
	})

	t.Run("prefers block summaries over content", func(t *testing.T) {
		svc, db, llm := setup()
		db.Blocks["b1"] = &entities.SceneBlock{
			ID: "b1", SceneID: "s1", Position: 0,
			Content: "A very long passage of prose.",
			Summary: "Mira arrives.",
		}

		_, err := svc.Recap(ctx, "s1")
		require.NoError(t, err)

		assert.Contains(t, llm.LastText, "Mira arrives.")
		assert.NotContains(t, llm.LastText, "A very long passage")
	})

	t.Run("scene with no blocks", func(t *testing.T) {
		svc, _, _ := setup()

		_, err := svc.Recap(ctx, "s1")
		assert.ErrorIs(t, err, entities.ErrInvalidArgument)
	})

	t.Run("unknown scene", func(t *testing.T) {
		svc, _, _ := setup()

		_, err := svc.Recap(ctx, "missing")
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})
}
