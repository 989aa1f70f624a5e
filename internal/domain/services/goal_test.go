package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/mocks"
)

func TestGoalService_Fulfill(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*GoalService, *mocks.StoryDB, string) {
		t.Helper()
		db := mocks.NewStoryDB()
		seedEntity(db, "alice", "Alice")
		db.Scenes["s1"] = &entities.Scene{ID: "s1", StoryID: "story-1", Title: "Opening"}
		db.Milestones["m1"] = &entities.Milestone{ID: "m1", SceneID: "s1", Verb: "opens"}

		svc := NewGoalService(db)
		goal, err := svc.Create(ctx, "alice", "open", nil, "open the vault")
		require.NoError(t, err)
		return svc, db, goal.ID
	}

	t.Run("stamps fulfillment and links the milestone", func(t *testing.T) {
		svc, _, goalID := setup(t)

		goal, err := svc.Fulfill(ctx, goalID, "m1")
		require.NoError(t, err)

		assert.True(t, goal.Fulfilled())
		require.NotNil(t, goal.LinkedMilestoneID)
		assert.Equal(t, "m1", *goal.LinkedMilestoneID)
	})

	t.Run("cannot fulfill twice", func(t *testing.T) {
		svc, _, goalID := setup(t)

		_, err := svc.Fulfill(ctx, goalID, "m1")
		require.NoError(t, err)

		_, err = svc.Fulfill(ctx, goalID, "m1")
		assert.ErrorIs(t, err, entities.ErrInvalidArgument)
	})

	t.Run("milestone must exist", func(t *testing.T) {
		svc, _, goalID := setup(t)

		_, err := svc.Fulfill(ctx, goalID, "missing")
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("list filters by fulfillment", func(t *testing.T) {
		svc, _, goalID := setup(t)
		_, err := svc.Fulfill(ctx, goalID, "m1")
		require.NoError(t, err)

		_, err = svc.Create(ctx, "alice", "escape", nil, "")
		require.NoError(t, err)

		fulfilled := true
		goals, err := svc.List(ctx, &fulfilled, 0)
		require.NoError(t, err)
		require.Len(t, goals, 1)
		assert.Equal(t, goalID, goals[0].ID)

		fulfilled = false
		goals, err = svc.List(ctx, &fulfilled, 0)
		require.NoError(t, err)
		require.Len(t, goals, 1)
		assert.Equal(t, "escape", goals[0].Verb)

		goals, err = svc.List(ctx, nil, 0)
		require.NoError(t, err)
		assert.Len(t, goals, 2)
	})
}

func TestGoalService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("subject must exist", func(t *testing.T) {
		svc := NewGoalService(mocks.NewStoryDB())
		_, err := svc.Create(ctx, "ghost", "open", nil, "")
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("verb is required", func(t *testing.T) {
		db := mocks.NewStoryDB()
		seedEntity(db, "alice", "Alice")
		svc := NewGoalService(db)
		_, err := svc.Create(ctx, "alice", " ", nil, "")
		assert.ErrorIs(t, err, entities.ErrInvalidArgument)
	})
}
