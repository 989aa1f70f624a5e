package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/mocks"
)

func seedEntity(db *mocks.StoryDB, id, name string) {
	db.Entities[id] = &entities.Entity{
		ID:             id,
		StoryID:        "story-1",
		Name:           name,
		NormalizedName: entities.NormalizeName(name),
		Type:           entities.EntityCharacter,
	}
}

func seedRelationship(db *mocks.StoryDB, id, source, target, predicate string, startsAt, endsAt *int64) {
	db.Relationships[id] = &entities.Relationship{
		ID:        id,
		SourceID:  source,
		TargetID:  target,
		Predicate: predicate,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestRelationshipService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates relationship with temporal bounds", func(t *testing.T) {
		db := mocks.NewStoryDB()
		seedEntity(db, "alice", "Alice")
		seedEntity(db, "bob", "Bob")
		vectorDB := &mocks.VectorDB{}
		embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2}}
		svc := NewRelationshipService(db, vectorDB, embedder)

		rel, err := svc.Create(ctx, CreateRelationshipParams{
			SourceID:  "alice",
			TargetID:  "bob",
			Predicate: "knows_about",
			StartsAt:  int64Ptr(100),
			Meta:      map[string]any{"source_scene": "scene-1"},
		})
		require.NoError(t, err)

		assert.NotEmpty(t, rel.ID)
		assert.Equal(t, "alice", rel.SourceID)
		assert.Equal(t, "bob", rel.TargetID)
		require.NotNil(t, rel.StartsAt)
		assert.Equal(t, int64(100), *rel.StartsAt)
		assert.Nil(t, rel.EndsAt)
		assert.Equal(t, "scene-1", rel.Meta["source_scene"])

		// Persisted and indexed
		stored, err := db.FindRelationshipByID(ctx, rel.ID)
		require.NoError(t, err)
		assert.Equal(t, rel.Predicate, stored.Predicate)
		assert.Equal(t, 1, vectorDB.SaveCallCount)
	})

	t.Run("rejects empty predicate", func(t *testing.T) {
		db := mocks.NewStoryDB()
		seedEntity(db, "alice", "Alice")
		svc := NewRelationshipService(db, nil, nil)

		_, err := svc.Create(ctx, CreateRelationshipParams{
			SourceID: "alice", TargetID: "alice", Predicate: "  ",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrInvalidArgument)
	})

	t.Run("fails when source entity missing", func(t *testing.T) {
		db := mocks.NewStoryDB()
		seedEntity(db, "bob", "Bob")
		svc := NewRelationshipService(db, nil, nil)

		_, err := svc.Create(ctx, CreateRelationshipParams{
			SourceID: "ghost", TargetID: "bob", Predicate: "knows_about",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("allows self loops", func(t *testing.T) {
		db := mocks.NewStoryDB()
		seedEntity(db, "alice", "Alice")
		svc := NewRelationshipService(db, nil, nil)

		rel, err := svc.Create(ctx, CreateRelationshipParams{
			SourceID: "alice", TargetID: "alice", Predicate: "knows_about",
		})
		require.NoError(t, err)
		assert.Equal(t, rel.SourceID, rel.TargetID)
	})

	t.Run("rolls back store on index failure", func(t *testing.T) {
		db := mocks.NewStoryDB()
		seedEntity(db, "alice", "Alice")
		seedEntity(db, "bob", "Bob")
		vectorDB := &mocks.VectorDB{Err: errors.New("qdrant down")}
		embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1}}
		svc := NewRelationshipService(db, vectorDB, embedder)

		_, err := svc.Create(ctx, CreateRelationshipParams{
			SourceID: "alice", TargetID: "bob", Predicate: "knows_about",
		})
		require.Error(t, err)
		assert.Empty(t, db.Relationships)
	})
}

func TestRelationshipService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update leaves other fields alone", func(t *testing.T) {
		db := mocks.NewStoryDB()
		seedRelationship(db, "r1", "alice", "bob", "knows_about", int64Ptr(10), int64Ptr(20))
		svc := NewRelationshipService(db, nil, nil)

		newEnd := int64(30)
		rel, err := svc.Update(ctx, "r1", UpdateRelationshipParams{EndsAt: &newEnd})
		require.NoError(t, err)

		assert.Equal(t, "knows_about", rel.Predicate)
		require.NotNil(t, rel.StartsAt)
		assert.Equal(t, int64(10), *rel.StartsAt)
		require.NotNil(t, rel.EndsAt)
		assert.Equal(t, int64(30), *rel.EndsAt)
	})

	t.Run("clear flags reset bounds to unbounded", func(t *testing.T) {
		db := mocks.NewStoryDB()
		seedRelationship(db, "r1", "alice", "bob", "knows_about", int64Ptr(10), int64Ptr(20))
		svc := NewRelationshipService(db, nil, nil)

		rel, err := svc.Update(ctx, "r1", UpdateRelationshipParams{ClearStartsAt: true, ClearEndsAt: true})
		require.NoError(t, err)
		assert.Nil(t, rel.StartsAt)
		assert.Nil(t, rel.EndsAt)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		svc := NewRelationshipService(mocks.NewStoryDB(), nil, nil)
		_, err := svc.Update(ctx, "missing", UpdateRelationshipParams{})
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})
}

func TestRelationshipService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes from both stores", func(t *testing.T) {
		db := mocks.NewStoryDB()
		seedRelationship(db, "r1", "alice", "bob", "knows_about", nil, nil)
		vectorDB := &mocks.VectorDB{}
		svc := NewRelationshipService(db, vectorDB, &mocks.Embedder{})

		require.NoError(t, svc.Delete(ctx, "r1"))
		assert.Equal(t, "r1", vectorDB.DeleteLastID)

		_, err := svc.Get(ctx, "r1")
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		svc := NewRelationshipService(mocks.NewStoryDB(), nil, nil)
		err := svc.Delete(ctx, "missing")
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})
}

func TestRelationshipService_Active(t *testing.T) {
	ctx := context.Background()

	db := mocks.NewStoryDB()
	seedRelationship(db, "bounded", "alice", "bob", "knows_about", int64Ptr(10), int64Ptr(20))
	seedRelationship(db, "open-start", "bob", "carol", "located_at", nil, int64Ptr(15))
	seedRelationship(db, "open-end", "carol", "alice", "causes", int64Ptr(12), nil)
	seedRelationship(db, "unbounded", "alice", "carol", "precedes", nil, nil)
	svc := NewRelationshipService(db, nil, nil)

	relIDs := func(rels []entities.Relationship) []string {
		ids := make([]string, len(rels))
		for i := range rels {
			ids[i] = rels[i].ID
		}
		return ids
	}

	t.Run("requires a timestamp", func(t *testing.T) {
		_, err := svc.Active(ctx, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrInvalidArgument)
	})

	t.Run("start is inclusive and end exclusive", func(t *testing.T) {
		rels, err := svc.Active(ctx, int64Ptr(10))
		require.NoError(t, err)
		assert.Contains(t, relIDs(rels), "bounded")

		rels, err = svc.Active(ctx, int64Ptr(19))
		require.NoError(t, err)
		assert.Contains(t, relIDs(rels), "bounded")

		rels, err = svc.Active(ctx, int64Ptr(20))
		require.NoError(t, err)
		assert.NotContains(t, relIDs(rels), "bounded")

		rels, err = svc.Active(ctx, int64Ptr(9))
		require.NoError(t, err)
		assert.NotContains(t, relIDs(rels), "bounded")
	})

	t.Run("nil bounds are unbounded", func(t *testing.T) {
		rels, err := svc.Active(ctx, int64Ptr(14))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"bounded", "open-start", "open-end", "unbounded"}, relIDs(rels))

		rels, err = svc.Active(ctx, int64Ptr(1000))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"open-end", "unbounded"}, relIDs(rels))
	})

	t.Run("filters by entity", func(t *testing.T) {
		rels, err := svc.ActiveForEntity(ctx, int64Ptr(14), "bob")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"bounded", "open-start"}, relIDs(rels))
	})
}

func TestRelationshipService_Overlapping(t *testing.T) {
	ctx := context.Background()

	db := mocks.NewStoryDB()
	seedRelationship(db, "starts-inside", "a", "b", "knows_about", int64Ptr(12), nil)
	seedRelationship(db, "before-window", "a", "b", "knows_about", int64Ptr(0), int64Ptr(4))
	seedRelationship(db, "ends-at-start", "a", "b", "knows_about", int64Ptr(0), int64Ptr(5))
	seedRelationship(db, "starts-at-end", "a", "b", "knows_about", int64Ptr(15), nil)
	seedRelationship(db, "spans-window", "a", "b", "knows_about", nil, nil)
	svc := NewRelationshipService(db, nil, nil)

	t.Run("returns intervals intersecting the window", func(t *testing.T) {
		rels, err := svc.Overlapping(ctx, 5, 15)
		require.NoError(t, err)

		ids := make([]string, len(rels))
		for i := range rels {
			ids[i] = rels[i].ID
		}
		assert.ElementsMatch(t, []string{"starts-inside", "spans-window"}, ids)
	})

	t.Run("rejects an empty window", func(t *testing.T) {
		_, err := svc.Overlapping(ctx, 15, 5)
		assert.ErrorIs(t, err, entities.ErrInvalidArgument)

		_, err = svc.Overlapping(ctx, 5, 5)
		assert.ErrorIs(t, err, entities.ErrInvalidArgument)
	})
}

func TestRelationshipService_ForEntity(t *testing.T) {
	ctx := context.Background()

	db := mocks.NewStoryDB()
	seedRelationship(db, "self-loop", "alice", "alice", "knows_about", nil, nil)
	seedRelationship(db, "outgoing", "alice", "bob", "causes", nil, nil)
	seedRelationship(db, "incoming", "bob", "alice", "precedes", nil, nil)
	seedRelationship(db, "unrelated", "bob", "carol", "causes", nil, nil)
	svc := NewRelationshipService(db, nil, nil)

	rels, err := svc.ForEntity(ctx, "alice")
	require.NoError(t, err)

	ids := make([]string, len(rels))
	for i := range rels {
		ids[i] = rels[i].ID
	}
	// Self-loop appears exactly once
	assert.ElementsMatch(t, []string{"self-loop", "outgoing", "incoming"}, ids)
}

func TestRelationshipService_Between(t *testing.T) {
	ctx := context.Background()

	db := mocks.NewStoryDB()
	seedRelationship(db, "forward", "alice", "bob", "knows_about", int64Ptr(10), int64Ptr(20))
	seedRelationship(db, "reverse", "bob", "alice", "causes", nil, nil)
	seedRelationship(db, "other", "alice", "carol", "causes", nil, nil)
	svc := NewRelationshipService(db, nil, nil)

	relIDs := func(rels []entities.Relationship) []string {
		ids := make([]string, len(rels))
		for i := range rels {
			ids[i] = rels[i].ID
		}
		return ids
	}

	t.Run("both directions without a timestamp", func(t *testing.T) {
		rels, err := svc.Between(ctx, "alice", "bob", nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"forward", "reverse"}, relIDs(rels))
	})

	t.Run("timestamp keeps only active edges", func(t *testing.T) {
		rels, err := svc.Between(ctx, "alice", "bob", int64Ptr(15))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"forward", "reverse"}, relIDs(rels))

		rels, err = svc.Between(ctx, "alice", "bob", int64Ptr(20))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"reverse"}, relIDs(rels))
	})
}
