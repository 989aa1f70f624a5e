package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/infrastructure/config"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})

	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func mustSaveEntity(t *testing.T, repo *Repository, name string, entityType entities.EntityType) *entities.Entity {
	t.Helper()

	entity := &entities.Entity{
		ID:             generateUUID(),
		StoryID:        "story-1",
		Name:           name,
		NormalizedName: entities.NormalizeName(name),
		Type:           entityType,
		CreatedAt:      timeNow(),
		UpdatedAt:      timeNow(),
	}
	require.NoError(t, repo.SaveEntity(context.Background(), entity))
	return entity
}

func mustSaveRelationship(t *testing.T, repo *Repository, sourceID, targetID, predicate string, startsAt, endsAt *int64) *entities.Relationship {
	t.Helper()

	rel := &entities.Relationship{
		ID:        generateUUID(),
		SourceID:  sourceID,
		TargetID:  targetID,
		Predicate: predicate,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		CreatedAt: timeNow(),
	}
	require.NoError(t, repo.SaveRelationship(context.Background(), rel))
	return rel
}

func i64(v int64) *int64 {
	return &v
}

func TestNewRepository(t *testing.T) {
	t.Run("empty path is rejected", func(t *testing.T) {
		_, err := NewRepository(config.SQLiteConfig{})
		require.Error(t, err)
	})

	t.Run("in-memory database opens", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		defer repo.Close()
	})
}

func TestEnsureSchema(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	// Idempotent
	require.NoError(t, repo.EnsureSchema(ctx))

	tables := []string{"entities", "scenes", "scene_blocks", "milestones", "story_goals", "relationships", "knowledge_snapshots", "predicates", "audit_log"}
	for _, table := range tables {
		var name string
		err := repo.db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestEntityCRUD(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	t.Run("save and find round trip", func(t *testing.T) {
		entity := &entities.Entity{
			ID:             generateUUID(),
			StoryID:        "story-1",
			Name:           "Mira",
			NormalizedName: "mira",
			Type:           entities.EntityCharacter,
			Description:    "a cartographer",
			Meta:           map[string]any{"age": "31"},
			CreatedAt:      timeNow(),
			UpdatedAt:      timeNow(),
		}
		require.NoError(t, repo.SaveEntity(ctx, entity))

		found, err := repo.FindEntityByID(ctx, entity.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mira", found.Name)
		assert.Equal(t, entities.EntityCharacter, found.Type)
		assert.Equal(t, "a cartographer", found.Description)
		assert.Equal(t, "31", found.Meta["age"])
	})

	t.Run("find by name is case insensitive", func(t *testing.T) {
		found, err := repo.FindEntityByName(ctx, "story-1", "MIRA")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Mira", found.Name)
	})

	t.Run("unknown name returns nil without error", func(t *testing.T) {
		found, err := repo.FindEntityByName(ctx, "story-1", "nobody")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		_, err := repo.FindEntityByID(ctx, "ghost")
		require.Error(t, err)
		assert.True(t, errors.Is(err, entities.ErrNotFound))
	})

	t.Run("save updates in place", func(t *testing.T) {
		found, err := repo.FindEntityByName(ctx, "story-1", "mira")
		require.NoError(t, err)

		found.Description = "a retired cartographer"
		require.NoError(t, repo.SaveEntity(ctx, found))

		again, err := repo.FindEntityByID(ctx, found.ID)
		require.NoError(t, err)
		assert.Equal(t, "a retired cartographer", again.Description)
	})

	t.Run("delete removes the entity", func(t *testing.T) {
		entity := mustSaveEntity(t, repo, "Temp", entities.EntityArtifact)
		require.NoError(t, repo.DeleteEntity(ctx, entity.ID))

		_, err := repo.FindEntityByID(ctx, entity.ID)
		assert.True(t, errors.Is(err, entities.ErrNotFound))
	})

	t.Run("delete of missing entity reports not found", func(t *testing.T) {
		err := repo.DeleteEntity(ctx, "ghost")
		assert.True(t, errors.Is(err, entities.ErrNotFound))
	})
}

func TestFindOrCreateEntity(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first, err := repo.FindOrCreateEntity(ctx, "story-1", "Harbor", entities.EntityLocation)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Same normalized name resolves to the existing row
	second, err := repo.FindOrCreateEntity(ctx, "story-1", "harbor", entities.EntityLocation)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Different story gets its own entity
	other, err := repo.FindOrCreateEntity(ctx, "story-2", "Harbor", entities.EntityLocation)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestListAndSearchEntities(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustSaveEntity(t, repo, "Mira", entities.EntityCharacter)
	mustSaveEntity(t, repo, "Marlow", entities.EntityCharacter)
	mustSaveEntity(t, repo, "Harbor", entities.EntityLocation)

	t.Run("list is name ordered and paginated", func(t *testing.T) {
		listed, err := repo.ListEntities(ctx, "story-1", 2, 0)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, "Harbor", listed[0].Name)
		assert.Equal(t, "Marlow", listed[1].Name)

		rest, err := repo.ListEntities(ctx, "story-1", 2, 2)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, "Mira", rest[0].Name)
	})

	t.Run("search matches substrings", func(t *testing.T) {
		found, err := repo.SearchEntities(ctx, "story-1", "mar", 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Marlow", found[0].Name)
	})

	t.Run("count", func(t *testing.T) {
		count, err := repo.CountEntities(ctx, "story-1")
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func TestRelationshipRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	alice := mustSaveEntity(t, repo, "Alice", entities.EntityCharacter)
	bob := mustSaveEntity(t, repo, "Bob", entities.EntityCharacter)

	weight := 0.8
	rel := &entities.Relationship{
		ID:        generateUUID(),
		SourceID:  alice.ID,
		TargetID:  bob.ID,
		Predicate: "knows_about",
		Weight:    &weight,
		StartsAt:  i64(100),
		Meta:      map[string]any{"source": "chapter 3"},
		CreatedAt: timeNow(),
	}
	require.NoError(t, repo.SaveRelationship(ctx, rel))

	found, err := repo.FindRelationshipByID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.SourceID)
	assert.Equal(t, bob.ID, found.TargetID)
	assert.Equal(t, "knows_about", found.Predicate)
	require.NotNil(t, found.Weight)
	assert.Equal(t, 0.8, *found.Weight)
	require.NotNil(t, found.StartsAt)
	assert.Equal(t, int64(100), *found.StartsAt)
	assert.Nil(t, found.EndsAt)
	assert.Equal(t, "chapter 3", found.Meta["source"])

	t.Run("delete then not found", func(t *testing.T) {
		require.NoError(t, repo.DeleteRelationship(ctx, rel.ID))
		_, err := repo.FindRelationshipByID(ctx, rel.ID)
		assert.True(t, errors.Is(err, entities.ErrNotFound))

		err = repo.DeleteRelationship(ctx, rel.ID)
		assert.True(t, errors.Is(err, entities.ErrNotFound))
	})
}

func TestTemporalQueries(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	a := mustSaveEntity(t, repo, "A", entities.EntityCharacter)
	b := mustSaveEntity(t, repo, "B", entities.EntityCharacter)

	bounded := mustSaveRelationship(t, repo, a.ID, b.ID, "allied_with", i64(10), i64(20))
	openEnd := mustSaveRelationship(t, repo, a.ID, b.ID, "knows_about", i64(15), nil)
	openStart := mustSaveRelationship(t, repo, a.ID, b.ID, "located_at", nil, i64(12))
	unbounded := mustSaveRelationship(t, repo, a.ID, b.ID, "causes", nil, nil)
	malformed := mustSaveRelationship(t, repo, a.ID, b.ID, "precedes", i64(30), i64(10))

	ids := func(rels []entities.Relationship) map[string]bool {
		out := make(map[string]bool, len(rels))
		for _, rel := range rels {
			out[rel.ID] = true
		}
		return out
	}

	t.Run("active at start bound is inclusive", func(t *testing.T) {
		active, err := repo.FindRelationshipsActiveAt(ctx, 10)
		require.NoError(t, err)
		got := ids(active)
		assert.True(t, got[bounded.ID])
		assert.True(t, got[openStart.ID])
		assert.True(t, got[unbounded.ID])
		assert.False(t, got[openEnd.ID])
		assert.False(t, got[malformed.ID])
	})

	t.Run("active at end bound is exclusive", func(t *testing.T) {
		active, err := repo.FindRelationshipsActiveAt(ctx, 20)
		require.NoError(t, err)
		got := ids(active)
		assert.False(t, got[bounded.ID])
		assert.True(t, got[openEnd.ID])
		assert.True(t, got[unbounded.ID])
	})

	t.Run("malformed interval is never active", func(t *testing.T) {
		active, err := repo.FindRelationshipsActiveAt(ctx, 15)
		require.NoError(t, err)
		assert.False(t, ids(active)[malformed.ID])
	})

	t.Run("overlapping window", func(t *testing.T) {
		overlapping, err := repo.FindRelationshipsOverlapping(ctx, 5, 15)
		require.NoError(t, err)
		got := ids(overlapping)
		assert.True(t, got[bounded.ID])
		assert.True(t, got[openStart.ID])
		assert.True(t, got[unbounded.ID])
		assert.False(t, got[openEnd.ID]) // starts exactly at window end
		assert.False(t, got[malformed.ID])
	})

	t.Run("window end bound is exclusive for starts", func(t *testing.T) {
		overlapping, err := repo.FindRelationshipsOverlapping(ctx, 5, 16)
		require.NoError(t, err)
		assert.True(t, ids(overlapping)[openEnd.ID])
	})

	t.Run("window start bound is exclusive for ends", func(t *testing.T) {
		overlapping, err := repo.FindRelationshipsOverlapping(ctx, 12, 30)
		require.NoError(t, err)
		assert.False(t, ids(overlapping)[openStart.ID]) // ends exactly at window start
	})
}

func TestRelationshipsByEntity(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	a := mustSaveEntity(t, repo, "A", entities.EntityCharacter)
	b := mustSaveEntity(t, repo, "B", entities.EntityCharacter)
	c := mustSaveEntity(t, repo, "C", entities.EntityCharacter)

	outgoing := mustSaveRelationship(t, repo, a.ID, b.ID, "knows_about", nil, nil)
	incoming := mustSaveRelationship(t, repo, c.ID, a.ID, "causes", nil, nil)
	selfLoop := mustSaveRelationship(t, repo, a.ID, a.ID, "precedes", nil, nil)
	mustSaveRelationship(t, repo, b.ID, c.ID, "located_at", nil, nil)

	t.Run("matches both directions, self loops once", func(t *testing.T) {
		rels, err := repo.FindRelationshipsByEntity(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, rels, 3)

		seen := make(map[string]int)
		for _, rel := range rels {
			seen[rel.ID]++
		}
		assert.Equal(t, 1, seen[outgoing.ID])
		assert.Equal(t, 1, seen[incoming.ID])
		assert.Equal(t, 1, seen[selfLoop.ID])
	})

	t.Run("between matches either direction", func(t *testing.T) {
		rels, err := repo.FindRelationshipsBetween(ctx, b.ID, a.ID)
		require.NoError(t, err)
		require.Len(t, rels, 1)
		assert.Equal(t, outgoing.ID, rels[0].ID)
	})

	t.Run("delete by entity clears all edges", func(t *testing.T) {
		require.NoError(t, repo.DeleteRelationshipsByEntity(ctx, a.ID))

		rels, err := repo.FindRelationshipsByEntity(ctx, a.ID)
		require.NoError(t, err)
		assert.Empty(t, rels)

		count, err := repo.CountRelationships(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count) // b -> c survives
	})
}

func TestSceneAndBlocks(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	harbor := mustSaveEntity(t, repo, "Harbor", entities.EntityLocation)

	scene := &entities.Scene{
		ID:         generateUUID(),
		StoryID:    "story-1",
		Title:      "Arrival",
		LocationID: &harbor.ID,
		Timestamp:  i64(100),
		CreatedAt:  timeNow(),
	}
	require.NoError(t, repo.SaveScene(ctx, scene))

	found, err := repo.FindSceneByID(ctx, scene.ID)
	require.NoError(t, err)
	assert.Equal(t, "Arrival", found.Title)
	require.NotNil(t, found.LocationID)
	assert.Equal(t, harbor.ID, *found.LocationID)
	require.NotNil(t, found.Timestamp)
	assert.Equal(t, int64(100), *found.Timestamp)

	t.Run("max position of empty scene is -1", func(t *testing.T) {
		max, err := repo.MaxBlockPosition(ctx, scene.ID)
		require.NoError(t, err)
		assert.Equal(t, -1, max)
	})

	saveBlock := func(position int) *entities.SceneBlock {
		block := &entities.SceneBlock{
			ID:        generateUUID(),
			SceneID:   scene.ID,
			Type:      entities.BlockProse,
			Position:  position,
			Content:   "the ship docks",
			CreatedAt: timeNow(),
			UpdatedAt: timeNow(),
		}
		require.NoError(t, repo.SaveBlock(ctx, block))
		return block
	}

	b0 := saveBlock(0)
	b1 := saveBlock(1)
	b2 := saveBlock(2)

	t.Run("blocks list in position order", func(t *testing.T) {
		blocks, err := repo.ListBlocks(ctx, scene.ID)
		require.NoError(t, err)
		require.Len(t, blocks, 3)
		assert.Equal(t, b0.ID, blocks[0].ID)
		assert.Equal(t, b2.ID, blocks[2].ID)

		max, err := repo.MaxBlockPosition(ctx, scene.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, max)
	})

	t.Run("shift closes a gap", func(t *testing.T) {
		require.NoError(t, repo.DeleteBlock(ctx, b1.ID))
		require.NoError(t, repo.ShiftBlockPositions(ctx, scene.ID, 2, 2, -1))

		blocks, err := repo.ListBlocks(ctx, scene.ID)
		require.NoError(t, err)
		require.Len(t, blocks, 2)
		assert.Equal(t, 0, blocks[0].Position)
		assert.Equal(t, 1, blocks[1].Position)
		assert.Equal(t, b2.ID, blocks[1].ID)
	})

	t.Run("scene delete cascades to blocks", func(t *testing.T) {
		require.NoError(t, repo.DeleteScene(ctx, scene.ID))

		blocks, err := repo.ListBlocks(ctx, scene.ID)
		require.NoError(t, err)
		assert.Empty(t, blocks)
	})
}

func TestMilestonesAndGoals(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mira := mustSaveEntity(t, repo, "Mira", entities.EntityCharacter)
	key := mustSaveEntity(t, repo, "Key", entities.EntityArtifact)

	scene := &entities.Scene{
		ID:        generateUUID(),
		StoryID:   "story-1",
		Title:     "The Vault",
		CreatedAt: timeNow(),
	}
	require.NoError(t, repo.SaveScene(ctx, scene))

	milestone := &entities.Milestone{
		ID:        generateUUID(),
		SceneID:   scene.ID,
		SubjectID: &mira.ID,
		Verb:      "finds",
		ObjectID:  &key.ID,
		Weight:    1.0,
		CreatedAt: timeNow(),
	}
	require.NoError(t, repo.SaveMilestone(ctx, milestone))

	t.Run("milestone listing", func(t *testing.T) {
		byScene, err := repo.ListMilestonesByScene(ctx, scene.ID)
		require.NoError(t, err)
		require.Len(t, byScene, 1)
		assert.Equal(t, "finds", byScene[0].Verb)

		bySubject, err := repo.ListMilestonesBySubject(ctx, mira.ID)
		require.NoError(t, err)
		require.Len(t, bySubject, 1)
		assert.Equal(t, milestone.ID, bySubject[0].ID)
	})

	goal := &entities.StoryGoal{
		ID:        generateUUID(),
		SubjectID: mira.ID,
		Verb:      "finds",
		ObjectID:  &key.ID,
		CreatedAt: timeNow(),
	}
	require.NoError(t, repo.SaveGoal(ctx, goal))

	t.Run("goal filtering by fulfillment", func(t *testing.T) {
		unfulfilled := false
		goals, err := repo.ListGoals(ctx, &unfulfilled, 0)
		require.NoError(t, err)
		require.Len(t, goals, 1)

		now := timeNow()
		goal.FulfilledAt = &now
		goal.LinkedMilestoneID = &milestone.ID
		require.NoError(t, repo.SaveGoal(ctx, goal))

		goals, err = repo.ListGoals(ctx, &unfulfilled, 0)
		require.NoError(t, err)
		assert.Empty(t, goals)

		fulfilled := true
		goals, err = repo.ListGoals(ctx, &fulfilled, 0)
		require.NoError(t, err)
		require.Len(t, goals, 1)
		require.NotNil(t, goals[0].LinkedMilestoneID)
		assert.Equal(t, milestone.ID, *goals[0].LinkedMilestoneID)
		assert.True(t, goals[0].Fulfilled())
	})

	t.Run("goal round trip preserves fulfillment time", func(t *testing.T) {
		found, err := repo.FindGoalByID(ctx, goal.ID)
		require.NoError(t, err)
		require.NotNil(t, found.FulfilledAt)
		assert.WithinDuration(t, time.Now(), *found.FulfilledAt, time.Minute)
	})
}

func TestKnowledgeSnapshots(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mira := mustSaveEntity(t, repo, "Mira", entities.EntityCharacter)

	save := func(timestamp *int64, fact string) {
		snap := &entities.KnowledgeSnapshot{
			ID:        generateUUID(),
			EntityID:  mira.ID,
			Timestamp: timestamp,
			Knowledge: map[string]any{"fact": fact},
			CreatedAt: timeNow(),
		}
		require.NoError(t, repo.SaveKnowledgeSnapshot(ctx, snap))
	}

	// Inserted out of order on purpose
	save(i64(50), "the vault is open")
	save(nil, "baseline")
	save(i64(10), "the key exists")

	snaps, err := repo.ListKnowledgeSnapshots(ctx, mira.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	assert.Nil(t, snaps[0].Timestamp)
	assert.Equal(t, "baseline", snaps[0].Knowledge["fact"])
	assert.Equal(t, int64(10), *snaps[1].Timestamp)
	assert.Equal(t, int64(50), *snaps[2].Timestamp)

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteKnowledgeSnapshot(ctx, snaps[0].ID))

		remaining, err := repo.ListKnowledgeSnapshots(ctx, mira.ID)
		require.NoError(t, err)
		assert.Len(t, remaining, 2)
	})
}

func TestPredicates(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SavePredicate(ctx, &entities.Predicate{
		Name:        "causes",
		Description: "causal link",
		CreatedAt:   timeNow(),
	}))

	t.Run("find returns the predicate", func(t *testing.T) {
		p, err := repo.FindPredicate(ctx, "causes")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "causal link", p.Description)
	})

	t.Run("unknown predicate returns nil without error", func(t *testing.T) {
		p, err := repo.FindPredicate(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("list is name ordered", func(t *testing.T) {
		require.NoError(t, repo.SavePredicate(ctx, &entities.Predicate{Name: "allied_with", CreatedAt: timeNow()}))

		predicates, err := repo.ListPredicates(ctx)
		require.NoError(t, err)
		require.Len(t, predicates, 2)
		assert.Equal(t, "allied_with", predicates[0].Name)
		assert.Equal(t, "causes", predicates[1].Name)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeletePredicate(ctx, "allied_with"))
		err := repo.DeletePredicate(ctx, "allied_with")
		assert.True(t, errors.Is(err, entities.ErrNotFound))
	})
}

func TestAuditLog(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.LogAction(ctx, "relationship.create", "rel-1", map[string]any{"predicate": "knows_about"}))
	require.NoError(t, repo.LogAction(ctx, "relationship.delete", "rel-1", nil))
	require.NoError(t, repo.LogAction(ctx, "entity.create", "ent-1", nil))

	entries, err := repo.FindAuditLog(ctx, "rel-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	actions := []string{entries[0].Action, entries[1].Action}
	assert.Contains(t, actions, "relationship.create")
	assert.Contains(t, actions, "relationship.delete")

	for _, entry := range entries {
		assert.Equal(t, "rel-1", entry.RecordID)
		if entry.Action == "relationship.create" {
			assert.Equal(t, "knows_about", entry.Details["predicate"])
		}
	}
}
