package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/services"
	"github.com/ersonp/saga-core/internal/infrastructure/config"
	"github.com/ersonp/saga-core/internal/infrastructure/relationaldb/sqlite"
)

func setupStoryDB(t *testing.T) *sqlite.Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "story.db")
	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.EnsureSchema(context.Background()))

	return repo
}

func createEntity(t *testing.T, svc *services.EntityService, name string) *entities.Entity {
	t.Helper()
	entity, err := svc.Create(t.Context(), testStoryID, name, entities.EntityCharacter, "", nil)
	require.NoError(t, err)
	return entity
}

func TestSQLite_RelationshipRoundTrip(t *testing.T) {
	repo := setupStoryDB(t)
	ctx := t.Context()

	entitySvc := services.NewEntityService(repo)
	relSvc := services.NewRelationshipService(repo, nil, nil)

	mira := createEntity(t, entitySvc, "Mira")
	bren := createEntity(t, entitySvc, "Bren")

	starts := int64(100)
	rel, err := relSvc.Create(ctx, services.CreateRelationshipParams{
		SourceID:  mira.ID,
		TargetID:  bren.ID,
		Predicate: "allied_with",
		StartsAt:  &starts,
		Meta:      map[string]any{"sworn": true},
	})
	require.NoError(t, err)

	found, err := repo.FindRelationshipByID(ctx, rel.ID)
	require.NoError(t, err)
	require.NotNil(t, found.StartsAt)
	assert.Equal(t, int64(100), *found.StartsAt)
	assert.Nil(t, found.EndsAt)
	assert.Equal(t, true, found.Meta["sworn"])

	require.NoError(t, relSvc.Delete(ctx, rel.ID))

	_, err = repo.FindRelationshipByID(ctx, rel.ID)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestSQLite_TemporalQueries(t *testing.T) {
	repo := setupStoryDB(t)
	ctx := t.Context()

	entitySvc := services.NewEntityService(repo)
	relSvc := services.NewRelationshipService(repo, nil, nil)

	mira := createEntity(t, entitySvc, "Mira")
	harbor := createEntity(t, entitySvc, "Harbor")

	mk := func(predicate string, startsAt, endsAt *int64) {
		t.Helper()
		_, err := relSvc.Create(ctx, services.CreateRelationshipParams{
			SourceID:  mira.ID,
			TargetID:  harbor.ID,
			Predicate: predicate,
			StartsAt:  startsAt,
			EndsAt:    endsAt,
		})
		require.NoError(t, err)
	}

	i64 := func(v int64) *int64 { return &v }

	mk("located_at", i64(10), i64(20))
	mk("knows_about", nil, nil)
	mk("causes", i64(50), nil)

	// Start is inclusive, end is exclusive
	active, err := relSvc.Active(ctx, i64(10))
	require.NoError(t, err)
	assert.Len(t, active, 2)

	active, err = relSvc.Active(ctx, i64(20))
	require.NoError(t, err)
	assert.Len(t, active, 1)

	overlapping, err := relSvc.Overlapping(ctx, 5, 15)
	require.NoError(t, err)
	require.Len(t, overlapping, 2)

	overlapping, err = relSvc.Overlapping(ctx, 20, 50)
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)
	assert.Equal(t, "knows_about", overlapping[0].Predicate)
}

func TestSQLite_GraphWalk(t *testing.T) {
	repo := setupStoryDB(t)
	ctx := t.Context()

	entitySvc := services.NewEntityService(repo)
	relSvc := services.NewRelationshipService(repo, nil, nil)
	graphSvc := services.NewGraphService(repo)

	mira := createEntity(t, entitySvc, "Mira")
	bren := createEntity(t, entitySvc, "Bren")
	vault := createEntity(t, entitySvc, "Vault")

	link := func(source, target, predicate string, startsAt, endsAt *int64) {
		t.Helper()
		_, err := relSvc.Create(ctx, services.CreateRelationshipParams{
			SourceID:  source,
			TargetID:  target,
			Predicate: predicate,
			StartsAt:  startsAt,
			EndsAt:    endsAt,
		})
		require.NoError(t, err)
	}

	i64 := func(v int64) *int64 { return &v }

	link(mira.ID, bren.ID, "allied_with", nil, nil)
	link(bren.ID, vault.ID, "knows_about", i64(10), i64(20))

	t.Run("one hop", func(t *testing.T) {
		graph, err := graphSvc.Build(ctx, mira.ID, 1, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{mira.ID, bren.ID}, graph.Entities)
		assert.Len(t, graph.Relationships, 1)
	})

	t.Run("two hops", func(t *testing.T) {
		graph, err := graphSvc.Build(ctx, mira.ID, 2, nil)
		require.NoError(t, err)
		assert.Len(t, graph.Entities, 3)
		assert.Len(t, graph.Relationships, 2)
	})

	t.Run("temporal filter prunes inactive edges", func(t *testing.T) {
		graph, err := graphSvc.Build(ctx, mira.ID, 2, i64(30))
		require.NoError(t, err)
		assert.Len(t, graph.Entities, 2)
		assert.Len(t, graph.Relationships, 1)
	})

	t.Run("depth out of range", func(t *testing.T) {
		_, err := graphSvc.Build(ctx, mira.ID, services.MaxGraphDepth+1, nil)
		assert.ErrorIs(t, err, entities.ErrInvalidArgument)
	})
}
