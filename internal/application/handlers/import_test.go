package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/saga-core/internal/domain/mocks"
	"github.com/ersonp/saga-core/internal/domain/services"
)

func setupImportHandlerTest() (*ImportHandler, *mocks.StoryDB) {
	storyDB := mocks.NewStoryDB()
	relationships := services.NewRelationshipService(storyDB, nil, nil)
	service := services.NewImportService(storyDB, relationships)
	return NewImportHandler(service), storyDB
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportHandler_Handle(t *testing.T) {
	t.Run("json archive by extension", func(t *testing.T) {
		handler, storyDB := setupImportHandlerTest()
		ctx := context.Background()

		path := writeTempFile(t, "archive.json", `{
			"entities": [
				{"name": "Mira", "type": "character", "description": "a cartographer"}
			],
			"relationships": [
				{"subject": "Mira", "predicate": "located_at", "object": "Harbor", "object_type": "location", "starts_at": 10}
			]
		}`)

		result, err := handler.Handle(ctx, testStoryID, path, ImportOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1, result.EntitiesCreated)
		assert.Equal(t, 1, result.RelationshipsCreated)
		assert.Empty(t, result.Errors)

		// Harbor was created on demand for the relationship
		assert.Len(t, storyDB.Entities, 2)
		assert.Len(t, storyDB.Relationships, 1)
	})

	t.Run("csv relationships", func(t *testing.T) {
		handler, storyDB := setupImportHandlerTest()
		ctx := context.Background()

		path := writeTempFile(t, "rels.csv",
			"subject,predicate,object,starts_at,ends_at\n"+
				"Alice,knows_about,Bob,5,15\n"+
				"Bob,causes,Fire,,\n")

		result, err := handler.Handle(ctx, testStoryID, path, ImportOptions{})
		require.NoError(t, err)

		assert.Equal(t, 2, result.RelationshipsCreated)
		assert.Len(t, storyDB.Relationships, 2)

		for _, rel := range storyDB.Relationships {
			if rel.Predicate == "knows_about" {
				require.NotNil(t, rel.StartsAt)
				assert.Equal(t, int64(5), *rel.StartsAt)
				require.NotNil(t, rel.EndsAt)
				assert.Equal(t, int64(15), *rel.EndsAt)
			} else {
				assert.Nil(t, rel.StartsAt)
				assert.Nil(t, rel.EndsAt)
			}
		}
	})

	t.Run("invalid records are reported, valid ones imported", func(t *testing.T) {
		handler, storyDB := setupImportHandlerTest()
		ctx := context.Background()

		path := writeTempFile(t, "mixed.json", `{
			"entities": [
				{"name": "", "type": "character"},
				{"name": "Mira", "type": "dragon"},
				{"name": "Harbor", "type": "location"}
			]
		}`)

		result, err := handler.Handle(ctx, testStoryID, path, ImportOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1, result.EntitiesCreated)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, "name", result.Errors[0].Field)
		assert.Equal(t, "type", result.Errors[1].Field)
		assert.Len(t, storyDB.Entities, 1)
	})

	t.Run("dry run validates without saving", func(t *testing.T) {
		handler, storyDB := setupImportHandlerTest()
		ctx := context.Background()

		path := writeTempFile(t, "archive.json", `{
			"entities": [{"name": "Mira", "type": "character"}]
		}`)

		result, err := handler.Handle(ctx, testStoryID, path, ImportOptions{DryRun: true})
		require.NoError(t, err)

		assert.Equal(t, 1, result.EntitiesCreated)
		assert.Empty(t, storyDB.Entities)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		handler, _ := setupImportHandlerTest()
		ctx := context.Background()

		path := writeTempFile(t, "archive.xml", "<archive/>")

		_, err := handler.Handle(ctx, testStoryID, path, ImportOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})

	t.Run("explicit format overrides extension", func(t *testing.T) {
		handler, _ := setupImportHandlerTest()
		ctx := context.Background()

		path := writeTempFile(t, "archive.dat", `{"entities": [{"name": "Mira", "type": "character"}]}`)

		result, err := handler.Handle(ctx, testStoryID, path, ImportOptions{Format: "json"})
		require.NoError(t, err)
		assert.Equal(t, 1, result.EntitiesCreated)
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	importHandler, source := setupImportHandlerTest()
	ctx := context.Background()

	path := writeTempFile(t, "archive.json", `{
		"entities": [
			{"name": "Mira", "type": "character", "description": "a cartographer"},
			{"name": "Harbor", "type": "location"}
		],
		"relationships": [
			{"subject": "Mira", "predicate": "located_at", "object": "Harbor", "starts_at": 10, "ends_at": 50}
		]
	}`)
	_, err := importHandler.Handle(ctx, testStoryID, path, ImportOptions{})
	require.NoError(t, err)

	entityService := services.NewEntityService(source)
	relationships := services.NewRelationshipService(source, nil, nil)
	exportHandler := NewExportHandler(entityService, relationships)

	outPath := filepath.Join(t.TempDir(), "export.json")
	out, err := os.Create(outPath)
	require.NoError(t, err)

	exportResult, err := exportHandler.Handle(ctx, testStoryID, out)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	assert.Equal(t, 2, exportResult.Entities)
	assert.Equal(t, 1, exportResult.Relationships)

	// Re-import the exported archive into a fresh store
	importHandler2, dest := setupImportHandlerTest()
	result, err := importHandler2.Handle(ctx, testStoryID, outPath, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.EntitiesCreated)
	assert.Equal(t, 1, result.RelationshipsCreated)
	assert.Len(t, dest.Relationships, 1)

	for _, rel := range dest.Relationships {
		assert.Equal(t, "located_at", rel.Predicate)
		require.NotNil(t, rel.StartsAt)
		assert.Equal(t, int64(10), *rel.StartsAt)
		require.NotNil(t, rel.EndsAt)
		assert.Equal(t, int64(50), *rel.EndsAt)
	}
}
