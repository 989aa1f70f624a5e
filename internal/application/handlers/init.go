// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/saga-core/internal/domain/ports"
	"github.com/ersonp/saga-core/internal/domain/services"
	"github.com/ersonp/saga-core/internal/infrastructure/config"
	embedder "github.com/ersonp/saga-core/internal/infrastructure/embedder/openai"
)

// InitHandler creates new stories: schema, vector collection, default
// predicates, and the registry entry.
type InitHandler struct {
	storyDB           ports.StoryDB
	predicates        *services.PredicateService
	collectionManager ports.CollectionManager
}

// NewInitHandler creates a new init handler. collectionManager may be nil
// when no vector database is configured.
func NewInitHandler(storyDB ports.StoryDB, predicates *services.PredicateService, collectionManager ports.CollectionManager) *InitHandler {
	return &InitHandler{
		storyDB:           storyDB,
		predicates:        predicates,
		collectionManager: collectionManager,
	}
}

// InitResult contains the result of creating a story.
type InitResult struct {
	StoryName      string
	ConfigPath     string
	CollectionName string
	DatabasePath   string
}

// Handle creates a new story under the given base path. The shared config
// file is written on first use; each story gets its own database and
// collection.
func (h *InitHandler) Handle(ctx context.Context, basePath, storyName, description string) (*InitResult, error) {
	if !config.Exists(basePath) {
		if err := config.WriteDefault(basePath); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
	}

	stories, err := config.LoadStories(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading stories: %w", err)
	}
	if stories.Exists(storyName) {
		return nil, fmt.Errorf("story %q already exists", storyName)
	}

	if err := h.storyDB.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := h.predicates.LoadDefaults(ctx); err != nil {
		return nil, fmt.Errorf("seeding predicates: %w", err)
	}

	collection := config.GenerateCollectionName(storyName)
	if h.collectionManager != nil {
		if err := h.collectionManager.EnsureCollection(ctx, embedder.VectorSize); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
	}

	stories.Add(storyName, config.StoryEntry{
		Collection:  collection,
		Description: description,
	})
	if err := stories.Save(basePath); err != nil {
		return nil, fmt.Errorf("saving stories: %w", err)
	}

	return &InitResult{
		StoryName:      storyName,
		ConfigPath:     config.ConfigFilePath(basePath),
		CollectionName: collection,
		DatabasePath:   config.SQLitePathForStory(basePath, storyName),
	}, nil
}
