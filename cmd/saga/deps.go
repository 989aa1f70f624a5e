package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ersonp/saga-core/internal/application/handlers"
	"github.com/ersonp/saga-core/internal/domain/ports"
	"github.com/ersonp/saga-core/internal/domain/services"
	"github.com/ersonp/saga-core/internal/infrastructure/config"
	embedder "github.com/ersonp/saga-core/internal/infrastructure/embedder/openai"
	llm "github.com/ersonp/saga-core/internal/infrastructure/llm/openai"
	"github.com/ersonp/saga-core/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/saga-core/internal/infrastructure/vectordb/qdrant"
)

// errOpenAIKeyRequired is returned by commands that need the LLM or embedder
// when no API key is configured.
var errOpenAIKeyRequired = errors.New("OpenAI API key is required (set OPENAI_API_KEY or api_key in config)")

// Deps holds high-level dependencies for commands. Only handlers are
// exposed - services and repositories stay internal to withDeps.
type Deps struct {
	Config  *config.Config
	Stories *config.StoriesConfig
	StoryID string

	Entities      *handlers.EntityHandler
	Relationships *handlers.RelationshipHandler
	Scenes        *handlers.SceneHandler
	Milestones    *handlers.MilestoneHandler
	Goals         *handlers.GoalHandler
	Knowledge     *handlers.KnowledgeHandler
	Predicates    *handlers.PredicateHandler
	Import        *handlers.ImportHandler
	Export        *handlers.ExportHandler

	// Nil when no OpenAI API key is configured.
	Search *handlers.SearchHandler
	Ingest *handlers.IngestHandler
}

// withDeps loads config and builds per-story dependencies, then calls the
// provided function. It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	stories, err := config.LoadStories(cwd)
	if err != nil {
		return fmt.Errorf("loading stories: %w", err)
	}

	if globalStory == "" {
		return errors.New("story is required (use --story flag)")
	}

	collection, err := stories.GetCollection(globalStory)
	if err != nil {
		return err
	}

	qdrantCfg := cfg.Qdrant
	qdrantCfg.Collection = collection

	vectorRepo, err := qdrant.NewRepository(qdrantCfg)
	if err != nil {
		return fmt.Errorf("creating qdrant repository: %w", err)
	}
	defer vectorRepo.Close()

	storyDB, err := openStoryDB(cwd, globalStory)
	if err != nil {
		return err
	}
	defer storyDB.Close()

	if err := storyDB.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	// The embedder and LLM are optional: commands that don't need them keep
	// working without an API key.
	var emb ports.Embedder
	if cfg.Embedder.APIKey != "" {
		e, err := embedder.NewEmbedder(cfg.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}
		emb = e
	}

	var llmClient ports.LLMClient
	if cfg.LLM.APIKey != "" {
		c, err := llm.NewClient(cfg.LLM)
		if err != nil {
			return fmt.Errorf("creating llm client: %w", err)
		}
		llmClient = c
	}

	entityService := services.NewEntityService(storyDB)
	relationshipService := services.NewRelationshipService(storyDB, vectorRepo, emb)
	graphService := services.NewGraphService(storyDB)
	sceneService := services.NewSceneService(storyDB, vectorRepo, emb)
	milestoneService := services.NewMilestoneService(storyDB)
	goalService := services.NewGoalService(storyDB)
	knowledgeService := services.NewKnowledgeService(storyDB)
	predicateService := services.NewPredicateService(storyDB)
	importService := services.NewImportService(storyDB, relationshipService)

	var recapService *services.RecapService
	if llmClient != nil {
		recapService = services.NewRecapService(llmClient, storyDB)
	}

	deps := &Deps{
		Config:        cfg,
		Stories:       stories,
		StoryID:       config.SanitizeStoryName(globalStory),
		Entities:      handlers.NewEntityHandler(entityService),
		Relationships: handlers.NewRelationshipHandler(relationshipService, graphService, entityService),
		Scenes:        handlers.NewSceneHandler(sceneService, recapService, entityService),
		Milestones:    handlers.NewMilestoneHandler(milestoneService, entityService),
		Goals:         handlers.NewGoalHandler(goalService, milestoneService, entityService),
		Knowledge:     handlers.NewKnowledgeHandler(knowledgeService, entityService),
		Predicates:    handlers.NewPredicateHandler(predicateService),
		Import:        handlers.NewImportHandler(importService),
		Export:        handlers.NewExportHandler(entityService, relationshipService),
	}

	if emb != nil {
		deps.Search = handlers.NewSearchHandler(services.NewSearchService(emb, vectorRepo))
	}
	if llmClient != nil {
		extractionService := services.NewExtractionService(llmClient, storyDB, relationshipService)
		deps.Ingest = handlers.NewIngestHandler(extractionService)
	}

	return fn(deps)
}

// openStoryDB opens the per-story SQLite database, creating its directory
// when missing.
func openStoryDB(basePath, storyName string) (*sqlite.Repository, error) {
	path := config.SQLitePathForStory(basePath, storyName)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating story directory: %w", err)
	}

	storyDB, err := sqlite.NewRepository(config.SQLiteConfig{Path: path})
	if err != nil {
		return nil, fmt.Errorf("creating sqlite repository: %w", err)
	}

	return storyDB, nil
}
