package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/ports"
)

// SceneService manages scenes and their ordered blocks.
type SceneService struct {
	storyDB  ports.StoryDB
	vectorDB ports.VectorDB
	embedder ports.Embedder
}

// NewSceneService creates a new SceneService. vectorDB and embedder may be
// nil, in which case blocks are not indexed for semantic search.
func NewSceneService(storyDB ports.StoryDB, vectorDB ports.VectorDB, embedder ports.Embedder) *SceneService {
	return &SceneService{
		storyDB:  storyDB,
		vectorDB: vectorDB,
		embedder: embedder,
	}
}

// Create creates a new scene. A location, when given, must exist.
func (s *SceneService) Create(ctx context.Context, storyID, title string, locationID *string, timestamp *int64) (*entities.Scene, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("scene title is required: %w", entities.ErrInvalidArgument)
	}
	if locationID != nil {
		if _, err := s.storyDB.FindEntityByID(ctx, *locationID); err != nil {
			return nil, fmt.Errorf("finding location: %w", err)
		}
	}

	scene := &entities.Scene{
		ID:         uuid.New().String(),
		StoryID:    storyID,
		Title:      strings.TrimSpace(title),
		LocationID: locationID,
		Timestamp:  timestamp,
		CreatedAt:  timeNow(),
	}
	if err := s.storyDB.SaveScene(ctx, scene); err != nil {
		return nil, fmt.Errorf("saving scene: %w", err)
	}

	_ = s.storyDB.LogAction(ctx, "scene.create", scene.ID, map[string]any{"title": scene.Title})

	return scene, nil
}

// Get returns a scene by ID.
func (s *SceneService) Get(ctx context.Context, sceneID string) (*entities.Scene, error) {
	return s.storyDB.FindSceneByID(ctx, sceneID)
}

// List returns scenes for a story with pagination.
func (s *SceneService) List(ctx context.Context, storyID string, limit, offset int) ([]*entities.Scene, error) {
	return s.storyDB.ListScenes(ctx, storyID, limit, offset)
}

// Delete removes a scene and its blocks.
func (s *SceneService) Delete(ctx context.Context, sceneID string) error {
	if _, err := s.storyDB.FindSceneByID(ctx, sceneID); err != nil {
		return fmt.Errorf("finding scene: %w", err)
	}
	if err := s.storyDB.DeleteScene(ctx, sceneID); err != nil {
		return fmt.Errorf("deleting scene: %w", err)
	}
	_ = s.storyDB.LogAction(ctx, "scene.delete", sceneID, nil)
	return nil
}

// BlockParams holds the inputs for appending or inserting a block.
type BlockParams struct {
	Type      entities.BlockType
	Content   string
	Summary   string
	Lines     map[string]any
	SubjectID *string
	ObjectID  *string
	Verb      string
	Weight    *float64
	Meta      map[string]any
}

// AppendBlock adds a block at the end of a scene. Milestone blocks also
// record a milestone for the timeline.
func (s *SceneService) AppendBlock(ctx context.Context, sceneID string, params BlockParams) (*entities.SceneBlock, error) {
	maxPos, err := s.storyDB.MaxBlockPosition(ctx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("finding block position: %w", err)
	}
	return s.insertBlock(ctx, sceneID, maxPos+1, params)
}

// InsertBlockAt adds a block at the given position, shifting later blocks
// down by one.
func (s *SceneService) InsertBlockAt(ctx context.Context, sceneID string, position int, params BlockParams) (*entities.SceneBlock, error) {
	maxPos, err := s.storyDB.MaxBlockPosition(ctx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("finding block position: %w", err)
	}
	if position < 0 || position > maxPos+1 {
		return nil, fmt.Errorf("position %d out of range [0, %d]: %w", position, maxPos+1, entities.ErrInvalidArgument)
	}

	if position <= maxPos {
		if err := s.storyDB.ShiftBlockPositions(ctx, sceneID, position, maxPos, 1); err != nil {
			return nil, fmt.Errorf("shifting blocks: %w", err)
		}
	}
	return s.insertBlock(ctx, sceneID, position, params)
}

func (s *SceneService) insertBlock(ctx context.Context, sceneID string, position int, params BlockParams) (*entities.SceneBlock, error) {
	scene, err := s.storyDB.FindSceneByID(ctx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("finding scene: %w", err)
	}

	switch params.Type {
	case entities.BlockProse, entities.BlockDialogue, entities.BlockMilestone:
	default:
		return nil, fmt.Errorf("unknown block type %q: %w", params.Type, entities.ErrInvalidArgument)
	}
	if params.Type == entities.BlockMilestone && strings.TrimSpace(params.Verb) == "" {
		return nil, fmt.Errorf("milestone blocks need a verb: %w", entities.ErrInvalidArgument)
	}

	now := timeNow()
	block := &entities.SceneBlock{
		ID:        uuid.New().String(),
		SceneID:   sceneID,
		Type:      params.Type,
		Position:  position,
		Content:   params.Content,
		Summary:   params.Summary,
		Lines:     params.Lines,
		SubjectID: params.SubjectID,
		ObjectID:  params.ObjectID,
		Verb:      params.Verb,
		Weight:    params.Weight,
		Meta:      params.Meta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.storyDB.SaveBlock(ctx, block); err != nil {
		return nil, fmt.Errorf("saving block: %w", err)
	}

	if params.Type == entities.BlockMilestone {
		weight := 1.0
		if params.Weight != nil {
			weight = *params.Weight
		}
		milestone := &entities.Milestone{
			ID:          uuid.New().String(),
			SceneID:     scene.ID,
			SubjectID:   params.SubjectID,
			Verb:        params.Verb,
			ObjectID:    params.ObjectID,
			Description: params.Content,
			Weight:      weight,
			Meta:        params.Meta,
			CreatedAt:   now,
		}
		if err := s.storyDB.SaveMilestone(ctx, milestone); err != nil {
			return nil, fmt.Errorf("saving milestone: %w", err)
		}
	}

	if err := s.indexBlock(ctx, block); err != nil {
		return nil, fmt.Errorf("indexing block: %w", err)
	}

	return block, nil
}

// indexBlock stores a searchable snippet for a block with content.
func (s *SceneService) indexBlock(ctx context.Context, block *entities.SceneBlock) error {
	if s.vectorDB == nil || s.embedder == nil || strings.TrimSpace(block.Content) == "" {
		return nil
	}

	embedding, err := s.embedder.Embed(ctx, block.Content)
	if err != nil {
		return fmt.Errorf("generating embedding: %w", err)
	}

	return s.vectorDB.Save(ctx, entities.Snippet{
		ID:        block.ID,
		Type:      entities.ContentSceneBlock,
		RefID:     block.ID,
		Text:      block.Content,
		Embedding: embedding,
		CreatedAt: block.CreatedAt,
	})
}

// GetBlock returns a block by ID.
func (s *SceneService) GetBlock(ctx context.Context, blockID string) (*entities.SceneBlock, error) {
	return s.storyDB.FindBlockByID(ctx, blockID)
}

// ListBlocks returns the blocks of a scene in position order.
func (s *SceneService) ListBlocks(ctx context.Context, sceneID string) ([]entities.SceneBlock, error) {
	return s.storyDB.ListBlocks(ctx, sceneID)
}

// MoveBlock moves a block to a new position within its scene, shifting the
// blocks between the old and new position by one.
func (s *SceneService) MoveBlock(ctx context.Context, blockID string, newPosition int) error {
	block, err := s.storyDB.FindBlockByID(ctx, blockID)
	if err != nil {
		return fmt.Errorf("finding block: %w", err)
	}

	maxPos, err := s.storyDB.MaxBlockPosition(ctx, block.SceneID)
	if err != nil {
		return fmt.Errorf("finding block position: %w", err)
	}
	if newPosition < 0 || newPosition > maxPos {
		return fmt.Errorf("position %d out of range [0, %d]: %w", newPosition, maxPos, entities.ErrInvalidArgument)
	}
	if newPosition == block.Position {
		return nil
	}

	if newPosition < block.Position {
		err = s.storyDB.ShiftBlockPositions(ctx, block.SceneID, newPosition, block.Position-1, 1)
	} else {
		err = s.storyDB.ShiftBlockPositions(ctx, block.SceneID, block.Position+1, newPosition, -1)
	}
	if err != nil {
		return fmt.Errorf("shifting blocks: %w", err)
	}

	block.Position = newPosition
	block.UpdatedAt = timeNow()
	if err := s.storyDB.SaveBlock(ctx, block); err != nil {
		return fmt.Errorf("saving block: %w", err)
	}
	return nil
}

// DeleteBlock removes a block and closes the position gap it leaves.
func (s *SceneService) DeleteBlock(ctx context.Context, blockID string) error {
	block, err := s.storyDB.FindBlockByID(ctx, blockID)
	if err != nil {
		return fmt.Errorf("finding block: %w", err)
	}

	if err := s.storyDB.DeleteBlock(ctx, blockID); err != nil {
		return fmt.Errorf("deleting block: %w", err)
	}

	maxPos, err := s.storyDB.MaxBlockPosition(ctx, block.SceneID)
	if err != nil {
		return fmt.Errorf("finding block position: %w", err)
	}
	if block.Position <= maxPos {
		if err := s.storyDB.ShiftBlockPositions(ctx, block.SceneID, block.Position+1, maxPos+1, -1); err != nil {
			return fmt.Errorf("shifting blocks: %w", err)
		}
	}

	if s.vectorDB != nil {
		_ = s.vectorDB.Delete(ctx, blockID)
	}
	return nil
}
