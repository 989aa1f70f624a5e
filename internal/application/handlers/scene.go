package handlers

import (
	"context"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/services"
)

// SceneHandler handles scene and scene block operations.
type SceneHandler struct {
	scenes        *services.SceneService
	recap         *services.RecapService
	entityService *services.EntityService
}

// NewSceneHandler creates a new SceneHandler. recap may be nil, in which case
// HandleRecap is unavailable.
func NewSceneHandler(scenes *services.SceneService, recap *services.RecapService, entityService *services.EntityService) *SceneHandler {
	return &SceneHandler{
		scenes:        scenes,
		recap:         recap,
		entityService: entityService,
	}
}

// HandleCreate creates a scene. The location, when given, may be an entity ID
// or name.
func (h *SceneHandler) HandleCreate(ctx context.Context, storyID, title, locationRef string, timestamp *int64) (*entities.Scene, error) {
	var locationID *string
	if locationRef != "" {
		location, err := h.entityService.Resolve(ctx, storyID, locationRef)
		if err != nil {
			return nil, err
		}
		locationID = &location.ID
	}
	return h.scenes.Create(ctx, storyID, title, locationID, timestamp)
}

// HandleShow returns a scene with its blocks in position order.
func (h *SceneHandler) HandleShow(ctx context.Context, sceneID string) (*entities.Scene, []entities.SceneBlock, error) {
	scene, err := h.scenes.Get(ctx, sceneID)
	if err != nil {
		return nil, nil, err
	}
	blocks, err := h.scenes.ListBlocks(ctx, sceneID)
	if err != nil {
		return nil, nil, err
	}
	return scene, blocks, nil
}

// HandleList returns scenes for a story with pagination.
func (h *SceneHandler) HandleList(ctx context.Context, storyID string, limit, offset int) ([]*entities.Scene, error) {
	return h.scenes.List(ctx, storyID, limit, offset)
}

// HandleDelete removes a scene and its blocks.
func (h *SceneHandler) HandleDelete(ctx context.Context, sceneID string) error {
	return h.scenes.Delete(ctx, sceneID)
}

// HandleAppendBlock adds a block at the end of a scene.
func (h *SceneHandler) HandleAppendBlock(ctx context.Context, sceneID string, params services.BlockParams) (*entities.SceneBlock, error) {
	return h.scenes.AppendBlock(ctx, sceneID, params)
}

// HandleInsertBlock adds a block at a position, shifting later blocks down.
func (h *SceneHandler) HandleInsertBlock(ctx context.Context, sceneID string, position int, params services.BlockParams) (*entities.SceneBlock, error) {
	return h.scenes.InsertBlockAt(ctx, sceneID, position, params)
}

// HandleMoveBlock moves a block to a new position within its scene.
func (h *SceneHandler) HandleMoveBlock(ctx context.Context, blockID string, newPosition int) error {
	return h.scenes.MoveBlock(ctx, blockID, newPosition)
}

// HandleDeleteBlock removes a block and closes the gap it leaves.
func (h *SceneHandler) HandleDeleteBlock(ctx context.Context, blockID string) error {
	return h.scenes.DeleteBlock(ctx, blockID)
}

// HandleRecap produces a short summary of a scene from its blocks.
func (h *SceneHandler) HandleRecap(ctx context.Context, sceneID string) (string, error) {
	return h.recap.Recap(ctx, sceneID)
}
