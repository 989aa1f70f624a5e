package handlers

import (
	"context"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/services"
)

// KnowledgeHandler handles knowledge snapshot operations.
type KnowledgeHandler struct {
	knowledge     *services.KnowledgeService
	entityService *services.EntityService
}

// NewKnowledgeHandler creates a new KnowledgeHandler.
func NewKnowledgeHandler(knowledge *services.KnowledgeService, entityService *services.EntityService) *KnowledgeHandler {
	return &KnowledgeHandler{
		knowledge:     knowledge,
		entityService: entityService,
	}
}

// HandleAdd records a knowledge snapshot for an entity. A nil timestamp makes
// it a baseline snapshot.
func (h *KnowledgeHandler) HandleAdd(ctx context.Context, storyID, entityRef string, timestamp *int64, knowledge map[string]any) (*entities.KnowledgeSnapshot, error) {
	entity, err := h.entityService.Resolve(ctx, storyID, entityRef)
	if err != nil {
		return nil, err
	}
	return h.knowledge.AddSnapshot(ctx, entity.ID, timestamp, knowledge, nil)
}

// HandleList returns an entity's snapshots, baseline first then by story time.
func (h *KnowledgeHandler) HandleList(ctx context.Context, storyID, entityRef string) ([]entities.KnowledgeSnapshot, error) {
	entity, err := h.entityService.Resolve(ctx, storyID, entityRef)
	if err != nil {
		return nil, err
	}
	return h.knowledge.ListForEntity(ctx, entity.ID)
}

// KnowledgeStateResult contains the computed knowledge state of an entity.
type KnowledgeStateResult struct {
	EntityID  string         `json:"entity_id"`
	Timestamp *int64         `json:"timestamp,omitempty"`
	State     map[string]any `json:"state"`
}

// HandleState computes what an entity knows at a story time. A nil timestamp
// gives the latest state.
func (h *KnowledgeHandler) HandleState(ctx context.Context, storyID, entityRef string, at *int64) (*KnowledgeStateResult, error) {
	entity, err := h.entityService.Resolve(ctx, storyID, entityRef)
	if err != nil {
		return nil, err
	}

	state, err := h.knowledge.ComputeAt(ctx, entity.ID, at)
	if err != nil {
		return nil, err
	}

	return &KnowledgeStateResult{
		EntityID:  entity.ID,
		Timestamp: at,
		State:     state,
	}, nil
}

// HandleDelete removes a snapshot.
func (h *KnowledgeHandler) HandleDelete(ctx context.Context, snapshotID string) error {
	return h.knowledge.DeleteSnapshot(ctx, snapshotID)
}
