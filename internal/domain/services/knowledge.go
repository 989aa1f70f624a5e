package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/ports"
)

// KnowledgeService manages what entities know over story time. Knowledge is
// recorded as snapshots; the state at a point in time is the merge of every
// snapshot up to that point, later keys winning.
type KnowledgeService struct {
	storyDB ports.StoryDB
}

// NewKnowledgeService creates a new KnowledgeService.
func NewKnowledgeService(storyDB ports.StoryDB) *KnowledgeService {
	return &KnowledgeService{storyDB: storyDB}
}

// AddSnapshot records a knowledge snapshot for an entity. A nil timestamp
// makes it a baseline snapshot that applies from the beginning.
func (s *KnowledgeService) AddSnapshot(ctx context.Context, entityID string, timestamp *int64, knowledge, meta map[string]any) (*entities.KnowledgeSnapshot, error) {
	if len(knowledge) == 0 {
		return nil, fmt.Errorf("knowledge is required: %w", entities.ErrInvalidArgument)
	}
	if _, err := s.storyDB.FindEntityByID(ctx, entityID); err != nil {
		return nil, fmt.Errorf("finding entity: %w", err)
	}

	snap := &entities.KnowledgeSnapshot{
		ID:        uuid.New().String(),
		EntityID:  entityID,
		Timestamp: timestamp,
		Knowledge: knowledge,
		Meta:      meta,
		CreatedAt: timeNow(),
	}
	if err := s.storyDB.SaveKnowledgeSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("saving knowledge snapshot: %w", err)
	}

	_ = s.storyDB.LogAction(ctx, "knowledge.snapshot", snap.ID, map[string]any{"entity_id": entityID})

	return snap, nil
}

// ListForEntity returns an entity's snapshots, baseline first then by story
// time ascending.
func (s *KnowledgeService) ListForEntity(ctx context.Context, entityID string) ([]entities.KnowledgeSnapshot, error) {
	if _, err := s.storyDB.FindEntityByID(ctx, entityID); err != nil {
		return nil, fmt.Errorf("finding entity: %w", err)
	}
	return s.storyDB.ListKnowledgeSnapshots(ctx, entityID)
}

// ComputeAt returns what the entity knows at story time at. Baseline
// snapshots always apply; timestamped snapshots apply when their time is at
// or before at. A nil at merges everything, giving the latest state.
func (s *KnowledgeService) ComputeAt(ctx context.Context, entityID string, at *int64) (map[string]any, error) {
	snapshots, err := s.ListForEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}

	// Snapshots arrive baseline first, then ascending, so later writes win
	state := make(map[string]any)
	for _, snap := range snapshots {
		if at != nil && snap.Timestamp != nil && *snap.Timestamp > *at {
			continue
		}
		for k, v := range snap.Knowledge {
			state[k] = v
		}
	}
	return state, nil
}

// DeleteSnapshot removes a snapshot.
func (s *KnowledgeService) DeleteSnapshot(ctx context.Context, id string) error {
	if _, err := s.storyDB.FindKnowledgeSnapshotByID(ctx, id); err != nil {
		return fmt.Errorf("finding knowledge snapshot: %w", err)
	}
	if err := s.storyDB.DeleteKnowledgeSnapshot(ctx, id); err != nil {
		return fmt.Errorf("deleting knowledge snapshot: %w", err)
	}
	return nil
}
