package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/ports"
)

// MilestoneService manages milestones, the discrete plot beats of a story.
type MilestoneService struct {
	storyDB ports.StoryDB
}

// NewMilestoneService creates a new MilestoneService.
func NewMilestoneService(storyDB ports.StoryDB) *MilestoneService {
	return &MilestoneService{storyDB: storyDB}
}

// CreateMilestoneParams holds the inputs for Create.
type CreateMilestoneParams struct {
	SceneID     string
	SubjectID   *string
	Verb        string
	ObjectID    *string
	Description string
	Weight      float64
	Meta        map[string]any
}

// Create records a milestone in a scene. Subject and object, when given,
// must be existing entities.
func (s *MilestoneService) Create(ctx context.Context, params CreateMilestoneParams) (*entities.Milestone, error) {
	if strings.TrimSpace(params.Verb) == "" {
		return nil, fmt.Errorf("milestone verb is required: %w", entities.ErrInvalidArgument)
	}

	if _, err := s.storyDB.FindSceneByID(ctx, params.SceneID); err != nil {
		return nil, fmt.Errorf("finding scene: %w", err)
	}
	if params.SubjectID != nil {
		if _, err := s.storyDB.FindEntityByID(ctx, *params.SubjectID); err != nil {
			return nil, fmt.Errorf("finding subject: %w", err)
		}
	}
	if params.ObjectID != nil {
		if _, err := s.storyDB.FindEntityByID(ctx, *params.ObjectID); err != nil {
			return nil, fmt.Errorf("finding object: %w", err)
		}
	}

	weight := params.Weight
	if weight == 0 {
		weight = 1.0
	}

	milestone := &entities.Milestone{
		ID:          uuid.New().String(),
		SceneID:     params.SceneID,
		SubjectID:   params.SubjectID,
		Verb:        params.Verb,
		ObjectID:    params.ObjectID,
		Description: params.Description,
		Weight:      weight,
		Meta:        params.Meta,
		CreatedAt:   timeNow(),
	}
	if err := s.storyDB.SaveMilestone(ctx, milestone); err != nil {
		return nil, fmt.Errorf("saving milestone: %w", err)
	}

	_ = s.storyDB.LogAction(ctx, "milestone.create", milestone.ID, map[string]any{"verb": milestone.Verb})

	return milestone, nil
}

// Get returns a milestone by ID.
func (s *MilestoneService) Get(ctx context.Context, milestoneID string) (*entities.Milestone, error) {
	return s.storyDB.FindMilestoneByID(ctx, milestoneID)
}

// ListByScene returns the milestones recorded for a scene.
func (s *MilestoneService) ListByScene(ctx context.Context, sceneID string) ([]entities.Milestone, error) {
	return s.storyDB.ListMilestonesByScene(ctx, sceneID)
}

// ListBySubject returns the milestones where the entity is the subject.
func (s *MilestoneService) ListBySubject(ctx context.Context, subjectID string) ([]entities.Milestone, error) {
	return s.storyDB.ListMilestonesBySubject(ctx, subjectID)
}

// Delete removes a milestone.
func (s *MilestoneService) Delete(ctx context.Context, milestoneID string) error {
	if _, err := s.storyDB.FindMilestoneByID(ctx, milestoneID); err != nil {
		return fmt.Errorf("finding milestone: %w", err)
	}
	if err := s.storyDB.DeleteMilestone(ctx, milestoneID); err != nil {
		return fmt.Errorf("deleting milestone: %w", err)
	}
	_ = s.storyDB.LogAction(ctx, "milestone.delete", milestoneID, nil)
	return nil
}
