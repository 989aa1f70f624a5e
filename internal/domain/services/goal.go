package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/ports"
)

// GoalService manages story goals and their fulfillment.
type GoalService struct {
	storyDB ports.StoryDB
}

// NewGoalService creates a new GoalService.
func NewGoalService(storyDB ports.StoryDB) *GoalService {
	return &GoalService{storyDB: storyDB}
}

// Create records a new goal for a subject entity.
func (s *GoalService) Create(ctx context.Context, subjectID, verb string, objectID *string, description string) (*entities.StoryGoal, error) {
	if strings.TrimSpace(verb) == "" {
		return nil, fmt.Errorf("goal verb is required: %w", entities.ErrInvalidArgument)
	}

	if _, err := s.storyDB.FindEntityByID(ctx, subjectID); err != nil {
		return nil, fmt.Errorf("finding subject: %w", err)
	}
	if objectID != nil {
		if _, err := s.storyDB.FindEntityByID(ctx, *objectID); err != nil {
			return nil, fmt.Errorf("finding object: %w", err)
		}
	}

	goal := &entities.StoryGoal{
		ID:          uuid.New().String(),
		SubjectID:   subjectID,
		Verb:        verb,
		ObjectID:    objectID,
		Description: description,
		CreatedAt:   timeNow(),
	}
	if err := s.storyDB.SaveGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("saving goal: %w", err)
	}

	_ = s.storyDB.LogAction(ctx, "goal.create", goal.ID, map[string]any{"verb": goal.Verb})

	return goal, nil
}

// Get returns a goal by ID.
func (s *GoalService) Get(ctx context.Context, goalID string) (*entities.StoryGoal, error) {
	return s.storyDB.FindGoalByID(ctx, goalID)
}

// List returns goals, optionally filtered by fulfillment.
func (s *GoalService) List(ctx context.Context, fulfilled *bool, limit int) ([]entities.StoryGoal, error) {
	return s.storyDB.ListGoals(ctx, fulfilled, limit)
}

// Fulfill marks a goal as fulfilled by the given milestone. A goal can only
// be fulfilled once.
func (s *GoalService) Fulfill(ctx context.Context, goalID, milestoneID string) (*entities.StoryGoal, error) {
	goal, err := s.storyDB.FindGoalByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("finding goal: %w", err)
	}
	if goal.Fulfilled() {
		return nil, fmt.Errorf("goal already fulfilled: %w", entities.ErrInvalidArgument)
	}

	if _, err := s.storyDB.FindMilestoneByID(ctx, milestoneID); err != nil {
		return nil, fmt.Errorf("finding milestone: %w", err)
	}

	now := timeNow()
	goal.FulfilledAt = &now
	goal.LinkedMilestoneID = &milestoneID
	if err := s.storyDB.SaveGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("saving goal: %w", err)
	}

	_ = s.storyDB.LogAction(ctx, "goal.fulfill", goal.ID, map[string]any{"milestone_id": milestoneID})

	return goal, nil
}

// Delete removes a goal.
func (s *GoalService) Delete(ctx context.Context, goalID string) error {
	if _, err := s.storyDB.FindGoalByID(ctx, goalID); err != nil {
		return fmt.Errorf("finding goal: %w", err)
	}
	if err := s.storyDB.DeleteGoal(ctx, goalID); err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	_ = s.storyDB.LogAction(ctx, "goal.delete", goalID, nil)
	return nil
}
