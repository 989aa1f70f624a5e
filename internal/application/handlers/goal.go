package handlers

import (
	"context"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/services"
)

// GoalHandler handles story goal operations.
type GoalHandler struct {
	goals         *services.GoalService
	milestones    *services.MilestoneService
	entityService *services.EntityService
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goals *services.GoalService, milestones *services.MilestoneService, entityService *services.EntityService) *GoalHandler {
	return &GoalHandler{
		goals:         goals,
		milestones:    milestones,
		entityService: entityService,
	}
}

// HandleCreate records a goal. Subject and object may be entity IDs or names.
func (h *GoalHandler) HandleCreate(ctx context.Context, storyID, subjectRef, verb, objectRef, description string) (*entities.StoryGoal, error) {
	subject, err := h.entityService.Resolve(ctx, storyID, subjectRef)
	if err != nil {
		return nil, err
	}

	var objectID *string
	if objectRef != "" {
		object, err := h.entityService.Resolve(ctx, storyID, objectRef)
		if err != nil {
			return nil, err
		}
		objectID = &object.ID
	}

	return h.goals.Create(ctx, subject.ID, verb, objectID, description)
}

// HandleList returns goals, optionally filtered by fulfillment.
func (h *GoalHandler) HandleList(ctx context.Context, fulfilled *bool, limit int) ([]entities.StoryGoal, error) {
	return h.goals.List(ctx, fulfilled, limit)
}

// HandleFulfill marks a goal as fulfilled by a milestone.
func (h *GoalHandler) HandleFulfill(ctx context.Context, goalID, milestoneID string) (*entities.StoryGoal, error) {
	return h.goals.Fulfill(ctx, goalID, milestoneID)
}

// HandleDelete removes a goal.
func (h *GoalHandler) HandleDelete(ctx context.Context, goalID string) error {
	return h.goals.Delete(ctx, goalID)
}

// HandleMilestonesForSubject lists the milestones where an entity is the
// subject, for finding fulfillment candidates.
func (h *GoalHandler) HandleMilestonesForSubject(ctx context.Context, storyID, subjectRef string) ([]entities.Milestone, error) {
	subject, err := h.entityService.Resolve(ctx, storyID, subjectRef)
	if err != nil {
		return nil, err
	}
	return h.milestones.ListBySubject(ctx, subject.ID)
}
