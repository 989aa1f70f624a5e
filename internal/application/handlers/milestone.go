package handlers

import (
	"context"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/services"
)

// MilestoneHandler handles milestone operations.
type MilestoneHandler struct {
	milestones    *services.MilestoneService
	entityService *services.EntityService
}

// NewMilestoneHandler creates a new MilestoneHandler.
func NewMilestoneHandler(milestones *services.MilestoneService, entityService *services.EntityService) *MilestoneHandler {
	return &MilestoneHandler{
		milestones:    milestones,
		entityService: entityService,
	}
}

// HandleCreate records a milestone in a scene. Subject and object may be
// entity IDs or names.
func (h *MilestoneHandler) HandleCreate(ctx context.Context, storyID, sceneID, subjectRef, verb, objectRef, description string, weight float64) (*entities.Milestone, error) {
	var subjectID, objectID *string
	if subjectRef != "" {
		subject, err := h.entityService.Resolve(ctx, storyID, subjectRef)
		if err != nil {
			return nil, err
		}
		subjectID = &subject.ID
	}
	if objectRef != "" {
		object, err := h.entityService.Resolve(ctx, storyID, objectRef)
		if err != nil {
			return nil, err
		}
		objectID = &object.ID
	}

	return h.milestones.Create(ctx, services.CreateMilestoneParams{
		SceneID:     sceneID,
		SubjectID:   subjectID,
		Verb:        verb,
		ObjectID:    objectID,
		Description: description,
		Weight:      weight,
	})
}

// HandleShow returns a milestone by ID.
func (h *MilestoneHandler) HandleShow(ctx context.Context, milestoneID string) (*entities.Milestone, error) {
	return h.milestones.Get(ctx, milestoneID)
}

// HandleListByScene returns the milestones recorded for a scene.
func (h *MilestoneHandler) HandleListByScene(ctx context.Context, sceneID string) ([]entities.Milestone, error) {
	return h.milestones.ListByScene(ctx, sceneID)
}

// HandleDelete removes a milestone.
func (h *MilestoneHandler) HandleDelete(ctx context.Context, milestoneID string) error {
	return h.milestones.Delete(ctx, milestoneID)
}
