package handlers

import (
	"context"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/services"
)

// PredicateHandler handles predicate registry operations.
type PredicateHandler struct {
	service *services.PredicateService
}

// NewPredicateHandler creates a new PredicateHandler.
func NewPredicateHandler(service *services.PredicateService) *PredicateHandler {
	return &PredicateHandler{
		service: service,
	}
}

// HandleList returns all registered predicates.
func (h *PredicateHandler) HandleList(ctx context.Context) ([]entities.Predicate, error) {
	return h.service.List(ctx)
}

// HandleAdd registers a new predicate.
func (h *PredicateHandler) HandleAdd(ctx context.Context, name, description string) error {
	return h.service.Add(ctx, name, description)
}

// HandleRemove unregisters a predicate.
func (h *PredicateHandler) HandleRemove(ctx context.Context, name string) error {
	return h.service.Remove(ctx, name)
}

// HandleDescribe returns a specific predicate, or nil if not registered.
func (h *PredicateHandler) HandleDescribe(ctx context.Context, name string) (*entities.Predicate, error) {
	return h.service.Get(ctx, name)
}
