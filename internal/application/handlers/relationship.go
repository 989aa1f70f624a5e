package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/services"
)

// RelationshipHandler handles relationship operations, including the temporal
// and graph queries.
type RelationshipHandler struct {
	relationships *services.RelationshipService
	graph         *services.GraphService
	entityService *services.EntityService
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(
	relationships *services.RelationshipService,
	graph *services.GraphService,
	entityService *services.EntityService,
) *RelationshipHandler {
	return &RelationshipHandler{
		relationships: relationships,
		graph:         graph,
		entityService: entityService,
	}
}

// RelationshipView is the external shape of a relationship. Field names follow
// the subject/predicate/object reading of an edge rather than the stored
// source/target form.
type RelationshipView struct {
	ID        string         `json:"id"`
	SubjectID string         `json:"subject_id"`
	ObjectID  string         `json:"object_id"`
	Predicate string         `json:"predicate"`
	Weight    *float64       `json:"weight,omitempty"`
	StartsAt  *int64         `json:"starts_at,omitempty"`
	EndsAt    *int64         `json:"ends_at,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewRelationshipView maps a stored relationship to its external shape.
func NewRelationshipView(rel *entities.Relationship) RelationshipView {
	return RelationshipView{
		ID:        rel.ID,
		SubjectID: rel.SourceID,
		ObjectID:  rel.TargetID,
		Predicate: rel.Predicate,
		Weight:    rel.Weight,
		StartsAt:  rel.StartsAt,
		EndsAt:    rel.EndsAt,
		Meta:      rel.Meta,
		CreatedAt: rel.CreatedAt,
	}
}

func relationshipViews(rels []entities.Relationship) []RelationshipView {
	views := make([]RelationshipView, 0, len(rels))
	for i := range rels {
		views = append(views, NewRelationshipView(&rels[i]))
	}
	return views
}

// CreateOptions carries the optional attributes of a new relationship.
type CreateOptions struct {
	Weight   *float64
	StartsAt *int64
	EndsAt   *int64
	Meta     map[string]any
}

// HandleCreate creates a relationship between two entities. Subject and
// object may be entity IDs or names.
func (h *RelationshipHandler) HandleCreate(
	ctx context.Context,
	storyID string,
	subjectRef string,
	predicate string,
	objectRef string,
	opts CreateOptions,
) (*RelationshipView, error) {
	subject, err := h.entityService.Resolve(ctx, storyID, subjectRef)
	if err != nil {
		return nil, err
	}
	object, err := h.entityService.Resolve(ctx, storyID, objectRef)
	if err != nil {
		return nil, err
	}

	rel, err := h.relationships.Create(ctx, services.CreateRelationshipParams{
		SourceID:  subject.ID,
		TargetID:  object.ID,
		Predicate: predicate,
		Weight:    opts.Weight,
		StartsAt:  opts.StartsAt,
		EndsAt:    opts.EndsAt,
		Meta:      opts.Meta,
	})
	if err != nil {
		return nil, err
	}

	view := NewRelationshipView(rel)
	return &view, nil
}

// HandleUpdate applies a partial update to a relationship.
func (h *RelationshipHandler) HandleUpdate(ctx context.Context, id string, params services.UpdateRelationshipParams) (*RelationshipView, error) {
	rel, err := h.relationships.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}
	view := NewRelationshipView(rel)
	return &view, nil
}

// HandleDelete removes a relationship by ID.
func (h *RelationshipHandler) HandleDelete(ctx context.Context, id string) error {
	return h.relationships.Delete(ctx, id)
}

// RelationsOptions configures relationship listing behavior.
type RelationsOptions struct {
	At        *int64 // Story time filter: only relationships active at this time
	Predicate string // Filter by predicate (empty = all)
}

// RelationsResult contains the relationships found for an entity.
type RelationsResult struct {
	EntityID      string             `json:"entity_id"`
	Relationships []RelationshipView `json:"relationships"`
}

// HandleRelations lists the relationships of an entity, optionally filtered
// by story time and predicate.
func (h *RelationshipHandler) HandleRelations(ctx context.Context, storyID, entityRef string, opts RelationsOptions) (*RelationsResult, error) {
	entity, err := h.entityService.Resolve(ctx, storyID, entityRef)
	if err != nil {
		return nil, err
	}

	var rels []entities.Relationship
	if opts.At != nil {
		rels, err = h.relationships.ActiveForEntity(ctx, opts.At, entity.ID)
	} else {
		rels, err = h.relationships.ForEntity(ctx, entity.ID)
	}
	if err != nil {
		return nil, err
	}

	if opts.Predicate != "" {
		filtered := rels[:0:0]
		for i := range rels {
			if rels[i].Predicate == opts.Predicate {
				filtered = append(filtered, rels[i])
			}
		}
		rels = filtered
	}

	return &RelationsResult{
		EntityID:      entity.ID,
		Relationships: relationshipViews(rels),
	}, nil
}

// HandleActive lists all relationships active at the given story time.
func (h *RelationshipHandler) HandleActive(ctx context.Context, at int64) ([]RelationshipView, error) {
	rels, err := h.relationships.Active(ctx, &at)
	if err != nil {
		return nil, err
	}
	return relationshipViews(rels), nil
}

// HandleTimeline lists the relationships whose validity intersects the
// story-time window [from, to).
func (h *RelationshipHandler) HandleTimeline(ctx context.Context, from, to int64) ([]RelationshipView, error) {
	rels, err := h.relationships.Overlapping(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return relationshipViews(rels), nil
}

// HandleBetween lists the relationships connecting two entities in either
// direction, optionally restricted to those active at a story time.
func (h *RelationshipHandler) HandleBetween(ctx context.Context, storyID, aRef, bRef string, at *int64) ([]RelationshipView, error) {
	a, err := h.entityService.Resolve(ctx, storyID, aRef)
	if err != nil {
		return nil, err
	}
	b, err := h.entityService.Resolve(ctx, storyID, bRef)
	if err != nil {
		return nil, err
	}

	rels, err := h.relationships.Between(ctx, a.ID, b.ID, at)
	if err != nil {
		return nil, err
	}
	return relationshipViews(rels), nil
}

// GraphResult contains a relationship graph in external form.
type GraphResult struct {
	CenterEntity  string             `json:"center_entity"`
	Timestamp     *int64             `json:"timestamp,omitempty"`
	Relationships []RelationshipView `json:"relationships"`
	Entities      []string           `json:"entities"`
}

// HandleGraph builds the relationship graph around an entity. A zero depth
// defaults to the minimum; out-of-range depths are rejected by the service.
func (h *RelationshipHandler) HandleGraph(ctx context.Context, storyID, entityRef string, depth int, at *int64) (*GraphResult, error) {
	entity, err := h.entityService.Resolve(ctx, storyID, entityRef)
	if err != nil {
		return nil, err
	}

	if depth == 0 {
		depth = services.MinGraphDepth
	}

	graph, err := h.graph.Build(ctx, entity.ID, depth, at)
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}

	return &GraphResult{
		CenterEntity:  graph.CenterEntity,
		Timestamp:     graph.Timestamp,
		Relationships: relationshipViews(graph.Relationships),
		Entities:      graph.Entities,
	}, nil
}

// HandleCount returns the total number of relationships.
func (h *RelationshipHandler) HandleCount(ctx context.Context) (int, error) {
	return h.relationships.Count(ctx)
}

// HandleHistory returns the audit trail for a relationship.
func (h *RelationshipHandler) HandleHistory(ctx context.Context, id string) ([]entities.AuditEntry, error) {
	return h.relationships.History(ctx, id)
}
