package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/ports"
)

// RelationshipService manages relationships between entities, including their
// story-time validity. Temporal semantics are half-open: a relationship with
// bounds [starts_at, ends_at) is active at t when starts_at <= t < ends_at,
// with a nil bound meaning unbounded on that side.
type RelationshipService struct {
	storyDB  ports.StoryDB
	vectorDB ports.VectorDB
	embedder ports.Embedder
}

// NewRelationshipService creates a new RelationshipService. vectorDB and
// embedder may be nil, in which case relationships are not indexed for
// semantic search.
func NewRelationshipService(
	storyDB ports.StoryDB,
	vectorDB ports.VectorDB,
	embedder ports.Embedder,
) *RelationshipService {
	return &RelationshipService{
		storyDB:  storyDB,
		vectorDB: vectorDB,
		embedder: embedder,
	}
}

// CreateRelationshipParams holds the inputs for Create.
type CreateRelationshipParams struct {
	SourceID  string
	TargetID  string
	Predicate string
	Weight    *float64
	StartsAt  *int64
	EndsAt    *int64
	Meta      map[string]any
}

// Create creates a new relationship between two entities. Both endpoints must
// exist. Self-loops and duplicate edges are allowed; an interval whose start
// is not before its end is stored as given but is never active.
func (s *RelationshipService) Create(ctx context.Context, params CreateRelationshipParams) (*entities.Relationship, error) {
	if strings.TrimSpace(params.Predicate) == "" {
		return nil, fmt.Errorf("predicate is required: %w", entities.ErrInvalidArgument)
	}

	source, err := s.storyDB.FindEntityByID(ctx, params.SourceID)
	if err != nil {
		return nil, fmt.Errorf("finding source entity: %w", err)
	}
	target, err := s.storyDB.FindEntityByID(ctx, params.TargetID)
	if err != nil {
		return nil, fmt.Errorf("finding target entity: %w", err)
	}

	rel := &entities.Relationship{
		ID:        uuid.New().String(),
		SourceID:  params.SourceID,
		TargetID:  params.TargetID,
		Predicate: params.Predicate,
		Weight:    params.Weight,
		StartsAt:  params.StartsAt,
		EndsAt:    params.EndsAt,
		Meta:      params.Meta,
		CreatedAt: timeNow(),
	}

	if err := s.storyDB.SaveRelationship(ctx, rel); err != nil {
		return nil, fmt.Errorf("saving relationship: %w", err)
	}

	if err := s.indexRelationship(ctx, rel, source, target); err != nil {
		// Roll back so the stores stay in sync
		_ = s.storyDB.DeleteRelationship(ctx, rel.ID)
		return nil, fmt.Errorf("indexing relationship: %w", err)
	}

	_ = s.storyDB.LogAction(ctx, "relationship.create", rel.ID, map[string]any{
		"source_id": rel.SourceID,
		"target_id": rel.TargetID,
		"predicate": rel.Predicate,
	})

	return rel, nil
}

// indexRelationship stores a searchable snippet for the relationship.
func (s *RelationshipService) indexRelationship(ctx context.Context, rel *entities.Relationship, source, target *entities.Entity) error {
	if s.vectorDB == nil || s.embedder == nil {
		return nil
	}

	text := fmt.Sprintf("%s %s %s", source.Name, rel.Predicate, target.Name)
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("generating embedding: %w", err)
	}

	snippet := entities.Snippet{
		ID:        rel.ID,
		Type:      entities.ContentRelationship,
		RefID:     rel.ID,
		Text:      text,
		Embedding: embedding,
		CreatedAt: rel.CreatedAt,
	}
	return s.vectorDB.Save(ctx, snippet)
}

// Get returns a relationship by ID.
func (s *RelationshipService) Get(ctx context.Context, id string) (*entities.Relationship, error) {
	return s.storyDB.FindRelationshipByID(ctx, id)
}

// UpdateRelationshipParams holds the partial update for a relationship. Nil
// fields are left unchanged; the Clear flags reset a temporal bound to
// unbounded.
type UpdateRelationshipParams struct {
	Predicate     *string
	Weight        *float64
	StartsAt      *int64
	EndsAt        *int64
	ClearStartsAt bool
	ClearEndsAt   bool
	Meta          map[string]any
}

// Update applies a partial update to an existing relationship.
func (s *RelationshipService) Update(ctx context.Context, id string, params UpdateRelationshipParams) (*entities.Relationship, error) {
	rel, err := s.storyDB.FindRelationshipByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding relationship: %w", err)
	}

	if params.Predicate != nil {
		if strings.TrimSpace(*params.Predicate) == "" {
			return nil, fmt.Errorf("predicate cannot be empty: %w", entities.ErrInvalidArgument)
		}
		rel.Predicate = *params.Predicate
	}
	if params.Weight != nil {
		rel.Weight = params.Weight
	}
	if params.ClearStartsAt {
		rel.StartsAt = nil
	} else if params.StartsAt != nil {
		rel.StartsAt = params.StartsAt
	}
	if params.ClearEndsAt {
		rel.EndsAt = nil
	} else if params.EndsAt != nil {
		rel.EndsAt = params.EndsAt
	}
	if params.Meta != nil {
		rel.Meta = params.Meta
	}

	if err := s.storyDB.SaveRelationship(ctx, rel); err != nil {
		return nil, fmt.Errorf("saving relationship: %w", err)
	}

	_ = s.storyDB.LogAction(ctx, "relationship.update", rel.ID, nil)

	return rel, nil
}

// Delete removes a relationship from both stores.
func (s *RelationshipService) Delete(ctx context.Context, id string) error {
	// Confirm it exists so deletion of an unknown ID reports not found
	if _, err := s.storyDB.FindRelationshipByID(ctx, id); err != nil {
		return fmt.Errorf("finding relationship: %w", err)
	}

	if s.vectorDB != nil {
		if err := s.vectorDB.Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting relationship snippet: %w", err)
		}
	}

	if err := s.storyDB.DeleteRelationship(ctx, id); err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}

	_ = s.storyDB.LogAction(ctx, "relationship.delete", id, nil)

	return nil
}

// Active returns all relationships active at story time t.
func (s *RelationshipService) Active(ctx context.Context, at *int64) ([]entities.Relationship, error) {
	if at == nil {
		return nil, fmt.Errorf("timestamp is required for active queries: %w", entities.ErrInvalidArgument)
	}

	rels, err := s.storyDB.FindRelationshipsActiveAt(ctx, *at)
	if err != nil {
		return nil, fmt.Errorf("finding active relationships: %w", err)
	}
	return rels, nil
}

// ActiveForEntity returns the relationships active at story time t that
// involve the given entity as source or target.
func (s *RelationshipService) ActiveForEntity(ctx context.Context, at *int64, entityID string) ([]entities.Relationship, error) {
	rels, err := s.Active(ctx, at)
	if err != nil {
		return nil, err
	}

	filtered := rels[:0:0]
	for _, rel := range rels {
		if rel.Involves(entityID) {
			filtered = append(filtered, rel)
		}
	}
	return filtered, nil
}

// Overlapping returns all relationships whose validity interval intersects
// the half-open story-time window [from, to).
func (s *RelationshipService) Overlapping(ctx context.Context, from, to int64) ([]entities.Relationship, error) {
	if from >= to {
		return nil, fmt.Errorf("window start must be before end: %w", entities.ErrInvalidArgument)
	}

	rels, err := s.storyDB.FindRelationshipsOverlapping(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("finding overlapping relationships: %w", err)
	}
	return rels, nil
}

// ForEntity returns every relationship involving the entity, regardless of
// story time. Self-loops appear once.
func (s *RelationshipService) ForEntity(ctx context.Context, entityID string) ([]entities.Relationship, error) {
	rels, err := s.storyDB.FindRelationshipsByEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("finding relationships for entity: %w", err)
	}
	return rels, nil
}

// Between returns the relationships connecting two entities in either
// direction. With a timestamp, only relationships active at that story time
// are returned; without one, story time is ignored.
func (s *RelationshipService) Between(ctx context.Context, a, b string, at *int64) ([]entities.Relationship, error) {
	rels, err := s.storyDB.FindRelationshipsBetween(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("finding relationships between entities: %w", err)
	}
	if at == nil {
		return rels, nil
	}

	filtered := rels[:0:0]
	for _, rel := range rels {
		if rel.ActiveAt(*at) {
			filtered = append(filtered, rel)
		}
	}
	return filtered, nil
}

// Count returns the total number of relationships.
func (s *RelationshipService) Count(ctx context.Context) (int, error) {
	return s.storyDB.CountRelationships(ctx)
}

// History returns the audit trail for a relationship.
func (s *RelationshipService) History(ctx context.Context, id string) ([]entities.AuditEntry, error) {
	return s.storyDB.FindAuditLog(ctx, id)
}

// timeNow is swappable for tests.
var timeNow = time.Now
