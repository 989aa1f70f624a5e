package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/ports"
)

// Graph traversal depth bounds.
const (
	MinGraphDepth = 1
	MaxGraphDepth = 5
)

// GraphService builds bounded relationship graphs around an entity.
type GraphService struct {
	storyDB ports.StoryDB
}

// NewGraphService creates a new GraphService.
func NewGraphService(storyDB ports.StoryDB) *GraphService {
	return &GraphService{storyDB: storyDB}
}

// graphWalk accumulates traversal state. Edges are deduplicated by
// relationship ID so cycles and bidirectional hops cannot double-count.
type graphWalk struct {
	at      *int64
	visited map[string]bool
	edges   map[string]entities.Relationship
}

// Build walks relationships outward from the center entity up to depth hops
// and returns the subgraph it reaches. With a timestamp, only relationships
// active at that story time are followed; without one, all relationships are.
// Any lookup failure aborts the build: partial graphs are never returned.
func (s *GraphService) Build(ctx context.Context, entityID string, depth int, at *int64) (*entities.RelationshipGraph, error) {
	if depth < MinGraphDepth || depth > MaxGraphDepth {
		return nil, fmt.Errorf("depth must be between %d and %d: %w", MinGraphDepth, MaxGraphDepth, entities.ErrInvalidArgument)
	}

	// The center must exist; a graph around an unknown entity is an error,
	// not an empty result.
	if _, err := s.storyDB.FindEntityByID(ctx, entityID); err != nil {
		return nil, fmt.Errorf("finding center entity: %w", err)
	}

	walk := &graphWalk{
		at:      at,
		visited: make(map[string]bool),
		edges:   make(map[string]entities.Relationship),
	}

	if err := s.walk(ctx, walk, entityID, depth); err != nil {
		return nil, err
	}

	graph := &entities.RelationshipGraph{
		CenterEntity:  entityID,
		Timestamp:     at,
		Relationships: make([]entities.Relationship, 0, len(walk.edges)),
		Entities:      make([]string, 0, len(walk.visited)),
	}
	for _, rel := range walk.edges {
		graph.Relationships = append(graph.Relationships, rel)
	}
	sort.Slice(graph.Relationships, func(i, j int) bool {
		return graph.Relationships[i].ID < graph.Relationships[j].ID
	})
	for id := range walk.visited {
		graph.Entities = append(graph.Entities, id)
	}
	sort.Strings(graph.Entities)

	return graph, nil
}

// walk expands one entity and recurses into its unvisited neighbors with one
// hop fewer remaining.
func (s *GraphService) walk(ctx context.Context, w *graphWalk, entityID string, remaining int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.visited[entityID] {
		return nil
	}
	w.visited[entityID] = true

	if remaining <= 0 {
		return nil
	}

	rels, err := s.storyDB.FindRelationshipsByEntity(ctx, entityID)
	if err != nil {
		return fmt.Errorf("finding relationships for %s: %w", entityID, err)
	}

	for _, rel := range rels {
		if w.at != nil && !rel.ActiveAt(*w.at) {
			continue
		}
		w.edges[rel.ID] = rel

		if err := s.walk(ctx, w, rel.OtherSide(entityID), remaining-1); err != nil {
			return err
		}
	}

	return nil
}
