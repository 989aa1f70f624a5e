package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/services"
)

// SearchHandler handles semantic search over indexed story content.
type SearchHandler struct {
	searchService *services.SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searchService *services.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// SearchResult contains the result of a search.
type SearchResult struct {
	Query    string
	Snippets []entities.Snippet
}

// Handle searches for snippets matching the query.
func (h *SearchHandler) Handle(ctx context.Context, query string, limit int) (*SearchResult, error) {
	snippets, err := h.searchService.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching snippets: %w", err)
	}

	return &SearchResult{
		Query:    query,
		Snippets: snippets,
	}, nil
}

// HandleByType searches for snippets filtered by content type.
func (h *SearchHandler) HandleByType(ctx context.Context, query string, contentType string, limit int) (*SearchResult, error) {
	ct, err := parseContentType(contentType)
	if err != nil {
		return nil, err
	}

	snippets, err := h.searchService.SearchByType(ctx, query, ct, limit)
	if err != nil {
		return nil, fmt.Errorf("searching snippets by type: %w", err)
	}

	return &SearchResult{
		Query:    query,
		Snippets: snippets,
	}, nil
}

// parseContentType validates and converts a string to ContentType.
func parseContentType(s string) (entities.ContentType, error) {
	switch s {
	case "scene_block":
		return entities.ContentSceneBlock, nil
	case "milestone":
		return entities.ContentMilestone, nil
	case "goal":
		return entities.ContentGoal, nil
	case "entity":
		return entities.ContentEntity, nil
	case "relationship":
		return entities.ContentRelationship, nil
	default:
		return "", fmt.Errorf("invalid content type: %s (valid: scene_block, milestone, goal, entity, relationship)", s)
	}
}
