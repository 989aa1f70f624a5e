package services

import (
	"context"
	"fmt"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/ports"
)

// DefaultSearchLimit is the default number of results to return.
const DefaultSearchLimit = 10

// SearchService handles semantic search over indexed story content.
type SearchService struct {
	embedder ports.Embedder
	vectorDB ports.VectorDB
}

// NewSearchService creates a new search service.
func NewSearchService(embedder ports.Embedder, vectorDB ports.VectorDB) *SearchService {
	return &SearchService{
		embedder: embedder,
		vectorDB: vectorDB,
	}
}

// Search finds snippets semantically similar to the query.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]entities.Snippet, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	snippets, err := s.vectorDB.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("searching snippets: %w", err)
	}

	return snippets, nil
}

// SearchByType finds snippets filtered by content type.
func (s *SearchService) SearchByType(ctx context.Context, query string, contentType entities.ContentType, limit int) ([]entities.Snippet, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	snippets, err := s.vectorDB.SearchByType(ctx, embedding, contentType, limit)
	if err != nil {
		return nil, fmt.Errorf("searching snippets by type: %w", err)
	}

	return snippets, nil
}
