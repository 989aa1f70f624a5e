package ports

import (
	"context"

	"github.com/ersonp/saga-core/internal/domain/entities"
)

// VectorDB defines the interface for vector database operations over snippets.
type VectorDB interface {
	// Save stores a snippet with its embedding.
	Save(ctx context.Context, snippet entities.Snippet) error

	// SaveBatch stores multiple snippets.
	SaveBatch(ctx context.Context, snippets []entities.Snippet) error

	// FindByID retrieves a snippet by its ID.
	FindByID(ctx context.Context, id string) (entities.Snippet, error)

	// Search performs a semantic search and returns similar snippets.
	Search(ctx context.Context, embedding []float32, limit int) ([]entities.Snippet, error)

	// SearchByType performs a semantic search filtered by content type.
	SearchByType(ctx context.Context, embedding []float32, contentType entities.ContentType, limit int) ([]entities.Snippet, error)

	// Delete removes a snippet by its ID.
	Delete(ctx context.Context, id string) error
}
