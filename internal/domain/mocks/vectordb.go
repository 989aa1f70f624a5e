package mocks

import (
	"context"
	"fmt"

	"github.com/ersonp/saga-core/internal/domain/entities"
)

// VectorDB is a mock implementation of ports.VectorDB.
type VectorDB struct {
	Snippets []entities.Snippet
	Err      error

	// Call tracking
	SaveCallCount        int
	SaveBatchCallCount   int
	SaveBatchLastBatch   []entities.Snippet
	DeleteCallCount      int
	DeleteLastID         string
	SearchCallCount      int
	SearchLastEmbedding  []float32
	SearchByTypeLastType entities.ContentType
}

// Save stores a single snippet.
func (m *VectorDB) Save(_ context.Context, snippet entities.Snippet) error {
	m.SaveCallCount++
	if m.Err != nil {
		return m.Err
	}
	m.Snippets = append(m.Snippets, snippet)
	return nil
}

// SaveBatch stores multiple snippets.
func (m *VectorDB) SaveBatch(_ context.Context, snippets []entities.Snippet) error {
	m.SaveBatchCallCount++
	m.SaveBatchLastBatch = snippets
	if m.Err != nil {
		return m.Err
	}
	m.Snippets = append(m.Snippets, snippets...)
	return nil
}

// FindByID retrieves a snippet by ID.
func (m *VectorDB) FindByID(_ context.Context, id string) (entities.Snippet, error) {
	if m.Err != nil {
		return entities.Snippet{}, m.Err
	}
	for i := range m.Snippets {
		if m.Snippets[i].ID == id {
			return m.Snippets[i], nil
		}
	}
	return entities.Snippet{}, fmt.Errorf("snippet not found: %s", id)
}

// Search returns up to limit snippets in insertion order.
func (m *VectorDB) Search(_ context.Context, embedding []float32, limit int) ([]entities.Snippet, error) {
	m.SearchCallCount++
	m.SearchLastEmbedding = embedding
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > len(m.Snippets) {
		return m.Snippets, nil
	}
	return m.Snippets[:limit], nil
}

// SearchByType returns snippets of the given type in insertion order.
func (m *VectorDB) SearchByType(_ context.Context, embedding []float32, contentType entities.ContentType, limit int) ([]entities.Snippet, error) {
	m.SearchLastEmbedding = embedding
	m.SearchByTypeLastType = contentType
	if m.Err != nil {
		return nil, m.Err
	}
	var filtered []entities.Snippet
	for i := range m.Snippets {
		if m.Snippets[i].Type == contentType {
			filtered = append(filtered, m.Snippets[i])
		}
	}
	if limit > len(filtered) {
		return filtered, nil
	}
	return filtered[:limit], nil
}

// Delete removes a snippet by ID.
func (m *VectorDB) Delete(_ context.Context, id string) error {
	m.DeleteCallCount++
	m.DeleteLastID = id
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Snippets {
		if m.Snippets[i].ID == id {
			m.Snippets = append(m.Snippets[:i], m.Snippets[i+1:]...)
			break
		}
	}
	return nil
}
