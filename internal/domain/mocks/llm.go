package mocks

import (
	"context"

	"github.com/ersonp/saga-core/internal/domain/ports"
)

// LLMClient is a mock implementation of ports.LLMClient.
type LLMClient struct {
	Elements   []ports.StoryElement
	ExtractErr error

	Summary      string
	SummarizeErr error

	ExtractCallCount   int
	SummarizeCallCount int
	LastText           string
}

// ExtractElements returns the configured elements or error.
func (m *LLMClient) ExtractElements(_ context.Context, text string) ([]ports.StoryElement, error) {
	m.ExtractCallCount++
	m.LastText = text
	if m.ExtractErr != nil {
		return nil, m.ExtractErr
	}
	return m.Elements, nil
}

// Summarize returns the configured summary or error.
func (m *LLMClient) Summarize(_ context.Context, text string) (string, error) {
	m.SummarizeCallCount++
	m.LastText = text
	if m.SummarizeErr != nil {
		return "", m.SummarizeErr
	}
	return m.Summary, nil
}
