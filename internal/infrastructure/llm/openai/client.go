// Package openai provides an LLMClient implementation using OpenAI.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ersonp/saga-core/internal/domain/ports"
	"github.com/ersonp/saga-core/internal/infrastructure/config"
)

const extractionPrompt = `You are a story analyst. Extract entities and relationships from the given prose.

For each element, produce an object with:
- kind: "entity" or "relationship"
- For entities: name, entity_type (character, location, artifact, event), description (optional)
- For relationships: subject, predicate (snake_case verb phrase like located_at, allied_with, knows_about), object
- starts_at / ends_at: integer story timestamps, ONLY when the text states when a relationship begins or ends; omit otherwise
- confidence: How confident you are (0.0-1.0)

Return ONLY a valid JSON array, no other text.

Example:
Input: "Mira left the Harbor District after the fire."
Output: [
  {"kind": "entity", "name": "Mira", "entity_type": "character", "confidence": 0.95},
  {"kind": "entity", "name": "Harbor District", "entity_type": "location", "confidence": 0.9},
  {"kind": "relationship", "subject": "Mira", "predicate": "located_at", "object": "Harbor District", "confidence": 0.8}
]`

const summaryPrompt = `You are a story assistant. Summarize the following scene text as a short recap.

Keep it under 120 words, present tense, and mention only what happens in the text. Return ONLY the recap, no preamble.`

// Client implements the LLMClient interface using OpenAI.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new OpenAI LLM client.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	client := openai.NewClient(cfg.APIKey)

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// ExtractElements extracts entities and relationships from the given prose.
func (c *Client) ExtractElements(ctx context.Context, text string) ([]ports.StoryElement, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: extractionPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	content = cleanJSONResponse(content)

	var elements []ports.StoryElement
	if err := json.Unmarshal([]byte(content), &elements); err != nil {
		return nil, fmt.Errorf("parsing elements JSON: %w (response: %s)", err, content)
	}

	return elements, nil
}

// Summarize produces a short recap of the given scene text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: summaryPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// cleanJSONResponse removes markdown code blocks if present.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}
