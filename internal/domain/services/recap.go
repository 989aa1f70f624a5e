package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/ports"
)

// RecapService produces short summaries of scenes.
type RecapService struct {
	llm     ports.LLMClient
	storyDB ports.StoryDB
}

// NewRecapService creates a new RecapService.
func NewRecapService(llm ports.LLMClient, storyDB ports.StoryDB) *RecapService {
	return &RecapService{llm: llm, storyDB: storyDB}
}

// Recap summarizes a scene from its blocks in position order. Blocks with a
// summary contribute the summary instead of the full content.
func (s *RecapService) Recap(ctx context.Context, sceneID string) (string, error) {
	scene, err := s.storyDB.FindSceneByID(ctx, sceneID)
	if err != nil {
		return "", fmt.Errorf("finding scene: %w", err)
	}

	blocks, err := s.storyDB.ListBlocks(ctx, sceneID)
	if err != nil {
		return "", fmt.Errorf("listing blocks: %w", err)
	}
	if len(blocks) == 0 {
		return "", fmt.Errorf("scene %q has no blocks: %w", scene.Title, entities.ErrInvalidArgument)
	}

	var sb strings.Builder
	sb.WriteString(scene.Title)
	sb.WriteString("\n\n")
	for _, block := range blocks {
		text := block.Content
		if block.Summary != "" {
			text = block.Summary
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	recap, err := s.llm.Summarize(ctx, sb.String())
	if err != nil {
		return "", fmt.Errorf("summarizing scene: %w", err)
	}
	return recap, nil
}
