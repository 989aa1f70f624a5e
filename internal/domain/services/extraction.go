// Package services contains domain business logic.
package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/ports"
)

const (
	// DefaultChunkSize is the default size for text chunks.
	DefaultChunkSize = 2000
	// DefaultChunkOverlap is the default overlap between chunks.
	DefaultChunkOverlap = 200
	// MinExtractionConfidence is the threshold below which extracted
	// elements are skipped.
	MinExtractionConfidence = 0.5
)

// IngestResult contains the outcome of extracting story elements from prose.
type IngestResult struct {
	Entities      []*entities.Entity
	Relationships []*entities.Relationship
	Skipped       int
}

// ExtractionService turns prose into entities and relationships using the
// LLM. Extracted relationships carry story-time bounds when the model can
// infer them.
type ExtractionService struct {
	llm           ports.LLMClient
	storyDB       ports.StoryDB
	relationships *RelationshipService
}

// NewExtractionService creates a new extraction service.
func NewExtractionService(llm ports.LLMClient, storyDB ports.StoryDB, relationships *RelationshipService) *ExtractionService {
	return &ExtractionService{
		llm:           llm,
		storyDB:       storyDB,
		relationships: relationships,
	}
}

// ExtractAndStore extracts story elements from text and stores them.
// LLM calls run once per chunk: models have token limits, so the text is
// chunked and each chunk processed separately.
func (s *ExtractionService) ExtractAndStore(ctx context.Context, storyID, text string) (*IngestResult, error) {
	chunks := ChunkText(text, DefaultChunkSize, DefaultChunkOverlap)

	result := &IngestResult{}
	for i, chunk := range chunks {
		elements, err := s.llm.ExtractElements(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("extracting elements from chunk %d: %w", i, err)
		}
		if err := s.storeElements(ctx, storyID, elements, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// ExtractFromReader extracts story elements by streaming from an io.Reader.
// This keeps memory at O(chunk_size) for large files.
func (s *ExtractionService) ExtractFromReader(ctx context.Context, storyID string, r io.Reader) (*IngestResult, error) {
	chunker := newStreamChunker(r)
	result := &IngestResult{}

	processChunk := func(chunkText string) error {
		elements, err := s.llm.ExtractElements(ctx, chunkText)
		if err != nil {
			return fmt.Errorf("extracting elements: %w", err)
		}
		return s.storeElements(ctx, storyID, elements, result)
	}

	for chunker.scanner.Scan() {
		if err := chunker.processLine(chunker.scanner.Text(), processChunk); err != nil {
			return nil, err
		}
	}

	if err := chunker.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	if err := chunker.flush(processChunk); err != nil {
		return nil, err
	}

	return result, nil
}

// storeElements persists a batch of extracted elements into the result.
func (s *ExtractionService) storeElements(ctx context.Context, storyID string, elements []ports.StoryElement, result *IngestResult) error {
	for _, element := range elements {
		if element.Confidence < MinExtractionConfidence {
			result.Skipped++
			continue
		}

		switch element.Kind {
		case "entity":
			entity, err := s.storeEntity(ctx, storyID, element)
			if err != nil {
				return err
			}
			result.Entities = append(result.Entities, entity)

		case "relationship":
			rel, err := s.storeRelationship(ctx, storyID, element)
			if err != nil {
				return err
			}
			result.Relationships = append(result.Relationships, rel)

		default:
			result.Skipped++
		}
	}
	return nil
}

func (s *ExtractionService) storeEntity(ctx context.Context, storyID string, element ports.StoryElement) (*entities.Entity, error) {
	if strings.TrimSpace(element.Name) == "" {
		return nil, fmt.Errorf("extracted entity has no name: %w", entities.ErrInvalidArgument)
	}

	entity, err := s.storyDB.FindOrCreateEntity(ctx, storyID, element.Name, extractedType(element.EntityType))
	if err != nil {
		return nil, fmt.Errorf("storing extracted entity %q: %w", element.Name, err)
	}

	if element.Description != "" && entity.Description == "" {
		entity.Description = element.Description
		if err := s.storyDB.SaveEntity(ctx, entity); err != nil {
			return nil, fmt.Errorf("updating entity description: %w", err)
		}
	}
	return entity, nil
}

func (s *ExtractionService) storeRelationship(ctx context.Context, storyID string, element ports.StoryElement) (*entities.Relationship, error) {
	if element.Subject == "" || element.Predicate == "" || element.Object == "" {
		return nil, fmt.Errorf("extracted relationship is incomplete: %w", entities.ErrInvalidArgument)
	}

	subject, err := s.storyDB.FindOrCreateEntity(ctx, storyID, element.Subject, entities.EntityCharacter)
	if err != nil {
		return nil, fmt.Errorf("resolving subject %q: %w", element.Subject, err)
	}
	object, err := s.storyDB.FindOrCreateEntity(ctx, storyID, element.Object, entities.EntityCharacter)
	if err != nil {
		return nil, fmt.Errorf("resolving object %q: %w", element.Object, err)
	}

	return s.relationships.Create(ctx, CreateRelationshipParams{
		SourceID:  subject.ID,
		TargetID:  object.ID,
		Predicate: element.Predicate,
		StartsAt:  element.StartsAt,
		EndsAt:    element.EndsAt,
		Meta:      map[string]any{"confidence": element.Confidence, "extracted": true},
	})
}

// extractedType maps an LLM-reported type onto a known entity type,
// defaulting to character.
func extractedType(raw string) entities.EntityType {
	t := entities.EntityType(strings.ToLower(strings.TrimSpace(raw)))
	if entities.ValidEntityType(t) {
		return t
	}
	return entities.EntityCharacter
}

// streamChunker handles streaming chunking of text from an io.Reader.
type streamChunker struct {
	scanner       *bufio.Scanner
	currentChunk  strings.Builder
	lastParagraph strings.Builder
	inParagraph   bool
}

// newStreamChunker creates a chunker for the given reader.
func newStreamChunker(r io.Reader) *streamChunker {
	scanner := bufio.NewScanner(r)
	// Allow up to 1MB lines
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &streamChunker{scanner: scanner}
}

// addParagraphToChunk adds a completed paragraph to the current chunk.
// Returns true if the chunk became full and was processed.
func (c *streamChunker) addParagraphToChunk(para string, processChunk func(string) error) (bool, error) {
	if len(para) == 0 {
		return false, nil
	}

	if c.currentChunk.Len()+len(para)+2 > DefaultChunkSize && c.currentChunk.Len() > 0 {
		if err := processChunk(c.currentChunk.String()); err != nil {
			return false, err
		}

		// Start new chunk with overlap
		overlap := getOverlapText(c.currentChunk.String(), DefaultChunkOverlap)
		c.currentChunk.Reset()
		c.currentChunk.WriteString(overlap)

		if c.currentChunk.Len() > 0 {
			c.currentChunk.WriteString("\n\n")
		}
		c.currentChunk.WriteString(para)
		return true, nil
	}

	if c.currentChunk.Len() > 0 {
		c.currentChunk.WriteString("\n\n")
	}
	c.currentChunk.WriteString(para)
	return false, nil
}

// processLine handles a single line, accumulating paragraphs.
func (c *streamChunker) processLine(line string, processChunk func(string) error) error {
	if strings.TrimSpace(line) == "" {
		// Empty line marks paragraph boundary
		if c.inParagraph && c.lastParagraph.Len() > 0 {
			para := c.lastParagraph.String()
			if _, err := c.addParagraphToChunk(para, processChunk); err != nil {
				return err
			}
			c.lastParagraph.Reset()
			c.inParagraph = false
		}
		return nil
	}

	if c.inParagraph {
		c.lastParagraph.WriteString("\n")
	}
	c.lastParagraph.WriteString(line)
	c.inParagraph = true
	return nil
}

// flush processes any remaining content.
func (c *streamChunker) flush(processChunk func(string) error) error {
	if c.lastParagraph.Len() > 0 {
		para := c.lastParagraph.String()
		if _, err := c.addParagraphToChunk(para, processChunk); err != nil {
			return err
		}
	}

	if c.currentChunk.Len() > 0 {
		return processChunk(c.currentChunk.String())
	}
	return nil
}

// ChunkText splits text into chunks with overlap.
func ChunkText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	paragraphs := strings.Split(text, "\n\n")

	var currentChunk strings.Builder
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if currentChunk.Len()+len(para)+2 > chunkSize && currentChunk.Len() > 0 {
			chunks = append(chunks, currentChunk.String())

			overlapText := getOverlapText(currentChunk.String(), overlap)
			currentChunk.Reset()
			currentChunk.WriteString(overlapText)
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString("\n\n")
		}
		currentChunk.WriteString(para)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	if len(chunks) == 0 && len(text) > 0 {
		chunks = append(chunks, text)
	}

	return chunks
}

// getOverlapText returns the last n characters of text for overlap.
func getOverlapText(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[len(text)-n:]
}
