package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/ersonp/saga-core/internal/domain/services"
	"github.com/ersonp/saga-core/internal/infrastructure/parsers"
)

// ImportHandler handles importing story archives from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format string // "json", "csv", or "auto"
	DryRun bool   // Validate without saving
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	EntitiesCreated      int
	RelationshipsCreated int
	Errors               []services.ImportError
}

// Handle imports a story archive from a file.
func (h *ImportHandler) Handle(ctx context.Context, storyID, filePath string, opts ImportOptions) (*ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	archive, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(archive.Entities) == 0 && len(archive.Relationships) == 0 {
		return &ImportResult{}, nil
	}

	serviceResult, err := h.service.Import(ctx, storyID, archive, services.ImportOptions{
		DryRun: opts.DryRun,
	})
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		EntitiesCreated:      serviceResult.EntitiesCreated,
		RelationshipsCreated: serviceResult.RelationshipsCreated,
		Errors:               serviceResult.Errors,
	}, nil
}
