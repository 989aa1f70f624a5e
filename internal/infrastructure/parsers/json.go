package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses story archives from JSON format.
type JSONParser struct{}

// Parse reads a JSON archive from the reader.
func (p *JSONParser) Parse(r io.Reader) (*Archive, error) {
	var archive Archive

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&archive); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Set positions (array index + 1, 1-indexed)
	for i := range archive.Entities {
		archive.Entities[i].LineNum = i + 1
	}
	for i := range archive.Relationships {
		archive.Relationships[i].LineNum = i + 1
	}

	return &archive, nil
}
