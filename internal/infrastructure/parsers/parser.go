// Package parsers provides parsers for importing story archives from
// external formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawEntity is an entity parsed from an external source before validation.
type RawEntity struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	LineNum     int            `json:"-"` // Position in source file (set by parser)
}

// RawRelationship is a relationship parsed from an external source before
// validation. Subject and Object are entity names, resolved at import time.
type RawRelationship struct {
	Subject     string         `json:"subject"`
	SubjectType string         `json:"subject_type,omitempty"`
	Predicate   string         `json:"predicate"`
	Object      string         `json:"object"`
	ObjectType  string         `json:"object_type,omitempty"`
	Weight      *float64       `json:"weight,omitempty"`
	StartsAt    *int64         `json:"starts_at,omitempty"`
	EndsAt      *int64         `json:"ends_at,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	LineNum     int            `json:"-"`
}

// Archive is a parsed story archive.
type Archive struct {
	Entities      []RawEntity       `json:"entities,omitempty"`
	Relationships []RawRelationship `json:"relationships,omitempty"`
}

// Parser defines the interface for parsing archives from various formats.
type Parser interface {
	Parse(r io.Reader) (*Archive, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
