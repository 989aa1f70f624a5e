package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVParser parses relationship rows from CSV format. CSV carries
// relationships only; entities are created implicitly from the endpoints.
type CSVParser struct{}

// Parse reads CSV from the reader and returns the parsed archive.
// Expected columns: subject, predicate, object, plus optional subject_type,
// object_type, weight, starts_at, ends_at.
func (p *CSVParser) Parse(r io.Reader) (*Archive, error) {
	reader := csv.NewReader(r)

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	rels, err := p.readRecords(reader, colIndex)
	if err != nil {
		return nil, err
	}
	return &Archive{Relationships: rels}, nil
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[col] = i
	}

	requiredCols := []string{"subject", "predicate", "object"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to raw relationships.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawRelationship, error) {
	var rels []RawRelationship
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		rel, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}

	return rels, nil
}

// parseRecord converts a CSV record to a RawRelationship.
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (RawRelationship, error) {
	rel := RawRelationship{
		Subject:     getColumn(record, colIndex, "subject"),
		SubjectType: getColumn(record, colIndex, "subject_type"),
		Predicate:   getColumn(record, colIndex, "predicate"),
		Object:      getColumn(record, colIndex, "object"),
		ObjectType:  getColumn(record, colIndex, "object_type"),
		LineNum:     lineNum,
	}

	if raw := getColumn(record, colIndex, "weight"); raw != "" {
		weight, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rel, fmt.Errorf("line %d: invalid weight %q: %w", lineNum, raw, err)
		}
		rel.Weight = &weight
	}
	if raw := getColumn(record, colIndex, "starts_at"); raw != "" {
		startsAt, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return rel, fmt.Errorf("line %d: invalid starts_at %q: %w", lineNum, raw, err)
		}
		rel.StartsAt = &startsAt
	}
	if raw := getColumn(record, colIndex, "ends_at"); raw != "" {
		endsAt, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return rel, fmt.Errorf("line %d: invalid ends_at %q: %w", lineNum, raw, err)
		}
		rel.EndsAt = &endsAt
	}

	return rel, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, name string) string {
	idx, ok := colIndex[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}
