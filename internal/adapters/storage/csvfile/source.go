// Package csvfile reads the document table and writes the evaluation report as CSV.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// Required input columns.
const (
	ColumnFileName     = "file_name"
	ColumnOriginalText = "original-text"
)

// ErrMissingColumn is returned when the input header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Source loads documents from a CSV file with a header row.
type Source struct {
	path string
}

var _ ports.DocumentSource = (*Source)(nil)

// NewSource creates a source reading path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Load reads the whole file. Columns other than the required ones are ignored.
func (s *Source) Load(ctx context.Context) ([]domain.Document, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening metadata table: %w", err)
	}
	defer f.Close()

	docs, err := ReadDocuments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return docs, nil
}

// ReadDocuments parses a CSV document table from r.
func ReadDocuments(ctx context.Context, r io.Reader) ([]domain.Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table: %w", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	nameIdx, textIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case ColumnFileName:
			nameIdx = i
		case ColumnOriginalText:
			textIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnFileName)
	}
	if textIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnOriginalText)
	}

	var docs []domain.Document
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		if nameIdx >= len(record) || textIdx >= len(record) {
			return nil, fmt.Errorf("row %d has %d fields, expected at least %d", line, len(record), max(nameIdx, textIdx)+1)
		}
		docs = append(docs, domain.Document{
			FileName:     record[nameIdx],
			OriginalText: record[textIdx],
		})
	}
	return docs, nil
}
