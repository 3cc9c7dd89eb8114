package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParsedFile is the output of tabular parsing: an ordered header row and the
// data rows aligned to it.
type ParsedFile struct {
	Headers []string
	Rows    [][]string
}

// ParseCSV parses delimited tabular text. Blank lines are skipped; rows may
// carry fewer or more cells than the header row (uncontrolled source sheets
// are frequently ragged). Returns an error with a human-readable message on
// malformed content.
func ParseCSV(r io.Reader) (*ParsedFile, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var file ParsedFile
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}

		if blankRow(record) {
			continue
		}

		if file.Headers == nil {
			file.Headers = record
			// Strip a UTF-8 BOM exported by spreadsheet tools.
			file.Headers[0] = strings.TrimPrefix(file.Headers[0], "\uFEFF")
			continue
		}
		file.Rows = append(file.Rows, record)
	}

	if file.Headers == nil {
		return nil, fmt.Errorf("failed to parse CSV: file is empty")
	}
	return &file, nil
}

func blankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
