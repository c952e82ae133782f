// Package records parses uploaded business files into the bounded snapshots
// that get attached to a session profile: tabular files become a
// RecordSnapshot, PDF documents become extracted text notes.
package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/griffinb3/agvisor/internal/profile"
)

// Server-side truncation bounds for uploaded tabular data.
const (
	maxDataRows    = 100
	maxColumns     = 15
	maxPreviewRows = 20
)

// ParseCSV reads a delimited file with a header row and builds a bounded
// snapshot: at most the first 15 column names and a 20-row preview, counting
// at most 100 data rows. The delimiter is sniffed from the header line
// (comma, semicolon, or tab).
func ParseCSV(r io.Reader) (*profile.RecordSnapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("uploaded file is empty")
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = sniffDelimiter(string(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header row: %w", err)
	}

	columns := make([]string, 0, len(header))
	for i, name := range header {
		if i >= maxColumns {
			break
		}
		columns = append(columns, strings.TrimSpace(name))
	}

	var preview []map[string]string
	rowCount := 0
	for rowCount < maxDataRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing row %d: %w", rowCount+2, err)
		}
		rowCount++
		if len(preview) >= maxPreviewRows {
			continue
		}
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		preview = append(preview, row)
	}

	return &profile.RecordSnapshot{
		Summary:  fmt.Sprintf("%d records with fields: %s.", rowCount, strings.Join(columns, ", ")),
		Columns:  columns,
		Preview:  preview,
		RowCount: rowCount,
	}, nil
}

// sniffDelimiter picks the delimiter that splits the first line into the most
// fields. Defaults to comma.
func sniffDelimiter(data string) rune {
	line := data
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if c := strings.Count(line, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}
