// internal/csvimport/reader.go
package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrEmptyFile = errors.New("empty file: no header row found")
	ErrNoRows    = errors.New("file contains no data rows")
)

// Warning is a non-fatal problem with one line of the export.
type Warning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Table is a parsed export. Every row has exactly len(Headers) values.
type Table struct {
	Headers  []string   `json:"headers"`
	Rows     [][]string `json:"rows"`
	Encoding string     `json:"encoding"`
	Warnings []Warning  `json:"warnings,omitempty"`
	// Lines holds the source line each row started on.
	Lines []int `json:"lines,omitempty"`
}

// Line returns the source line of Rows[i]. Tables built without line
// numbers count from the header.
func (t *Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

// Parse reads a vendor CSV export. Short rows are padded, long rows are
// truncated and blank lines are skipped, each with a warning. Row numbers in
// warnings and Lines are 1-based source lines with the header on line 1.
func Parse(data []byte) (*Table, error) {
	decoded, encoding, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers, Encoding: encoding}
	headerCount := len(headers)
	rowNum := 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rowNum = parseErr.StartLine
			} else {
				rowNum++
			}
			table.Warnings = append(table.Warnings, Warning{Row: rowNum, Message: fmt.Sprintf("parse error: %v", err)})
			continue
		}
		rowNum, _ = reader.FieldPos(0)
		if isBlankRow(row) {
			continue
		}

		switch {
		case len(row) < headerCount:
			table.Warnings = append(table.Warnings, Warning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; padding with empty values", len(row), headerCount),
			})
			padded := make([]string, headerCount)
			copy(padded, row)
			row = padded
		case len(row) > headerCount:
			table.Warnings = append(table.Warnings, Warning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(row), headerCount),
			})
			row = row[:headerCount]
		}

		table.Rows = append(table.Rows, row)
		table.Lines = append(table.Lines, rowNum)
	}

	if len(table.Rows) == 0 {
		return nil, ErrNoRows
	}
	return table, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
