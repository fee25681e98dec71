package orchestrators

import (
	"fmt"
	"strings"
)

// ImportSheet is the tabular input of an import: a header-indexed worksheet.
type ImportSheet interface {
	Missing(want ...string) []string
	Rows() [][]string
	Cell(row []string, col string) string
}

// ImportResult holds aggregate counts and per-row errors from an import run.
type ImportResult struct {
	Total    int
	Imported int
	Errors   []ImportRowError
}

// Failed returns the number of rows that were not imported.
func (r ImportResult) Failed() int {
	return len(r.Errors)
}

// ImportRowError describes why a single spreadsheet row was skipped.
// Row counts data rows from 1, excluding the header.
type ImportRowError struct {
	Row     int
	School  string
	Message string
}

// ImportValidationError rejects a whole file before anything is deleted.
type ImportValidationError struct {
	Message string
}

func (e *ImportValidationError) Error() string {
	return e.Message
}

func requireColumns(sheet ImportSheet, cols []string) error {
	if missing := sheet.Missing(cols...); len(missing) > 0 {
		return &ImportValidationError{Message: fmt.Sprintf("spreadsheet missing required column(s): %s", strings.Join(missing, ", "))}
	}
	return nil
}
