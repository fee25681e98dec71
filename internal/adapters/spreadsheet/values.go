package spreadsheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Float parses a numeric cell. Blank cells and "-" are nil; a decimal comma is accepted.
// A trailing percent sign is dropped without scaling.
func Float(cell string) (*float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "-" {
		return nil, nil
	}
	cell = strings.TrimSpace(strings.TrimSuffix(cell, "%"))
	// Whichever separator comes last is the decimal one: "1.234,5" and "4,5"
	// are Brazilian, "1,234.5" is US.
	if comma := strings.LastIndex(cell, ","); comma >= 0 {
		if comma > strings.LastIndex(cell, ".") {
			cell = strings.ReplaceAll(cell, ".", "")
			cell = strings.ReplaceAll(cell, ",", ".")
		} else {
			cell = strings.ReplaceAll(cell, ",", "")
		}
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", cell)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("not a finite number: %q", cell)
	}
	return &f, nil
}

// Int parses a whole-number cell. Values such as "120.0" are accepted.
func Int(cell string) (*int, error) {
	f, err := Float(cell)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != math.Trunc(*f) {
		return nil, fmt.Errorf("not a whole number: %q", cell)
	}
	n := int(*f)
	return &n, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"02-01-2006",
}

// Date parses a date cell: an Excel serial number or a day-first textual date.
// POST: blank cells return the zero time and no error
func Date(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, nil
	}
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %q: %w", cell, err)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date: %q", cell)
}
