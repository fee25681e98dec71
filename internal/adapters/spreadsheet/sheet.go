// Package spreadsheet reads the first worksheet of an .xlsx or .csv file into header-indexed rows.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmpty is returned when a file has no header row.
var ErrEmpty = errors.New("worksheet is empty")

// Sheet is a parsed worksheet: one header row followed by data rows.
type Sheet struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// Open reads path, choosing the decoder by extension (.xlsx, .xlsm or .csv).
// PRE: path names a readable file
// POST: returns the first worksheet; fully blank rows are dropped
func Open(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(filepath.Ext(path), f)
}

// Parse decodes r according to ext (".xlsx", ".xlsm" or ".csv").
func Parse(ext string, r io.Reader) (*Sheet, error) {
	var (
		raw [][]string
		err error
	)
	switch strings.ToLower(ext) {
	case ".xlsx", ".xlsm":
		raw, err = readWorkbook(r)
	case ".csv":
		raw, err = readCSV(r)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet type %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return newSheet(raw)
}

func readWorkbook(r io.Reader) ([][]string, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	// Raw values keep dates as serial numbers instead of the display format.
	return file.GetRows(sheetName, excelize.Options{RawCellValue: true})
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

func newSheet(raw [][]string) (*Sheet, error) {
	if len(raw) == 0 {
		return nil, ErrEmpty
	}
	s := &Sheet{header: raw[0], index: make(map[string]int, len(raw[0]))}
	for i, h := range raw[0] {
		key := normalizeHeader(h)
		if _, dup := s.index[key]; !dup && key != "" {
			s.index[key] = i
		}
	}
	for _, row := range raw[1:] {
		if isBlank(row) {
			continue
		}
		s.rows = append(s.rows, row)
	}
	return s, nil
}

func normalizeHeader(header string) string {
	header = strings.TrimPrefix(header, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(header), " "))
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Header returns the header row as read.
func (s *Sheet) Header() []string { return s.header }

// Rows returns the data rows.
func (s *Sheet) Rows() [][]string { return s.rows }

// Len returns the number of data rows.
func (s *Sheet) Len() int { return len(s.rows) }

// Missing returns the columns from want that the header lacks, in the order given.
// Matching ignores case and surrounding whitespace.
func (s *Sheet) Missing(want ...string) []string {
	var missing []string
	for _, col := range want {
		if _, ok := s.index[normalizeHeader(col)]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// Cell returns the trimmed value of column col in row, or "" when absent.
func (s *Sheet) Cell(row []string, col string) string {
	i, ok := s.index[normalizeHeader(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
