package orchestrators

import (
	"context"
	"log/slog"

	"saepe/internal/adapters/spreadsheet"
	indicatorStore "saepe/internal/adapters/storage/indicator"
	"saepe/internal/domain/indicator"
)

// Indicator spreadsheet headers, matched case-insensitively.
const (
	ColIndicatorSchool       = "ESCOLA"
	ColIndicatorModality     = "MODALIDADE"
	ColIndicatorProjected    = "ALUNOS PREVISTOS SAEPE 2023"
	ColIndicatorWeight       = "% PESO"
	ColIndicatorScore2022    = "SAEPE 2022"
	ColIndicatorScore2023    = "SAEPE 2023"
	ColIndicatorProfLP2023   = "PROFICIÊNCIA LP SAEPE 2023"
	ColIndicatorProfMT2023   = "PROFICIÊNCIA MT SAEPE 2023"
	ColIndicatorEnrollEFAF24 = "MATRÍCULA EFAF 2024"
)

var indicatorColumns = []string{
	ColIndicatorSchool, ColIndicatorModality, ColIndicatorProjected, ColIndicatorWeight,
	ColIndicatorScore2022, ColIndicatorScore2023, ColIndicatorProfLP2023, ColIndicatorProfMT2023,
	ColIndicatorEnrollEFAF24,
}

// IndicatorStoreForImport defines the store interface needed by ImportIndicators.
type IndicatorStoreForImport interface {
	ReplaceAll(ctx context.Context, rows []indicator.Indicator, onRowError indicatorStore.RowErrorFunc) (int, error)
}

// ImportIndicatorsDeps holds dependencies for ImportIndicators.
type ImportIndicatorsDeps struct {
	IndicatorStore IndicatorStoreForImport
	GenerateID     func() string
}

// ExecuteImportIndicators replaces the school indicator table with the rows of sheet.
// PRE: sheet has every indicator column
// POST: the table holds one row per valid sheet row; bad rows are logged and listed in the result
// INVARIANT: a sheet with missing columns deletes nothing
func ExecuteImportIndicators(ctx context.Context, sheet ImportSheet, deps ImportIndicatorsDeps) (ImportResult, error) {
	if err := requireColumns(sheet, indicatorColumns); err != nil {
		return ImportResult{}, err
	}

	var (
		result  ImportResult
		rows    []indicator.Indicator
		rowNums []int
	)
	for i, raw := range sheet.Rows() {
		rowNum := i + 1
		result.Total++
		ind, msg := parseIndicatorRow(sheet, raw)
		if msg != "" {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, School: sheet.Cell(raw, ColIndicatorSchool), Message: msg})
			slog.Warn("import_event", "event", "indicator_row_skipped", "row", rowNum, "reason", msg)
			continue
		}
		ind.ID = deps.GenerateID()
		rows = append(rows, ind)
		rowNums = append(rowNums, rowNum)
	}

	n, err := deps.IndicatorStore.ReplaceAll(ctx, rows, func(idx int, err error) {
		result.Errors = append(result.Errors, ImportRowError{Row: rowNums[idx], School: rows[idx].School.Name, Message: err.Error()})
		slog.Warn("import_event", "event", "indicator_row_failed", "row", rowNums[idx], "error", err)
	})
	if err != nil {
		return result, err
	}
	result.Imported = n

	slog.Info("import_event", "event", "indicators_imported", "total", result.Total, "imported", result.Imported, "failed", result.Failed())
	return result, nil
}

// parseIndicatorRow maps one sheet row; a non-empty message means the row is skipped.
func parseIndicatorRow(sheet ImportSheet, raw []string) (indicator.Indicator, string) {
	ind := indicator.Indicator{
		School:   indicator.NewSchoolRef(sheet.Cell(raw, ColIndicatorSchool)),
		Modality: sheet.Cell(raw, ColIndicatorModality),
	}
	if err := ind.Validate(); err != nil {
		return ind, err.Error()
	}

	floats := []struct {
		col string
		dst **float64
	}{
		{ColIndicatorWeight, &ind.WeightPercent},
		{ColIndicatorScore2022, &ind.Score2022},
		{ColIndicatorScore2023, &ind.Score2023},
		{ColIndicatorProfLP2023, &ind.ProficiencyLP2023},
		{ColIndicatorProfMT2023, &ind.ProficiencyMT2023},
	}
	for _, f := range floats {
		v, err := spreadsheet.Float(sheet.Cell(raw, f.col))
		if err != nil {
			return ind, f.col + ": " + err.Error()
		}
		*f.dst = v
	}

	ints := []struct {
		col string
		dst **int
	}{
		{ColIndicatorProjected, &ind.ProjectedEnrollment23},
		{ColIndicatorEnrollEFAF24, &ind.EnrollmentEFAF2024},
	}
	for _, f := range ints {
		v, err := spreadsheet.Int(sheet.Cell(raw, f.col))
		if err != nil {
			return ind, f.col + ": " + err.Error()
		}
		*f.dst = v
	}
	return ind, ""
}
