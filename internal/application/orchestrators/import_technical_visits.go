package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"saepe/internal/adapters/spreadsheet"
	techvisitStore "saepe/internal/adapters/storage/techvisit"
	"saepe/internal/domain/indicator"
	"saepe/internal/domain/techvisit"
)

// Technical visit spreadsheet headers, matched case-insensitively.
const (
	ColVisitSchool       = "Escola"
	ColVisitDate         = "Data da Visita"
	ColVisitTechnician   = "Técnico/Analista - GRE"
	ColVisitStaffContact = "Servidor da Escola"
	ColVisitDemand       = "Demanda"
	ColVisitForwarding   = "Encaminhamento"
	ColVisitObservation  = "Observação"
)

var technicalVisitColumns = []string{
	ColVisitSchool, ColVisitDate, ColVisitTechnician, ColVisitStaffContact,
	ColVisitDemand, ColVisitForwarding, ColVisitObservation,
}

// TechnicalVisitStoreForImport defines the store interface needed by ImportTechnicalVisits.
type TechnicalVisitStoreForImport interface {
	ReplaceImported(ctx context.Context, rows []techvisit.TechnicalVisit, onRowError techvisitStore.RowErrorFunc) (int, error)
}

// ImportTechnicalVisitsDeps holds dependencies for ImportTechnicalVisits.
type ImportTechnicalVisitsDeps struct {
	VisitStore TechnicalVisitStoreForImport
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteImportTechnicalVisits replaces the imported technical visits with the rows of sheet.
// PRE: sheet has every technical visit column
// POST: one visit per valid row; unparseable dates skip the row; visits created through the form survive
// INVARIANT: a sheet with missing columns deletes nothing
func ExecuteImportTechnicalVisits(ctx context.Context, sheet ImportSheet, deps ImportTechnicalVisitsDeps) (ImportResult, error) {
	if err := requireColumns(sheet, technicalVisitColumns); err != nil {
		return ImportResult{}, err
	}

	var (
		result  ImportResult
		rows    []techvisit.TechnicalVisit
		rowNums []int
	)
	now := deps.Now()
	for i, raw := range sheet.Rows() {
		rowNum := i + 1
		result.Total++
		school := sheet.Cell(raw, ColVisitSchool)

		date, err := spreadsheet.Date(sheet.Cell(raw, ColVisitDate))
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, School: school, Message: err.Error()})
			slog.Warn("import_event", "event", "technical_visit_row_skipped", "row", rowNum, "reason", err.Error())
			continue
		}

		v := techvisit.TechnicalVisit{
			ID:           deps.GenerateID(),
			School:       indicator.NewSchoolRef(school),
			VisitDate:    date,
			Technician:   sheet.Cell(raw, ColVisitTechnician),
			StaffContact: sheet.Cell(raw, ColVisitStaffContact),
			Demand:       sheet.Cell(raw, ColVisitDemand),
			Forwarding:   sheet.Cell(raw, ColVisitForwarding),
			Observation:  sheet.Cell(raw, ColVisitObservation),
			Source:       techvisit.SourceImport,
			CreatedAt:    now,
		}
		if err := v.Validate(); err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, School: school, Message: err.Error()})
			slog.Warn("import_event", "event", "technical_visit_row_skipped", "row", rowNum, "reason", err.Error())
			continue
		}
		rows = append(rows, v)
		rowNums = append(rowNums, rowNum)
	}

	n, err := deps.VisitStore.ReplaceImported(ctx, rows, func(idx int, err error) {
		result.Errors = append(result.Errors, ImportRowError{Row: rowNums[idx], School: rows[idx].School.Name, Message: err.Error()})
		slog.Warn("import_event", "event", "technical_visit_row_failed", "row", rowNums[idx], "error", err)
	})
	if err != nil {
		return result, err
	}
	result.Imported = n

	slog.Info("import_event", "event", "technical_visits_imported", "total", result.Total, "imported", result.Imported, "failed", result.Failed())
	return result, nil
}
