package techvisit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"saepe/internal/adapters/storage"
	domain "saepe/internal/domain/techvisit"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02T15:04:05.999999999Z07:00"
)

// pendingClause matches visits whose forwarding is NULL, empty or whitespace only.
const pendingClause = "TRIM(COALESCE(forwarding, ''), ' ' || char(9) || char(10) || char(13)) = ''"

const selectColumns = `SELECT id, school_name, school_key, visit_date, technician, staff_contact, demand,
	forwarding, observation, source, created_at FROM technical_visit`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new technical visit store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const insertQuery = `INSERT INTO technical_visit (id, school_name, school_key, visit_date, technician,
	staff_contact, demand, forwarding, observation, source, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// ReplaceImported deletes every imported visit and inserts rows one by one.
// PRE: rows carry IDs and Source import
// POST: a row that fails is passed to onRowError and skipped; visits created through the form are kept
// INVARIANT: re-running the same import leaves exactly one row per source row
func (s *SQLiteStore) ReplaceImported(ctx context.Context, rows []domain.TechnicalVisit, onRowError RowErrorFunc) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM technical_visit WHERE source = ?", domain.SourceImport); err != nil {
		return 0, fmt.Errorf("clear imported technical visits: %w", err)
	}

	inserted := 0
	for i, row := range rows {
		row.Source = domain.SourceImport
		if err := row.Validate(); err != nil {
			if onRowError != nil {
				onRowError(i, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs(row)...); err != nil {
			if onRowError != nil {
				onRowError(i, err)
			}
			continue
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// Create inserts a visit recorded through the form.
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Create(ctx context.Context, entity domain.TechnicalVisit) error {
	_, err := s.db.ExecContext(ctx, insertQuery, insertArgs(entity)...)
	return err
}

func insertArgs(v domain.TechnicalVisit) []any {
	var visitDate, forwarding any
	if !v.VisitDate.IsZero() {
		visitDate = v.VisitDate.Format(dateLayout)
	}
	if strings.TrimSpace(v.Forwarding) != "" {
		forwarding = v.Forwarding
	}
	return []any{
		v.ID,
		v.School.Name,
		v.School.Key,
		visitDate,
		v.Technician,
		v.StaffContact,
		v.Demand,
		forwarding,
		v.Observation,
		v.Source,
		v.CreatedAt.Format(timeLayout),
	}
}

func whereClause(filter ListFilter) (string, []any) {
	var where []string
	var args []any
	if filter.SchoolKey != "" {
		where = append(where, "school_key = ?")
		args = append(args, filter.SchoolKey)
	}
	if filter.PendingOnly {
		where = append(where, pendingClause)
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// List returns visits newest first; undated visits sort last.
// PRE: filter has valid parameters
// POST: Returns at most Limit rows when Limit > 0
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.TechnicalVisit, error) {
	where, args := whereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query := selectColumns + where + " ORDER BY visit_date IS NULL, visit_date DESC, created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.TechnicalVisit
	for rows.Next() {
		entity, err := scanTechnicalVisit(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Count returns the number of visits matching filter, ignoring Limit and Offset.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := whereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM technical_visit"+where, args...).Scan(&n)
	return n, err
}

// Summary returns the total, pending count and latest visit date.
func (s *SQLiteStore) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	var latest sql.NullString
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN %s THEN 1 ELSE 0 END), 0), MAX(visit_date) FROM technical_visit", pendingClause,
	)).Scan(&sum.Total, &sum.Pending, &latest)
	if err != nil {
		return Summary{}, err
	}
	if latest.Valid {
		sum.LatestVisit, _ = time.Parse(dateLayout, latest.String)
	}
	return sum, nil
}

// CountByTechnician counts visits per named technician, busiest first.
func (s *SQLiteStore) CountByTechnician(ctx context.Context) ([]TechnicianCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT technician, COUNT(*) AS n FROM technical_visit
		WHERE TRIM(technician) <> '' GROUP BY technician ORDER BY n DESC, technician`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []TechnicianCount
	for rows.Next() {
		var tc TechnicianCount
		if err := rows.Scan(&tc.Technician, &tc.Visits); err != nil {
			return nil, err
		}
		results = append(results, tc)
	}
	return results, rows.Err()
}

// DistinctTechnicians returns each named technician once, sorted.
func (s *SQLiteStore) DistinctTechnicians(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT technician FROM technical_visit WHERE TRIM(technician) <> '' ORDER BY technician")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func scanTechnicalVisit(scan func(dest ...any) error) (domain.TechnicalVisit, error) {
	var v domain.TechnicalVisit
	var visitDate, forwarding sql.NullString
	var createdAt string
	err := scan(
		&v.ID,
		&v.School.Name,
		&v.School.Key,
		&visitDate,
		&v.Technician,
		&v.StaffContact,
		&v.Demand,
		&forwarding,
		&v.Observation,
		&v.Source,
		&createdAt,
	)
	if err != nil {
		return domain.TechnicalVisit{}, err
	}
	if visitDate.Valid {
		v.VisitDate, _ = time.Parse(dateLayout, visitDate.String)
	}
	v.Forwarding = forwarding.String
	v.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return v, nil
}
