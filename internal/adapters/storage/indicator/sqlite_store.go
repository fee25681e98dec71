package indicator

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"saepe/internal/adapters/storage"
	domain "saepe/internal/domain/indicator"
)

const selectColumns = `SELECT id, school_name, school_key, modality, projected_enrollment_2023, weight_percent,
	score_2022, score_2023, proficiency_lp_2023, proficiency_mt_2023, enrollment_efaf_2024 FROM school_indicator`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new indicator store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ReplaceAll deletes every indicator and inserts rows one by one.
// PRE: rows carry IDs
// POST: a row that fails to insert is passed to onRowError and skipped; the rest are committed
// INVARIANT: after success the table holds exactly the rows that inserted, so re-running never duplicates
func (s *SQLiteStore) ReplaceAll(ctx context.Context, rows []domain.Indicator, onRowError RowErrorFunc) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM school_indicator"); err != nil {
		return 0, fmt.Errorf("clear school_indicator: %w", err)
	}

	const insert = `INSERT INTO school_indicator (id, school_name, school_key, modality, projected_enrollment_2023,
		weight_percent, score_2022, score_2023, proficiency_lp_2023, proficiency_mt_2023, enrollment_efaf_2024)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	inserted := 0
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			if onRowError != nil {
				onRowError(i, err)
			}
			continue
		}
		_, err := tx.ExecContext(ctx, insert,
			row.ID,
			row.School.Name,
			row.School.Key,
			row.Modality,
			nullInt(row.ProjectedEnrollment23),
			nullFloat(row.WeightPercent),
			nullFloat(row.Score2022),
			nullFloat(row.Score2023),
			nullFloat(row.ProficiencyLP2023),
			nullFloat(row.ProficiencyMT2023),
			nullInt(row.EnrollmentEFAF2024),
		)
		if err != nil {
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

// List returns indicators ordered by school name.
// PRE: filter has valid parameters
// POST: an empty filter returns all rows; otherwise only rows whose name equals the trimmed filter
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Indicator, error) {
	query := selectColumns
	var args []any
	if name := strings.TrimSpace(filter.SchoolName); name != "" {
		query += " WHERE school_name = ?"
		args = append(args, name)
	}
	query += " ORDER BY school_name, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Indicator
	for rows.Next() {
		entity, err := scanIndicator(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// GetBySchoolName returns the indicator whose name equals the trimmed input.
// POST: the first row by id wins when a spreadsheet repeated a school; a miss wraps sql.ErrNoRows
func (s *SQLiteStore) GetBySchoolName(ctx context.Context, name string) (domain.Indicator, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE school_name = ? ORDER BY id LIMIT 1", strings.TrimSpace(name))
	entity, err := scanIndicator(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Indicator{}, fmt.Errorf("indicator not found: %w", err)
	}
	return entity, err
}

// DistinctSchoolNames returns each school name once, sorted.
func (s *SQLiteStore) DistinctSchoolNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT school_name FROM school_indicator ORDER BY school_name")
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

// CountSchools returns the number of distinct schools by key.
func (s *SQLiteStore) CountSchools(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT school_key) FROM school_indicator").Scan(&n)
	return n, err
}

func scanIndicator(scan func(dest ...any) error) (domain.Indicator, error) {
	var entity domain.Indicator
	var projected, efaf sql.NullInt64
	var weight, s22, s23, lp, mt sql.NullFloat64
	err := scan(
		&entity.ID,
		&entity.School.Name,
		&entity.School.Key,
		&entity.Modality,
		&projected,
		&weight,
		&s22,
		&s23,
		&lp,
		&mt,
		&efaf,
	)
	if err != nil {
		return domain.Indicator{}, err
	}
	entity.ProjectedEnrollment23 = intPtr(projected)
	entity.WeightPercent = floatPtr(weight)
	entity.Score2022 = floatPtr(s22)
	entity.Score2023 = floatPtr(s23)
	entity.ProficiencyLP2023 = floatPtr(lp)
	entity.ProficiencyMT2023 = floatPtr(mt)
	entity.EnrollmentEFAF2024 = intPtr(efaf)
	return entity, nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
