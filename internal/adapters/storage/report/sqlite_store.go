package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"saepe/internal/adapters/storage"
	domain "saepe/internal/domain/report"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new report store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts a report together with its occurrence links.
// PRE: entity has been validated and its occurrence IDs de-duplicated
// POST: report and links are written atomically
func (s *SQLiteStore) Create(ctx context.Context, entity domain.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO report (id, school_id, author_id, details, created_at) VALUES (?, ?, ?, ?, ?)",
		entity.ID, entity.SchoolID, entity.AuthorID, entity.Details, entity.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return err
	}
	for _, occID := range entity.OccurrenceIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO report_occurrence (report_id, occurrence_id) VALUES (?, ?)", entity.ID, occID,
		); err != nil {
			return fmt.Errorf("link occurrence %s: %w", occID, err)
		}
	}
	return tx.Commit()
}

// List returns reports newest first, each with its occurrence IDs.
// PRE: filter has valid parameters
// POST: OccurrenceIDs are sorted
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Report, error) {
	var queryBuilder strings.Builder
	var args []any
	queryBuilder.WriteString(`SELECT r.id, r.school_id, r.author_id, r.details, r.created_at,
		COALESCE((SELECT GROUP_CONCAT(ro.occurrence_id, ',') FROM report_occurrence ro WHERE ro.report_id = r.id), '')
		FROM report r`)
	if filter.SchoolID != "" {
		queryBuilder.WriteString(" WHERE r.school_id = ?")
		args = append(args, filter.SchoolID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	queryBuilder.WriteString(" ORDER BY r.created_at DESC LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Report
	for rows.Next() {
		var r domain.Report
		var createdAt, occIDs string
		if err := rows.Scan(&r.ID, &r.SchoolID, &r.AuthorID, &r.Details, &createdAt, &occIDs); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if occIDs != "" {
			r.OccurrenceIDs = strings.Split(occIDs, ",")
			sort.Strings(r.OccurrenceIDs)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
