package visit

import (
	"context"
	"strings"
	"time"

	"saepe/internal/adapters/storage"
	domain "saepe/internal/domain/visit"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02T15:04:05.999999999Z07:00"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new visit store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts a Visit.
// PRE: entity has been normalised and validated
// POST: Entity is persisted
func (s *SQLiteStore) Create(ctx context.Context, entity domain.Visit) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO visit
		(id, school_id, author_id, received_by, visit_date, visit_time, objective, notes, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entity.ID,
		entity.SchoolID,
		entity.AuthorID,
		entity.ReceivedBy,
		entity.VisitDate.Format(dateLayout),
		entity.VisitTime,
		entity.Objective,
		entity.Notes,
		entity.Status,
		entity.CreatedAt.Format(timeLayout),
		entity.UpdatedAt.Format(timeLayout),
	)
	return err
}

// List returns visits ordered by visit date, newest first.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Visit, error) {
	var queryBuilder strings.Builder
	var args []any
	var where []string

	queryBuilder.WriteString(`SELECT id, school_id, author_id, received_by, visit_date, visit_time,
		objective, notes, status, created_at, updated_at FROM visit`)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.SchoolID != "" {
		where = append(where, "school_id = ?")
		args = append(args, filter.SchoolID)
	}
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	queryBuilder.WriteString(" ORDER BY visit_date DESC, visit_time DESC LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Visit
	for rows.Next() {
		var v domain.Visit
		var visitDate, createdAt, updatedAt string
		if err := rows.Scan(&v.ID, &v.SchoolID, &v.AuthorID, &v.ReceivedBy, &visitDate, &v.VisitTime,
			&v.Objective, &v.Notes, &v.Status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		v.VisitDate, _ = time.Parse(dateLayout, visitDate)
		v.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		v.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		results = append(results, v)
	}
	return results, rows.Err()
}
