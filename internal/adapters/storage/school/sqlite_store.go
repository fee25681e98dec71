package school

import (
	"context"
	"database/sql"
	"fmt"

	"saepe/internal/adapters/storage"
	domain "saepe/internal/domain/school"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new school store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a School by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.School, error) {
	var entity domain.School
	err := s.db.QueryRowContext(ctx, "SELECT id, name, city FROM school WHERE id = ?", id).
		Scan(&entity.ID, &entity.Name, &entity.City)
	if err == sql.ErrNoRows {
		return domain.School{}, fmt.Errorf("school not found: %w", err)
	}
	return entity, err
}

// Save persists a School.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.School) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO school (id, name, city) VALUES (?, ?, ?) ON CONFLICT(id) DO UPDATE SET name=excluded.name, city=excluded.city",
		entity.ID, entity.Name, entity.City,
	)
	return err
}

// List returns every school ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.School, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, city FROM school ORDER BY name COLLATE NOCASE")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.School
	for rows.Next() {
		var entity domain.School
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.City); err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
