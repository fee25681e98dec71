package occurrence

import (
	"context"

	"saepe/internal/adapters/storage"
	domain "saepe/internal/domain/occurrence"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new occurrence store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save inserts an Occurrence.
// PRE: entity has been validated
// POST: Entity is persisted; a duplicate description is an error
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Occurrence) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO occurrence (id, description) VALUES (?, ?)", entity.ID, entity.Description)
	return err
}

// List returns all occurrences ordered by description.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Occurrence, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, description FROM occurrence ORDER BY description")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Occurrence
	for rows.Next() {
		var o domain.Occurrence
		if err := rows.Scan(&o.ID, &o.Description); err != nil {
			return nil, err
		}
		results = append(results, o)
	}
	return results, rows.Err()
}

// ExistsByDescription reports whether the description is already seeded.
func (s *SQLiteStore) ExistsByDescription(ctx context.Context, description string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM occurrence WHERE description = ?", description).Scan(&n)
	return n > 0, err
}
