package storage

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// migration is one forward-only schema step. Steps are applied in order and never edited once released.
type migration struct {
	version     int
	description string
	apply       func(tx *sql.Tx) error
}

// migrations is the ordered migration chain. Append new steps; never rewrite old ones.
var migrations = []migration{
	{1, "baseline schema", migrateBaseline},
	{2, "school key columns for weak name references", migrateSchoolKeys},
	{3, "technical visit source and indexes", migrateTechVisitSource},
}

// LatestSchemaVersion returns the version the migration chain ends at.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the current schema version, or 0 for an untracked database.
// PRE: db is a valid database connection
// POST: schema_version is not created as a side effect
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect schema_version: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB brings the database schema up to LatestSchemaVersion.
// PRE: db is a valid database connection; dbPath is the file it was opened from (or ":memory:")
// POST: every pending migration applied in its own transaction; file databases are backed up first
// INVARIANT: running twice is a no-op
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if !isMemoryPath(dbPath) {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}

	if current > 0 && !isMemoryPath(dbPath) {
		backup, err := backupDB(dbPath, current)
		if err != nil {
			return fmt.Errorf("failed to back up database before migration: %w", err)
		}
		slog.Info("migration_backup", "path", backup, "from_version", current)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		slog.Info("migration_applied", "version", m.version, "description", m.description)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.apply(tx); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)",
		m.version, m.description, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

func isMemoryPath(path string) bool {
	return path == "" || path == ":memory:" || strings.Contains(path, "mode=memory")
}

// backupDB copies the database file next to itself before an upgrade.
// POST: returns the backup path; the original file is untouched
func backupDB(path string, version int) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst := fmt.Sprintf("%s.v%d.%s.bak", path, version, time.Now().UTC().Format("20060102T150405"))
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", err
	}
	return dst, out.Close()
}

// columnExists reports whether table already has the named column.
// Lets additive migrations run against databases created before schema tracking.
func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func addColumnIfMissing(tx *sql.Tx, table, column, definition string) error {
	ok, err := columnExists(tx, table, column)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

func migrateBaseline(tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS school (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS occurrence (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS report (
		id TEXT PRIMARY KEY,
		school_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (school_id) REFERENCES school(id),
		FOREIGN KEY (author_id) REFERENCES account(id)
	);

	CREATE TABLE IF NOT EXISTS report_occurrence (
		report_id TEXT NOT NULL,
		occurrence_id TEXT NOT NULL,
		PRIMARY KEY (report_id, occurrence_id),
		FOREIGN KEY (report_id) REFERENCES report(id),
		FOREIGN KEY (occurrence_id) REFERENCES occurrence(id)
	);

	CREATE TABLE IF NOT EXISTS visit (
		id TEXT PRIMARY KEY,
		school_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		received_by TEXT NOT NULL DEFAULT '',
		visit_date TEXT NOT NULL,
		visit_time TEXT NOT NULL DEFAULT '',
		objective TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (school_id) REFERENCES school(id),
		FOREIGN KEY (author_id) REFERENCES account(id)
	);

	CREATE TABLE IF NOT EXISTS school_indicator (
		id TEXT PRIMARY KEY,
		school_name TEXT NOT NULL,
		modality TEXT NOT NULL DEFAULT '',
		projected_enrollment_2023 INTEGER,
		weight_percent REAL,
		score_2022 REAL,
		score_2023 REAL,
		proficiency_lp_2023 REAL,
		proficiency_mt_2023 REAL,
		enrollment_efaf_2024 INTEGER
	);

	CREATE TABLE IF NOT EXISTS technical_visit (
		id TEXT PRIMARY KEY,
		school_name TEXT NOT NULL,
		visit_date TEXT,
		technician TEXT NOT NULL DEFAULT '',
		staff_contact TEXT NOT NULL DEFAULT '',
		demand TEXT NOT NULL DEFAULT '',
		forwarding TEXT,
		observation TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	`
	_, err := tx.Exec(schema)
	return err
}

func migrateSchoolKeys(tx *sql.Tx) error {
	if err := addColumnIfMissing(tx, "school_indicator", "school_key", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}
	if err := addColumnIfMissing(tx, "technical_visit", "school_key", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}
	// Backfill keys for rows imported before the column existed.
	for _, table := range []string{"school_indicator", "technical_visit"} {
		if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET school_name = TRIM(school_name), school_key = LOWER(TRIM(school_name)) WHERE school_key = ''", table)); err != nil {
			return err
		}
	}
	_, err := tx.Exec(`
	CREATE INDEX IF NOT EXISTS idx_school_indicator_name ON school_indicator(school_name);
	CREATE INDEX IF NOT EXISTS idx_technical_visit_key ON technical_visit(school_key);
	`)
	return err
}

func migrateTechVisitSource(tx *sql.Tx) error {
	if err := addColumnIfMissing(tx, "technical_visit", "source", "TEXT NOT NULL DEFAULT 'import'"); err != nil {
		return err
	}
	_, err := tx.Exec(`
	CREATE INDEX IF NOT EXISTS idx_technical_visit_source ON technical_visit(source);
	CREATE INDEX IF NOT EXISTS idx_visit_date ON visit(visit_date);
	CREATE INDEX IF NOT EXISTS idx_report_created ON report(created_at);
	`)
	return err
}
