package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"saepe/internal/adapters/http/perf"
)

// SQLDB is what the stores need from a database handle. *sql.DB and
// *TimedDB both provide it.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQueryMs applies when NewTimedDB is given no threshold.
const DefaultSlowQueryMs = 50

// TimedDB times every statement issued through it, logs the slow and failed
// ones and feeds the admin performance page.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	slow      time.Duration
}

// NewTimedDB wraps db. collector may be nil.
// PRE: slowMs <= 0 selects DefaultSlowQueryMs
func NewTimedDB(db *sql.DB, collector *perf.Collector, slowMs int) *TimedDB {
	if slowMs <= 0 {
		slowMs = DefaultSlowQueryMs
	}
	return &TimedDB{db: db, collector: collector, slow: time.Duration(slowMs) * time.Millisecond}
}

// ExecContext runs a statement on the wrapped pool.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := t.db.ExecContext(ctx, query, args...)
	t.observe(ctx, statementLabel(query), start, err)
	return res, err
}

// QueryContext runs a query on the wrapped pool. Only the time to the first
// row is measured.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe(ctx, statementLabel(query), start, err)
	return rows, err
}

// QueryRowContext runs a single-row query. Its error surfaces at Scan, after
// the timing is recorded, so these entries never count as failed.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe(ctx, statementLabel(query), start, nil)
	return row
}

// BeginTx opens a transaction. Statements on the *sql.Tx are not timed.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.observe(ctx, "BEGIN", start, err)
	return tx, err
}

func (t *TimedDB) observe(ctx context.Context, label string, start time.Time, err error) {
	elapsed := time.Since(start)
	// A cancelled request is the client's doing, not a database fault.
	failed := err != nil && !errors.Is(err, context.Canceled)

	switch {
	case failed:
		slog.WarnContext(ctx, "db_event", "event", "query_failed", "op", label, "duration_ms", elapsed.Milliseconds(), "error", err)
	case elapsed >= t.slow:
		slog.WarnContext(ctx, "db_event", "event", "slow_query", "op", label, "duration_ms", elapsed.Milliseconds())
	default:
		slog.DebugContext(ctx, "db_event", "event", "query", "op", label, "duration_ms", elapsed.Milliseconds())
	}

	if t.collector != nil {
		t.collector.Record(perf.Entry{Kind: perf.KindQuery, Label: label, Failed: failed, Duration: elapsed, At: start})
	}
}

// statementLabel reduces a statement to "VERB table" so timings group by
// shape, not by arguments.
//
//	"SELECT COUNT(*) FROM technical_visit WHERE ..." => "SELECT technical_visit"
func statementLabel(query string) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return "EMPTY"
	}
	verb := strings.ToUpper(words[0])
	var table string
	switch verb {
	case "UPDATE":
		if len(words) > 1 {
			table = words[1]
		}
	case "SELECT", "DELETE":
		table = wordAfter(words, "FROM")
	case "INSERT", "REPLACE":
		table = wordAfter(words, "INTO")
	}
	table = strings.Trim(table, "`\"();,")
	if table == "" {
		return verb
	}
	return verb + " " + table
}

func wordAfter(words []string, keyword string) string {
	for i := 0; i+1 < len(words); i++ {
		if strings.EqualFold(words[i], keyword) {
			return words[i+1]
		}
	}
	return ""
}
