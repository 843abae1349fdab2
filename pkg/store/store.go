// Package store runs translated filters against PostgreSQL.
//
// A Store pairs a database handle with the Schema of one table. Given a
// translation result it compiles the filter to SQL and returns the visible
// rows. Always-denied results never reach the database.
//
//	s := store.New(db, schema, store.WithLogger(logger))
//	ids, err := s.IDs(ctx, result)
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/pthm/planfilter"
	"github.com/pthm/planfilter/internal/sqlgen"
)

// Querier executes queries against PostgreSQL.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn, so filtered reads can run
// inside a caller's transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Sentinel errors for missing database objects.
var (
	// ErrMissingTable is returned when the schema names a table that does not
	// exist in the database.
	ErrMissingTable = errors.New("store: table does not exist")

	// ErrMissingColumn is returned when a mapped field or key names a column
	// that does not exist.
	ErrMissingColumn = errors.New("store: column does not exist")
)

const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
)

// Store runs filtered reads against one table.
// It holds no mutable state and is safe for concurrent use when q is.
type Store struct {
	q      Querier
	schema sqlgen.Schema
	limit  int
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for query tracing at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLimit caps the number of rows returned by each read. Zero means no cap.
func WithLimit(n int) Option {
	return func(s *Store) {
		s.limit = n
	}
}

// New creates a store for schema's table. The schema is not validated here;
// see sqlgen.Schema.Validate.
func New(q Querier, schema sqlgen.Schema, opts ...Option) *Store {
	s := &Store{
		q:      q,
		schema: schema,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select runs a SELECT of columns restricted by res and calls scan once per
// row. An empty column list selects the primary key.
//
// For an always-denied result no query is issued and scan is never called.
func (s *Store) Select(ctx context.Context, res planfilter.Result, columns []string, scan func(*sql.Rows) error) error {
	if res.Denied() {
		s.logger.DebugContext(ctx, "skipping query for denied plan", "table", s.schema.Table)
		return nil
	}

	q, err := sqlgen.Select(res, s.schema, columns, s.limit)
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "running filtered query", "sql", q.SQL, "args", len(q.Args))

	rows, err := s.q.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return mapError("select", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return mapError("select", err)
	}
	return nil
}

// IDs returns the primary keys of the rows visible under res, as text, in
// key order.
func (s *Store) IDs(ctx context.Context, res planfilter.Result) ([]string, error) {
	var ids []string
	err := s.Select(ctx, res, nil, func(rows *sql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

// Rows returns the visible rows as column-name maps. Values are whatever the
// driver scans into any.
func (s *Store) Rows(ctx context.Context, res planfilter.Result, columns []string) ([]map[string]any, error) {
	var out []map[string]any
	err := s.Select(ctx, res, columns, func(rows *sql.Rows) error {
		names, err := rows.Columns()
		if err != nil {
			return err
		}
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			row[name] = values[i]
		}
		out = append(out, row)
		return nil
	})
	return out, err
}

// mapError maps PostgreSQL errors to sentinel errors.
// Uses interface-based detection to work with any PostgreSQL driver (pq, pgx).
func mapError(operation string, err error) error {
	switch sqlState(err) {
	case pgUndefinedTable:
		return fmt.Errorf("%w: %v", ErrMissingTable, err)
	case pgUndefinedColumn:
		return fmt.Errorf("%w: %v", ErrMissingColumn, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// sqlState extracts the SQLSTATE code from a PostgreSQL error.
// Works with both supported drivers:
//   - pgx: *pgconn.PgError
//   - lib/pq: *pq.Error
//
// Returns empty string if the error doesn't contain a SQLSTATE.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	// Fallback for wrapped driver errors that only kept the message.
	// Format: "... (SQLSTATE 42P01)" or "SQLSTATE: 42P01"
	errStr := err.Error()
	for _, prefix := range []string{"SQLSTATE ", "SQLSTATE: "} {
		if idx := strings.Index(errStr, prefix); idx >= 0 {
			start := idx + len(prefix)
			if start+5 <= len(errStr) {
				return errStr[start : start+5]
			}
		}
	}
	return ""
}

// IsMissingTableErr returns true if err is or wraps ErrMissingTable.
func IsMissingTableErr(err error) bool {
	return errors.Is(err, ErrMissingTable)
}

// IsMissingColumnErr returns true if err is or wraps ErrMissingColumn.
func IsMissingColumnErr(err error) bool {
	return errors.Is(err, ErrMissingColumn)
}
