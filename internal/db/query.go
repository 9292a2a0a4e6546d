package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Row is an ordered mapping from column name to value. Column order is
// the result-set order; duplicate column names keep their positions.
type Row struct {
	cols []string
	vals []any
}

// NewRow builds a Row directly, mainly for rendering tests.
func NewRow(cols []string, vals []any) Row {
	return Row{cols: cols, vals: vals}
}

func (r Row) Columns() []string { return r.cols }

// Get returns the value of the first column with the given name.
func (r Row) Get(col string) (any, bool) {
	for i, c := range r.cols {
		if c == col {
			return r.vals[i], true
		}
	}
	return nil, false
}

// First returns the value of the leading column, or nil for an empty row.
// SHOW TABLES names its only column after the database, so callers that
// just want "the value" use this.
func (r Row) First() any {
	if len(r.vals) == 0 {
		return nil
	}
	return r.vals[0]
}

// Text renders the named column as display text. A missing column renders
// as the empty string; SQL NULL renders as "NULL".
func (r Row) Text(col string) string {
	v, ok := r.Get(col)
	if !ok {
		return ""
	}
	return RenderValue(v)
}

// FirstText renders the leading column as display text.
func (r Row) FirstText() string {
	return RenderValue(r.First())
}

// RenderValue converts a driver scalar to display text.
func RenderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Executor runs one statement per acquired session and materializes the
// full result set eagerly. Result sets are bounded by the presentation
// layer, not here.
type Executor struct {
	gw  *Gateway
	log zerolog.Logger
}

func NewExecutor(gw *Gateway, log zerolog.Logger) *Executor {
	return &Executor{gw: gw, log: log}
}

// Query executes a statement with driver-level parameter binding and
// returns all rows. A statement that produces no result descriptor (USE,
// SET and friends) returns an empty slice and no error.
func (e *Executor) Query(ctx context.Context, statement string, args ...any) ([]Row, error) {
	var out []Row
	err := e.gw.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := e.queryConn(ctx, conn, statement, args...)
		out = rows
		return err
	})
	return out, err
}

// QueryOn executes a statement against a specific database by issuing USE
// and the statement on the same checked-out session, so the schema switch
// cannot land on a different pooled connection.
func (e *Executor) QueryOn(ctx context.Context, database, statement string, args ...any) ([]Row, error) {
	if database == "" {
		return e.Query(ctx, statement, args...)
	}
	var out []Row
	err := e.gw.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, "USE "+QuoteIdent(database)); err != nil {
			return &ExecError{Statement: "USE", Cause: err}
		}
		rows, err := e.queryConn(ctx, conn, statement, args...)
		out = rows
		return err
	})
	return out, err
}

func (e *Executor) queryConn(ctx context.Context, conn *sql.Conn, statement string, args ...any) ([]Row, error) {
	start := time.Now()
	rows, err := conn.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, &ExecError{Statement: statement, Cause: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &ExecError{Statement: statement, Cause: err}
	}
	if len(cols) == 0 {
		// No result descriptor: the statement executed but returns nothing.
		e.log.Debug().Str("statement", truncate(statement)).Msg("statement produced no result set")
		return nil, nil
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &ExecError{Statement: statement, Cause: err}
		}
		out = append(out, Row{cols: cols, vals: vals})
	}
	if err := rows.Err(); err != nil {
		return nil, fetchError(statement, err)
	}

	e.log.Debug().
		Str("statement", truncate(statement)).
		Int("rows", len(out)).
		Dur("duration", time.Since(start)).
		Msg("query executed")
	return out, nil
}

// fetchError classifies a mid-fetch failure: cancellations and deadlines
// are resource exhaustion, everything else is a server-side failure.
func fetchError(statement string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ResourceError{Statement: statement, Cause: err}
	}
	return &ExecError{Statement: statement, Cause: err}
}

func truncate(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
