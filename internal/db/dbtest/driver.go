// Package dbtest provides a scriptable in-memory database/sql driver for
// gateway and executor tests. Responses are canned per statement text and
// the connector plugs straight into sql.OpenDB, so no global driver
// registration is needed and no live server is involved.
package dbtest

import (
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"
)

// Result is the canned outcome for one statement.
type Result struct {
	Columns []string
	Rows    [][]driver.Value

	// Err fails the query call itself.
	Err error
	// RowErr, if set, fails Next after FailAfter rows have been produced,
	// simulating a mid-fetch failure.
	RowErr    error
	FailAfter int
}

// Connector is an in-memory driver.Connector with scripted responses.
type Connector struct {
	mu         sync.Mutex
	results    map[string]*Result
	connectErr error
	connects   int
}

func NewConnector() *Connector {
	return &Connector{results: make(map[string]*Result)}
}

// On scripts the outcome for an exact statement text.
func (c *Connector) On(statement string, r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[statement] = r
}

// FailConnect makes every subsequent connection attempt fail.
func (c *Connector) FailConnect(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectErr = err
}

// Connects reports how many connections were opened.
func (c *Connector) Connects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectErr != nil {
		return nil, c.connectErr
	}
	c.connects++
	return &conn{c: c}, nil
}

func (c *Connector) Driver() driver.Driver { return fakeDriver{} }

func (c *Connector) lookup(statement string) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[statement]
	if !ok {
		return nil, fmt.Errorf("dbtest: unscripted statement %q", statement)
	}
	return r, nil
}

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, fmt.Errorf("dbtest: open via sql.OpenDB, not a DSN")
}

type conn struct {
	c *Connector
}

func (cn *conn) Prepare(string) (driver.Stmt, error) {
	return nil, fmt.Errorf("dbtest: prepared statements not supported")
}

func (cn *conn) Close() error { return nil }

func (cn *conn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("dbtest: transactions not supported")
}

func (cn *conn) Ping(context.Context) error { return nil }

func (cn *conn) QueryContext(_ context.Context, statement string, _ []driver.NamedValue) (driver.Rows, error) {
	r, err := cn.c.lookup(statement)
	if err != nil {
		return nil, err
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &rows{res: r}, nil
}

func (cn *conn) ExecContext(_ context.Context, statement string, _ []driver.NamedValue) (driver.Result, error) {
	r, err := cn.c.lookup(statement)
	if err != nil {
		return nil, err
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return driver.RowsAffected(0), nil
}

type rows struct {
	res *Result
	i   int
}

func (r *rows) Columns() []string { return r.res.Columns }

func (r *rows) Close() error { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.res.RowErr != nil && r.i >= r.res.FailAfter {
		return r.res.RowErr
	}
	if r.i >= len(r.res.Rows) {
		return io.EOF
	}
	copy(dest, r.res.Rows[r.i])
	r.i++
	return nil
}
