// Package db owns the single pooled connection to the MariaDB server:
// lazy pool construction, serialized reconfiguration, session checkout,
// and read-only execution of statements against one session at a time.
package db

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/hazyhaar/mariadb-mcp/internal/config"
)

// Pool bounds, matching the upstream bridge contract.
const (
	poolMinSize = 1
	poolMaxSize = 10

	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 10 * time.Minute
)

// State is the gateway lifecycle phase. Transitions are guarded by the
// gateway mutex; Draining only occurs inside Reconfigure/Close.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDraining:
		return "draining"
	default:
		return "disconnected"
	}
}

// PoolFactory constructs a ready-to-use pool for a configuration snapshot.
// The default factory dials MariaDB; tests inject stubs.
type PoolFactory func(ctx context.Context, s config.Settings) (*sql.DB, error)

// MySQLPoolFactory opens a bounded pool against the configured server and
// verifies it with a ping before handing it over.
func MySQLPoolFactory(ctx context.Context, s config.Settings) (*sql.DB, error) {
	cfg := mysql.NewConfig()
	cfg.User = s.User
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	cfg.Addr = s.Addr()
	cfg.DBName = s.Database
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}

	pool := sql.OpenDB(connector)
	pool.SetMaxOpenConns(poolMaxSize)
	pool.SetMaxIdleConns(poolMinSize)
	pool.SetConnMaxIdleTime(connMaxIdleTime)
	pool.SetConnMaxLifetime(connMaxLifetime)

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Gateway maintains exactly one pool consistent with the latest
// configuration snapshot. All pool-handle mutation happens under mu, so
// a reconfigure fully completes (old pool drained, handle cleared) before
// any caller may construct a new pool.
type Gateway struct {
	holder  *config.Holder
	factory PoolFactory
	log     zerolog.Logger

	mu    sync.Mutex
	pool  *sql.DB
	state State
}

type GatewayOption func(*Gateway)

// WithPoolFactory replaces the MariaDB pool factory, for tests.
func WithPoolFactory(f PoolFactory) GatewayOption {
	return func(g *Gateway) { g.factory = f }
}

func WithLogger(log zerolog.Logger) GatewayOption {
	return func(g *Gateway) { g.log = log }
}

func NewGateway(holder *config.Holder, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		holder:  holder,
		factory: MySQLPoolFactory,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State reports the current lifecycle phase.
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// EnsureConnected constructs the pool from the current configuration
// snapshot if none exists. Idempotent; concurrent callers serialize on the
// gateway mutex so exactly one pool is ever retained. A connection or
// authentication failure surfaces as *ConnectionError and is not retried.
func (g *Gateway) EnsureConnected(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ensureLocked(ctx)
}

func (g *Gateway) ensureLocked(ctx context.Context) error {
	if g.pool != nil {
		return nil
	}
	g.state = StateConnecting
	snap := g.holder.Snapshot()

	pool, err := g.factory(ctx, snap)
	if err != nil {
		g.state = StateDisconnected
		return &ConnectionError{Addr: snap.Addr(), Cause: err}
	}
	g.pool = pool
	g.state = StateConnected
	g.log.Info().Str("addr", snap.Addr()).Str("database", snap.Database).Msg("connected to MariaDB")
	return nil
}

// WithConn checks one session out of the pool for the duration of fn and
// returns it on every exit path. The session is never held across calls.
func (g *Gateway) WithConn(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	g.mu.Lock()
	if err := g.ensureLocked(ctx); err != nil {
		g.mu.Unlock()
		return err
	}
	pool := g.pool
	g.mu.Unlock()

	conn, err := pool.Conn(ctx)
	if err != nil {
		return &ConnectionError{Addr: g.holder.Snapshot().Addr(), Cause: err}
	}
	defer conn.Close()

	return fn(ctx, conn)
}

// Reconfigure drains and discards the current pool so the next operation
// reconnects against the refreshed configuration snapshot. It does not
// itself reload the configuration; callers run reload as a separate step.
// Safe to call when no pool exists.
func (g *Gateway) Reconfigure(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.teardownLocked()
}

// Close terminates the pool at process shutdown.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.teardownLocked()
}

func (g *Gateway) teardownLocked() error {
	if g.pool == nil {
		g.state = StateDisconnected
		return nil
	}
	g.state = StateDraining
	pool := g.pool
	g.pool = nil

	// sql.DB.Close waits for checked-out sessions to finish.
	err := pool.Close()
	g.state = StateDisconnected
	if err != nil {
		return &ConnectionError{Addr: g.holder.Snapshot().Addr(), Cause: err}
	}
	g.log.Info().Msg("connection pool closed")
	return nil
}
