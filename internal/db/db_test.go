package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/mariadb-mcp/internal/config"
	"github.com/hazyhaar/mariadb-mcp/internal/db/dbtest"
)

func newTestHolder(t *testing.T) *config.Holder {
	t.Helper()
	for _, k := range []string{
		"MARIADB_HOST", "MARIADB_PORT", "MARIADB_USER",
		"MARIADB_PASSWORD", "MARIADB_DATABASE", "LOG_LEVEL", "AUDIT_PATH",
	} {
		t.Setenv(k, "")
	}
	h, err := config.NewHolder("")
	require.NoError(t, err)
	return h
}

// stubFactory returns pools backed by the scripted connector and counts
// constructions.
func stubFactory(connector *dbtest.Connector, calls *int32) PoolFactory {
	return func(ctx context.Context, s config.Settings) (*sql.DB, error) {
		atomic.AddInt32(calls, 1)
		return sql.OpenDB(connector), nil
	}
}

func TestEnsureConnected_Idempotent(t *testing.T) {
	var calls int32
	g := NewGateway(newTestHolder(t), WithPoolFactory(stubFactory(dbtest.NewConnector(), &calls)))
	defer g.Close()

	require.NoError(t, g.EnsureConnected(context.Background()))
	require.NoError(t, g.EnsureConnected(context.Background()))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, StateConnected, g.State())
}

func TestEnsureConnected_ConcurrentSingleRetainedPool(t *testing.T) {
	var calls int32
	g := NewGateway(newTestHolder(t), WithPoolFactory(stubFactory(dbtest.NewConnector(), &calls)))
	defer g.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, g.EnsureConnected(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "exactly one pool constructed")
	assert.Equal(t, StateConnected, g.State())
}

func TestEnsureConnected_FailureNotRetried(t *testing.T) {
	var calls int32
	dialErr := errors.New("connection refused")
	factory := func(ctx context.Context, s config.Settings) (*sql.DB, error) {
		atomic.AddInt32(&calls, 1)
		return nil, dialErr
	}
	g := NewGateway(newTestHolder(t), WithPoolFactory(factory))

	err := g.EnsureConnected(context.Background())
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, dialErr)
	assert.Equal(t, "localhost:3306", ce.Addr)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no internal retry")
	assert.Equal(t, StateDisconnected, g.State())
}

func TestReconfigure_NoPoolIsNoOp(t *testing.T) {
	var calls int32
	g := NewGateway(newTestHolder(t), WithPoolFactory(stubFactory(dbtest.NewConnector(), &calls)))

	require.NoError(t, g.Reconfigure(context.Background()))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Equal(t, StateDisconnected, g.State())
}

func TestReconfigure_ForcesReconnect(t *testing.T) {
	var calls int32
	g := NewGateway(newTestHolder(t), WithPoolFactory(stubFactory(dbtest.NewConnector(), &calls)))
	defer g.Close()

	require.NoError(t, g.EnsureConnected(context.Background()))
	require.NoError(t, g.Reconfigure(context.Background()))
	assert.Equal(t, StateDisconnected, g.State())

	require.NoError(t, g.EnsureConnected(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, StateConnected, g.State())
}

func TestReconfigure_IdempotentUnderRepetition(t *testing.T) {
	connector := dbtest.NewConnector()
	connector.On("SELECT 1 AS x", &dbtest.Result{
		Columns: []string{"x"},
		Rows:    [][]driver.Value{{int64(1)}},
	})

	var calls int32
	holder := newTestHolder(t)
	g := NewGateway(holder, WithPoolFactory(stubFactory(connector, &calls)))
	defer g.Close()
	ex := NewExecutor(g, zerolog.Nop())

	first, err := ex.Query(context.Background(), "SELECT 1 AS x")
	require.NoError(t, err)

	// Two consecutive reloads with identical environment.
	for i := 0; i < 2; i++ {
		require.NoError(t, g.Reconfigure(context.Background()))
		require.NoError(t, holder.Reload())
	}

	second, err := ex.Query(context.Background(), "SELECT 1 AS x")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWithConn_ReleasesOnError(t *testing.T) {
	var pool *sql.DB
	factory := func(ctx context.Context, s config.Settings) (*sql.DB, error) {
		pool = sql.OpenDB(dbtest.NewConnector())
		return pool, nil
	}
	g := NewGateway(newTestHolder(t), WithPoolFactory(factory))
	defer g.Close()

	boom := errors.New("boom")
	err := g.WithConn(context.Background(), func(ctx context.Context, conn *sql.Conn) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, pool.Stats().InUse, "session returned to the pool")
}

func TestWithConn_ConnectionFailureSurfaces(t *testing.T) {
	connector := dbtest.NewConnector()
	connector.FailConnect(errors.New("access denied"))

	var calls int32
	g := NewGateway(newTestHolder(t), WithPoolFactory(stubFactory(connector, &calls)))
	defer g.Close()

	err := g.WithConn(context.Background(), func(ctx context.Context, conn *sql.Conn) error {
		t.Fatal("fn must not run without a session")
		return nil
	})
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
}

func TestClose_SafeWhenAlreadyClosed(t *testing.T) {
	var calls int32
	g := NewGateway(newTestHolder(t), WithPoolFactory(stubFactory(dbtest.NewConnector(), &calls)))

	require.NoError(t, g.EnsureConnected(context.Background()))
	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
	assert.Equal(t, StateDisconnected, g.State())
}
