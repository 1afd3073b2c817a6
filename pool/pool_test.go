package pool

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func sqliteConfig(t *testing.T, initial, min, max int) Config {
	t.Helper()
	return Config{
		Driver:      "sqlite3",
		URL:         filepath.Join(t.TempDir(), "pool.db"),
		InitialSize: initial,
		MinSize:     min,
		MaxSize:     max,
	}
}

func openTestPool(t *testing.T, cfg Config) *Pool {
	t.Helper()
	p, err := Open(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Driver:      "oracle",
		URL:         "localhost:1522/freepdb1",
		Username:    "demouser",
		Password:    "secret",
		InitialSize: 4,
		MinSize:     4,
		MaxSize:     4,
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "fixed size", mutate: func(*Config) {}, ok: true},
		{name: "elastic", mutate: func(c *Config) { c.MinSize, c.InitialSize, c.MaxSize = 1, 2, 8 }, ok: true},
		{name: "zero min", mutate: func(c *Config) { c.MinSize = 0 }},
		{name: "min above initial", mutate: func(c *Config) { c.MinSize = 5; c.MaxSize = 6 }},
		{name: "initial above max", mutate: func(c *Config) { c.InitialSize = 5 }},
		{name: "missing password", mutate: func(c *Config) { c.Password = "" }},
		{name: "missing username", mutate: func(c *Config) { c.Username = "" }},
		{name: "missing url", mutate: func(c *Config) { c.URL = "" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Driver = "db2" }},
		{name: "negative timeout", mutate: func(c *Config) { c.AcquireTimeout = -time.Second }},
		{name: "sqlite without credentials", mutate: func(c *Config) { c.Driver = "sqlite3"; c.Username = ""; c.Password = "" }, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrConfiguration)
			}
		})
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "sqlite3", URL: "x.db"}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestOpen_WarmsInitialSessions(t *testing.T) {
	p := openTestPool(t, sqliteConfig(t, 3, 2, 4))

	stats := p.Stats()
	assert.Equal(t, 3, stats.OpenConnections)
	assert.Equal(t, 3, stats.Idle)
	assert.Equal(t, 0, stats.InUse)
	assert.Equal(t, 4, stats.MaxOpenConnections)
	assert.Equal(t, "sqlite3", p.Driver())
}

func TestAcquireRelease(t *testing.T) {
	p := openTestPool(t, sqliteConfig(t, 2, 2, 2))
	ctx := context.Background()

	c1, err := p.Acquire(ctx)
	require.NoError(t, err)
	c2, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stats().InUse)

	require.NoError(t, c1.Release())
	require.NoError(t, c1.Release(), "release is idempotent")
	assert.Equal(t, 1, p.Stats().InUse)

	require.NoError(t, c2.Release())
	assert.Equal(t, 0, p.Stats().InUse)
}

func TestAcquire_TimeoutExhausted(t *testing.T) {
	cfg := sqliteConfig(t, 1, 1, 1)
	cfg.AcquireTimeout = 50 * time.Millisecond
	p := openTestPool(t, cfg)
	ctx := context.Background()

	held, err := p.Acquire(ctx)
	require.NoError(t, err)

	_, err = p.Acquire(ctx)
	assert.ErrorIs(t, err, ErrPoolExhausted)

	require.NoError(t, held.Release())
	again, err := p.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestAcquire_UnboundedWaitsForRelease(t *testing.T) {
	p := openTestPool(t, sqliteConfig(t, 1, 1, 1))
	ctx := context.Background()

	held, err := p.Acquire(ctx)
	require.NoError(t, err)

	got := make(chan error, 1)
	go func() {
		c, err := p.Acquire(ctx)
		if err == nil {
			err = c.Release()
		}
		got <- err
	}()

	select {
	case err := <-got:
		t.Fatalf("acquire returned before release: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, held.Release())
	assert.NoError(t, <-got)
}

func TestClose(t *testing.T) {
	cfg := sqliteConfig(t, 1, 1, 1)
	p, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err = p.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSetClientInfo_Unsupported(t *testing.T) {
	p := openTestPool(t, sqliteConfig(t, 1, 1, 1))

	c, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer c.Release()

	err = c.SetClientInfo(context.Background(), ClientInfo{Module: "m", Action: "a", ClientID: "c"})
	assert.ErrorIs(t, err, ErrClientInfoUnsupported)
}

func TestNewFromDB_Rebind(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	p := NewFromDB(db, "oracle", Config{MaxSize: 2}, nil)
	c, err := p.Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "SELECT 1 FROM t WHERE id = :arg1", c.Rebind("SELECT 1 FROM t WHERE id = ?"))
	require.NoError(t, c.Release())

	mock.ExpectClose()
	require.NoError(t, p.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOracleClientInfo(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	p := NewFromDB(db, "oracle", Config{MaxSize: 1}, nil)
	c, err := p.Acquire(context.Background())
	require.NoError(t, err)

	mock.ExpectExec(oracleClientInfoSQL).
		WithArgs("parsebench", "trouble", "run-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = c.SetClientInfo(context.Background(), ClientInfo{Module: "parsebench", Action: "trouble", ClientID: "run-1"})
	require.NoError(t, err)
	require.NoError(t, c.Release())

	mock.ExpectClose()
	require.NoError(t, p.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClientInfo(t *testing.T) {
	const setAppName = "SELECT set_config('application_name', $1, false)"
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	p := NewFromDB(db, "pgx", Config{MaxSize: 1}, nil)
	c, err := p.Acquire(context.Background())
	require.NoError(t, err)

	mock.ExpectExec(setAppName).
		WithArgs("parsebench/normal/run-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, c.SetClientInfo(context.Background(), ClientInfo{Module: "parsebench", Action: "normal", ClientID: "run-1"}))

	// 62 ASCII bytes followed by a two byte rune crossing the 63 byte limit.
	long := strings.Repeat("x", 62) + "é"
	mock.ExpectExec(setAppName).
		WithArgs(strings.Repeat("x", 62)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, c.SetClientInfo(context.Background(), ClientInfo{Module: long}))

	require.NoError(t, c.Release())
	mock.ExpectClose()
	require.NoError(t, p.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquire_CallerDeadlineIsNotExhaustion(t *testing.T) {
	cfg := sqliteConfig(t, 1, 1, 1)
	cfg.AcquireTimeout = time.Minute
	p := openTestPool(t, cfg)

	held, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = p.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrPoolExhausted)
}
