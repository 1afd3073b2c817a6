package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// ErrConfiguration is returned when pool sizing or credentials are invalid.
	ErrConfiguration = errors.New("invalid pool configuration")
	// ErrPoolExhausted is returned when Acquire waits longer than AcquireTimeout.
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrClosed is returned by Acquire after Close.
	ErrClosed = errors.New("connection pool closed")
)

// Config describes a fixed-size pool. The sizes mirror a UCP pool data source:
// sessions are opened eagerly up to InitialSize and never exceed MaxSize.
type Config struct {
	Driver   string
	URL      string
	Username string
	Password string

	InitialSize int
	MinSize     int
	MaxSize     int

	// AcquireTimeout bounds how long Acquire waits for a free connection.
	// Zero waits forever.
	AcquireTimeout time.Duration
}

// Validate checks the size invariant and the presence of credentials.
func (c Config) Validate() error {
	d, err := lookupDialect(c.Driver)
	if err != nil {
		return err
	}
	if c.URL == "" {
		return fmt.Errorf("%w: url is required", ErrConfiguration)
	}
	if c.MinSize < 1 || c.InitialSize < 1 || c.MaxSize < 1 {
		return fmt.Errorf("%w: pool sizes must be at least 1 (min=%d initial=%d max=%d)",
			ErrConfiguration, c.MinSize, c.InitialSize, c.MaxSize)
	}
	if c.MinSize > c.InitialSize || c.InitialSize > c.MaxSize {
		return fmt.Errorf("%w: need min <= initial <= max (min=%d initial=%d max=%d)",
			ErrConfiguration, c.MinSize, c.InitialSize, c.MaxSize)
	}
	if c.AcquireTimeout < 0 {
		return fmt.Errorf("%w: acquire timeout must not be negative", ErrConfiguration)
	}
	if d.credentials {
		if c.Username == "" {
			return fmt.Errorf("%w: username is required for %s", ErrConfiguration, c.Driver)
		}
		if c.Password == "" {
			return fmt.Errorf("%w: password is required for %s", ErrConfiguration, c.Driver)
		}
	}
	return nil
}

// MarshalLogObject logs everything except the password.
func (c Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("driver", c.Driver)
	enc.AddString("url", c.URL)
	enc.AddString("username", c.Username)
	enc.AddInt("initial", c.InitialSize)
	enc.AddInt("min", c.MinSize)
	enc.AddInt("max", c.MaxSize)
	enc.AddDuration("acquire_timeout", c.AcquireTimeout)
	return nil
}

// Pool is an explicitly owned, bounded set of database sessions.
type Pool struct {
	db      *sqlx.DB
	cfg     Config
	dialect dialect
	log     *zap.Logger

	closers []func() error

	mu     sync.Mutex
	closed bool
}

// Open validates cfg, connects through the configured driver and warms up
// InitialSize sessions before returning.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d, _ := lookupDialect(cfg.Driver)

	logger.Info("initialising the connection pool", zap.Object("pool", cfg))

	db, closer, err := d.open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	p := newPool(db, d, cfg, logger)
	if closer != nil {
		p.closers = append(p.closers, closer)
	}

	if err := p.warm(ctx, cfg.InitialSize); err != nil {
		return nil, multierr.Append(fmt.Errorf("warm up pool: %w", err), p.Close())
	}
	logger.Info("connection pool ready", zap.Int("sessions", cfg.InitialSize))
	return p, nil
}

// NewFromDB wraps an already opened database handle. driverName selects the
// bindvar style used by sqlx.Rebind; unknown names leave queries untouched.
func NewFromDB(db *sql.DB, driverName string, cfg Config, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	d, err := lookupDialect(driverName)
	if err != nil {
		d = dialect{driverName: driverName}
	}
	return newPool(db, d, cfg, logger)
}

func newPool(db *sql.DB, d dialect, cfg Config, logger *zap.Logger) *Pool {
	if cfg.MaxSize > 0 {
		db.SetMaxOpenConns(cfg.MaxSize)
		if !d.externalIdle {
			db.SetMaxIdleConns(cfg.MaxSize)
		}
	}
	return &Pool{
		db:      sqlx.NewDb(db, d.driverName),
		cfg:     cfg,
		dialect: d,
		log:     logger,
	}
}

// warm opens n sessions at once so they are established before the first
// Acquire, then returns them to the idle set.
func (p *Pool) warm(ctx context.Context, n int) error {
	conns := make([]*sql.Conn, 0, n)
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()
	for i := 0; i < n; i++ {
		c, err := p.db.Conn(ctx)
		if err != nil {
			return err
		}
		conns = append(conns, c)
		if err := c.PingContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Acquire checks out one connection. It blocks while all MaxSize connections
// are in use, bounded by AcquireTimeout when that is set.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	waitCtx := ctx
	if p.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.cfg.AcquireTimeout)
		defer cancel()
	}

	c, err := p.db.Connx(waitCtx)
	if err != nil {
		// An expired caller deadline is returned as is.
		if p.cfg.AcquireTimeout > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: no connection within %s", ErrPoolExhausted, p.cfg.AcquireTimeout)
		}
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Conn{Conn: c, pool: p}, nil
}

// Stats reports pool usage; InUse is the number of checked-out connections.
func (p *Pool) Stats() sql.DBStats {
	return p.db.Stats()
}

// Driver returns the configured driver name.
func (p *Pool) Driver() string {
	return p.dialect.driverName
}

// Close shuts the pool down. Calling it more than once is a no-op.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	err := p.db.Close()
	for _, closer := range p.closers {
		err = multierr.Append(err, closer())
	}
	p.log.Info("connection pool closed")
	return err
}

// Conn is a connection borrowed from a Pool.
type Conn struct {
	*sqlx.Conn

	pool *Pool
	once sync.Once
	err  error
}

// Release returns the connection to its pool. It is safe to call repeatedly.
func (c *Conn) Release() error {
	c.once.Do(func() {
		c.err = c.Conn.Close()
	})
	return c.err
}
