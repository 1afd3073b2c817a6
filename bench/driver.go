package bench

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultProgressEvery is how often the loop reports progress.
const DefaultProgressEvery = 1000

// Session is the part of a borrowed connection the workload needs.
// *pool.Conn and *sqlx.Conn satisfy it.
type Session interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Rebind(query string) string
}

// Option configures a Driver.
type Option func(*Driver)

// WithProgressEvery changes the progress interval. Values below 1 are ignored.
func WithProgressEvery(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.progressEvery = n
		}
	}
}

// WithProgress registers a callback invoked alongside each progress log line.
func WithProgress(fn func(iteration int)) Option {
	return func(d *Driver) { d.onProgress = fn }
}

// WithSeed fixes the sampler seed. Zero keeps the time based default.
func WithSeed(seed int64) Option {
	return func(d *Driver) { d.seed = seed }
}

// Driver runs the point-lookup workload against a single session.
type Driver struct {
	table         Table
	log           *zap.Logger
	progressEvery int
	onProgress    func(int)
	seed          int64
}

func NewDriver(table Table, logger *zap.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Driver{
		table:         table,
		log:           logger,
		progressEvery: DefaultProgressEvery,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run performs iterations random lookups in the given mode. Setup problems
// are returned as errors; a failing lookup is logged, counted in
// Result.Failures, and the loop moves on. Only the loop itself is timed.
func (d *Driver) Run(ctx context.Context, s Session, r IdentifierRange, mode Mode, iterations int) (Result, error) {
	if iterations < 0 {
		return Result{}, fmt.Errorf("iterations must not be negative, got %d", iterations)
	}
	if !mode.valid() {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}
	if err := r.check(); err != nil {
		return Result{}, err
	}

	seed := d.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sampler := NewSampler(r, seed)
	latency := newLatencyRecorder()
	res := Result{Mode: mode, Range: r, Iterations: iterations}

	var lookup func(ctx context.Context, id int64) error
	switch mode {
	case ModeUnsafe:
		// Every distinct id is new SQL text the server has to parse.
		lookup = func(ctx context.Context, id int64) error {
			res.Prepared++
			return drain(s.QueryContext(ctx, d.table.literalLookup(id)))
		}
	case ModeSafe:
		stmt, err := s.PrepareContext(ctx, s.Rebind(d.table.lookupQuery()))
		if err != nil {
			d.log.Error("could not create the prepared statement", zap.Error(err))
			return Result{}, &QueryError{Op: "prepare lookup", Iteration: -1, Err: err}
		}
		defer stmt.Close()
		res.Prepared = 1
		lookup = func(ctx context.Context, id int64) error {
			return drain(stmt.QueryContext(ctx, id))
		}
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		id := sampler.Next()

		qStart := time.Now()
		err := lookup(ctx, id)
		latency.record(time.Since(qStart))

		if err != nil {
			res.Failures++
			d.log.Error("lookup failed", zap.Int("iteration", i), zap.Int64("id", id),
				zap.Error(&QueryError{Op: "lookup", Iteration: i, Err: err}))
		}

		if i%d.progressEvery == 0 {
			d.log.Info("iterations completed", zap.Int("iterations", i), zap.Stringer("mode", mode))
			if d.onProgress != nil {
				d.onProgress(i)
			}
		}
	}
	res.Elapsed = time.Since(start)

	res.ElapsedMillis = res.Elapsed.Milliseconds()
	res.QPS = qps(iterations, res.Elapsed)
	res.Latency = latency.stats()

	d.log.Info("wall clock time elapsed",
		zap.Int("iterations", iterations),
		zap.Stringer("mode", mode),
		zap.Int64("elapsed_ms", res.ElapsedMillis),
		zap.Int("failures", res.Failures))
	return res, nil
}

// drain reads every row; no row at all is a miss, not an error.
func drain(rows *sql.Rows, err error) error {
	if err != nil {
		return err
	}
	var username sql.NullString
	for rows.Next() {
		if err := rows.Scan(&username); err != nil {
			return multierr.Append(err, rows.Close())
		}
	}
	if err := rows.Err(); err != nil {
		return multierr.Append(err, rows.Close())
	}
	return rows.Close()
}
