package bench

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"parsebench/pool"
)

// DefaultModule is the client-info module name used when Params.Module is empty.
const DefaultModule = "parsebench"

// Benchmark runs passes of the lookup workload against connections borrowed
// from a pool, in whichever mode the selector currently holds.
type Benchmark struct {
	pool     *pool.Pool
	selector *ModeSelector
	params   Params
	log      *zap.Logger
}

func New(p *pool.Pool, selector *ModeSelector, params Params, logger *zap.Logger) (*Benchmark, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := params.Table.Validate(); err != nil {
		return nil, err
	}
	if params.Iterations < 0 {
		return nil, fmt.Errorf("iterations must not be negative, got %d", params.Iterations)
	}
	if params.ProgressEvery <= 0 {
		params.ProgressEvery = DefaultProgressEvery
	}
	if params.Module == "" {
		params.Module = DefaultModule
	}
	return &Benchmark{pool: p, selector: selector, params: params, log: logger}, nil
}

// SetMode switches the mode used by the next Run.
func (b *Benchmark) SetMode(name string) error {
	_, err := b.selector.Set(name)
	return err
}

// Mode returns the mode the next Run will use.
func (b *Benchmark) Mode() Mode {
	return b.selector.Mode()
}

// Run borrows one connection, discovers the id range and drives one pass.
// The connection is released on every return path.
func (b *Benchmark) Run(ctx context.Context) (res Result, err error) {
	mode := b.selector.Mode()
	runID := uuid.NewString()
	log := b.log.With(zap.String("run_id", runID), zap.Stringer("mode", mode))

	log.Info("starting the execution")

	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		err = multierr.Append(err, conn.Release())
	}()
	log.Info("managed to obtain a connection")

	if b.params.ClientInfo {
		b.tagSession(ctx, log, conn, mode, runID)
	}

	r, err := DiscoverRange(ctx, conn, b.params.Table)
	if err != nil {
		return Result{}, err
	}
	if !r.Valid {
		return Result{}, fmt.Errorf("%w: table %s has no rows", ErrEmptyRange, b.params.Table.Name)
	}
	log.Info("found identifier range", zap.Int64("min_id", r.Min), zap.Int64("max_id", r.Max))

	driver := NewDriver(b.params.Table, log,
		WithProgressEvery(b.params.ProgressEvery),
		WithSeed(b.params.Seed))

	res, err = driver.Run(ctx, conn, r, mode, b.params.Iterations)
	if err != nil {
		return Result{}, err
	}
	res.RunID = runID
	res.Label = fmt.Sprintf("%s mode (%s)", mode, b.pool.Driver())
	return res, nil
}

// tagSession sets client info for session-view correlation. Failures are
// logged and otherwise ignored.
func (b *Benchmark) tagSession(ctx context.Context, log *zap.Logger, conn *pool.Conn, mode Mode, runID string) {
	info := pool.ClientInfo{Module: b.params.Module, Action: mode.String(), ClientID: runID}
	err := conn.SetClientInfo(ctx, info)
	switch {
	case err == nil:
		log.Info("client info set", zap.String("module", info.Module), zap.String("action", info.Action))
	case errors.Is(err, pool.ErrClientInfoUnsupported):
		log.Debug("client info skipped", zap.Error(err))
	default:
		log.Warn("could not set client info", zap.Error(err))
	}
}
