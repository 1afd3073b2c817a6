package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"parsebench/bench"
	"parsebench/config"
	"parsebench/pool"
)

// runComparison opens the pool once and runs every configured mode in order,
// by default "trouble" first and "normal" second.
func runComparison(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) (err error) {
	p, err := pool.Open(ctx, cfg.PoolConfig(), logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, p.Close())
	}()

	selector, err := bench.NewModeSelector(cfg.Modes[0], logger)
	if err != nil {
		return err
	}
	b, err := bench.New(p, selector, cfg.Params(), logger)
	if err != nil {
		return err
	}

	report := bench.Report{Driver: p.Driver()}
	for _, name := range cfg.Modes {
		if err := b.SetMode(name); err != nil {
			return err
		}
		median, all, err := bench.RunMultiple(cfg.Runs, name, cfg.Cooldown, logger, func(int) (bench.Result, error) {
			return b.Run(ctx)
		})
		if err != nil {
			return fmt.Errorf("%s mode: %w", name, err)
		}
		if len(all) > 1 && cfg.ReportFormat == bench.FormatText {
			bench.PrintRuns(out, all, median)
		}
		report.Results = append(report.Results, median)
	}

	return bench.WriteReport(out, cfg.ReportFormat, report)
}

func runSeed(ctx context.Context, cfg *config.Config, rows, batch int, logger *zap.Logger, out io.Writer) (err error) {
	p, err := pool.Open(ctx, cfg.PoolConfig(), logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, p.Close())
	}()

	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, conn.Release())
	}()

	n, err := bench.SeedUsers(ctx, conn, cfg.LookupTable(), rows, batch, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  ✓ Seeded %d rows into %s\n", n, cfg.TableName)
	return nil
}
