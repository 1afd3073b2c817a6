package bench

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SteadyStateTolerance is the allowed QPS deviation from the mean across runs.
const SteadyStateTolerance = 0.05

// RunMultiple executes runFn N times and returns the median run plus all runs.
// runFn receives the run index (0-based). The first error stops the series.
// label names the series and stands in for an unlabelled median run.
func RunMultiple(runs int, label string, cooldown time.Duration, logger *zap.Logger, runFn func(run int) (Result, error)) (Result, []Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runs <= 1 {
		r, err := runFn(0)
		if err != nil {
			return Result{}, nil, err
		}
		return r, []Result{r}, nil
	}

	logger.Info("multi-run benchmark", zap.String("label", label), zap.Int("runs", runs))

	all := make([]Result, 0, runs)
	for i := 0; i < runs; i++ {
		r, err := runFn(i)
		if err != nil {
			return Result{}, all, fmt.Errorf("run %d/%d: %w", i+1, runs, err)
		}
		all = append(all, r)

		logger.Info("run finished",
			zap.Int("run", i+1),
			zap.Float64("qps", r.QPS),
			zap.Duration("p50", r.Latency.P50),
			zap.Int("failures", r.Failures))

		// pause between runs, not after the last
		if i < runs-1 && cooldown > 0 {
			time.Sleep(cooldown)
		}
	}

	steady, maxDev := SteadyState(all, SteadyStateTolerance)
	if steady {
		logger.Info("steady-state check passed", zap.Float64("max_qps_deviation", maxDev))
	} else {
		logger.Warn("steady-state check failed, reporting median anyway", zap.Float64("max_qps_deviation", maxDev))
	}

	median := MedianResult(all)
	if median.Label == "" {
		median.Label = label
	}
	median.Label = fmt.Sprintf("%s (median of %d runs)", median.Label, runs)
	return median, all, nil
}
