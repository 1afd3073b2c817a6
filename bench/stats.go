package bench

import (
	"math"
	"sort"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// latencyRecorder keeps per-iteration latencies for one pass.
type latencyRecorder struct {
	hist  *hdrhistogram.Histogram
	min   time.Duration
	max   time.Duration
	sum   time.Duration
	count int64
}

func newLatencyRecorder() *latencyRecorder {
	// 1µs to 60s, 3 significant figures.
	return &latencyRecorder{hist: hdrhistogram.New(1, 60_000_000, 3)}
}

func (l *latencyRecorder) record(d time.Duration) {
	us := d.Microseconds()
	if us < l.hist.LowestTrackableValue() {
		us = l.hist.LowestTrackableValue()
	}
	if us > l.hist.HighestTrackableValue() {
		us = l.hist.HighestTrackableValue()
	}
	_ = l.hist.RecordValue(us)

	if l.count == 0 || d < l.min {
		l.min = d
	}
	if d > l.max {
		l.max = d
	}
	l.sum += d
	l.count++
}

func (l *latencyRecorder) stats() LatencyStats {
	if l.count == 0 {
		return LatencyStats{}
	}
	return LatencyStats{
		Min: l.min,
		Max: l.max,
		Avg: l.sum / time.Duration(l.count),
		P50: time.Duration(l.hist.ValueAtQuantile(50)) * time.Microsecond,
		P90: time.Duration(l.hist.ValueAtQuantile(90)) * time.Microsecond,
		P99: time.Duration(l.hist.ValueAtQuantile(99)) * time.Microsecond,
	}
}

func qps(iterations int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(iterations) / elapsed.Seconds()
}

// MedianResult picks the median run by elapsed time. runs is not modified.
func MedianResult(runs []Result) Result {
	if len(runs) == 0 {
		return Result{}
	}
	if len(runs) == 1 {
		return runs[0]
	}
	sorted := append([]Result(nil), runs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Elapsed < sorted[j].Elapsed })
	return sorted[len(sorted)/2]
}

// SteadyState checks if QPS variance across runs is within tolerance.
func SteadyState(runs []Result, tolerance float64) (bool, float64) {
	if len(runs) < 2 {
		return true, 0
	}
	var sum float64
	for _, r := range runs {
		sum += r.QPS
	}
	mean := sum / float64(len(runs))
	if mean == 0 {
		return false, 0
	}

	var maxDev float64
	for _, r := range runs {
		dev := math.Abs(r.QPS-mean) / mean
		if dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev <= tolerance, maxDev
}
