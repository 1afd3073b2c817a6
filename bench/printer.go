package bench

import (
	"fmt"
	"io"
	"time"
)

func PrintResult(w io.Writer, r Result) {
	fmt.Fprintf(w, "\n┌─────────────────────────────────────────┐\n")
	fmt.Fprintf(w, "│  %-39s│\n", r.Label)
	fmt.Fprintf(w, "├─────────────────────────────────────────┤\n")
	fmt.Fprintf(w, "│  Mode:         %-24s│\n", r.Mode)
	fmt.Fprintf(w, "│  Id range:     %-24s│\n", r.Range)
	fmt.Fprintf(w, "│  Iterations:   %-24d│\n", r.Iterations)
	fmt.Fprintf(w, "│  Failures:     %-24d│\n", r.Failures)
	fmt.Fprintf(w, "│  Prepared:     %-24d│\n", r.Prepared)
	fmt.Fprintf(w, "│  Elapsed:      %-24s│\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "│  QPS:          %-24.1f│\n", r.QPS)
	fmt.Fprintf(w, "├─────────────────────────────────────────┤\n")
	fmt.Fprintf(w, "│  Latency avg:  %-24s│\n", FmtDur(r.Latency.Avg))
	fmt.Fprintf(w, "│  Latency min:  %-24s│\n", FmtDur(r.Latency.Min))
	fmt.Fprintf(w, "│  Latency max:  %-24s│\n", FmtDur(r.Latency.Max))
	fmt.Fprintf(w, "│  Latency p50:  %-24s│\n", FmtDur(r.Latency.P50))
	fmt.Fprintf(w, "│  Latency p90:  %-24s│\n", FmtDur(r.Latency.P90))
	fmt.Fprintf(w, "│  Latency p99:  %-24s│\n", FmtDur(r.Latency.P99))
	fmt.Fprintf(w, "└─────────────────────────────────────────┘\n")
}

// PrintComparison shows an unsafe (literal SQL) pass next to a safe
// (prepared statement) pass.
func PrintComparison(w io.Writer, unsafe, safe Result) {
	fmt.Fprintf(w, "\n╔═════════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║  LITERAL SQL vs PREPARED STATEMENT                          ║\n")
	fmt.Fprintf(w, "╠═══════════════════╦════════════════╦════════════════════════╣\n")
	fmt.Fprintf(w, "║  Metric           ║  trouble       ║  normal                ║\n")
	fmt.Fprintf(w, "╠═══════════════════╬════════════════╬════════════════════════╣\n")
	fmt.Fprintf(w, "║  Elapsed          ║  %-13s ║  %-21s ║\n", unsafe.Elapsed.Round(time.Millisecond), safe.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "║  QPS              ║  %-13.1f ║  %-21.1f ║\n", unsafe.QPS, safe.QPS)
	fmt.Fprintf(w, "║  Statements       ║  %-13d ║  %-21d ║\n", unsafe.Prepared, safe.Prepared)
	fmt.Fprintf(w, "║  Failures         ║  %-13d ║  %-21d ║\n", unsafe.Failures, safe.Failures)
	fmt.Fprintf(w, "║  Latency p50      ║  %-13s ║  %-21s ║\n", FmtDur(unsafe.Latency.P50), FmtDur(safe.Latency.P50))
	fmt.Fprintf(w, "║  Latency p99      ║  %-13s ║  %-21s ║\n", FmtDur(unsafe.Latency.P99), FmtDur(safe.Latency.P99))
	fmt.Fprintf(w, "╠═══════════════════╩════════════════╩════════════════════════╣\n")
	fmt.Fprintf(w, "║  Speedup:               %-35s ║\n", speedup(unsafe.Elapsed, safe.Elapsed))
	fmt.Fprintf(w, "╚═════════════════════════════════════════════════════════════╝\n")
}

func PrintRuns(w io.Writer, all []Result, median Result) {
	fmt.Fprintf(w, "\n╔═════╦══════════╦══════════╦══════════╦═══════════════════╗\n")
	fmt.Fprintf(w, "║ Run ║   QPS    ║   p50    ║   p99    ║ Failures          ║\n")
	fmt.Fprintf(w, "╠═════╬══════════╬══════════╬══════════╬═══════════════════╣\n")
	for i, r := range all {
		marker := "  "
		if r.RunID == median.RunID {
			marker = "→ "
		}
		fmt.Fprintf(w, "║ %s%d  ║ %8.1f ║ %8s ║ %8s ║ %-17d ║\n",
			marker, i+1, r.QPS, FmtDur(r.Latency.P50), FmtDur(r.Latency.P99), r.Failures)
	}
	fmt.Fprintf(w, "╚═════╩══════════╩══════════╩══════════╩═══════════════════╝\n")
	fmt.Fprintln(w, "  → = median (reported)")
}

func speedup(unsafe, safe time.Duration) string {
	if safe <= 0 || unsafe <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2fx faster with a prepared statement", float64(unsafe)/float64(safe))
}

func FmtDur(d time.Duration) string {
	us := float64(d.Microseconds())
	if us < 1000 {
		return fmt.Sprintf("%.0fµs", us)
	}
	return fmt.Sprintf("%.2fms", us/1000)
}
