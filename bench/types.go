package bench

import (
	"fmt"
	"regexp"
	"time"
)

// IdentifierRange is the inclusive [Min, Max] span of a table's primary key.
// Valid is false when the table had no rows.
type IdentifierRange struct {
	Min   int64 `json:"min_id" yaml:"min_id"`
	Max   int64 `json:"max_id" yaml:"max_id"`
	Valid bool  `json:"valid" yaml:"valid"`
}

func (r IdentifierRange) String() string {
	if !r.Valid {
		return "[empty]"
	}
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}

func (r IdentifierRange) check() error {
	if !r.Valid {
		return ErrEmptyRange
	}
	if r.Min > r.Max {
		return fmt.Errorf("%w: min %d > max %d", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}

// Table names the lookup table and its two columns.
type Table struct {
	Name       string
	IDColumn   string
	NameColumn string
}

// DefaultTable is the todo_users table used by the demos.
var DefaultTable = Table{Name: "todo_users", IDColumn: "user_id", NameColumn: "username"}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$#]*(\.[A-Za-z_][A-Za-z0-9_$#]*)?$`)

// Validate rejects names that are not plain SQL identifiers; they end up in
// query text.
func (t Table) Validate() error {
	for _, ident := range []string{t.Name, t.IDColumn, t.NameColumn} {
		if !identRe.MatchString(ident) {
			return fmt.Errorf("invalid identifier %q", ident)
		}
	}
	return nil
}

func (t Table) rangeQuery() string {
	return fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM %s", t.IDColumn, t.IDColumn, t.Name)
}

func (t Table) lookupQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", t.NameColumn, t.Name, t.IDColumn)
}

// literalLookup builds the lookup with the id spliced into the text.
func (t Table) literalLookup(id int64) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = %d", t.NameColumn, t.Name, t.IDColumn, id)
}

// Params configures a Benchmark.
type Params struct {
	Table         Table
	Iterations    int
	ProgressEvery int
	// Seed for the id sampler; 0 picks a time based seed per pass.
	Seed int64
	// ClientInfo tags the benchmark session with module/action/client id.
	ClientInfo bool
	Module     string
}

// LatencyStats summarises per-iteration latency.
type LatencyStats struct {
	Min time.Duration `json:"min_ns" yaml:"min"`
	Max time.Duration `json:"max_ns" yaml:"max"`
	Avg time.Duration `json:"avg_ns" yaml:"avg"`
	P50 time.Duration `json:"p50_ns" yaml:"p50"`
	P90 time.Duration `json:"p90_ns" yaml:"p90"`
	P99 time.Duration `json:"p99_ns" yaml:"p99"`
}

// Result is produced once per benchmark pass.
type Result struct {
	Label         string          `json:"label" yaml:"label"`
	RunID         string          `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Mode          Mode            `json:"mode" yaml:"mode"`
	Range         IdentifierRange `json:"range" yaml:"range"`
	Iterations    int             `json:"iterations" yaml:"iterations"`
	Failures      int             `json:"failures" yaml:"failures"`
	Prepared      int             `json:"prepared" yaml:"prepared"`
	Elapsed       time.Duration   `json:"-" yaml:"-"`
	ElapsedMillis int64           `json:"elapsed_ms" yaml:"elapsed_ms"`
	QPS           float64         `json:"qps" yaml:"qps"`
	Latency       LatencyStats    `json:"latency" yaml:"latency"`
}
