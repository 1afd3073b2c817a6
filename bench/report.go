package bench

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Report formats accepted by WriteReport.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Report is the machine readable summary of a comparison.
type Report struct {
	Driver  string   `json:"driver" yaml:"driver"`
	Results []Result `json:"results" yaml:"results"`
}

// WriteReport renders r in the given format. Text prints one box per result
// and, when both modes ran, a side-by-side comparison.
func WriteReport(w io.Writer, format string, r Report) error {
	switch format {
	case FormatText, "":
		for _, res := range r.Results {
			PrintResult(w, res)
		}
		if unsafe, safe, ok := pickPair(r.Results); ok {
			PrintComparison(w, unsafe, safe)
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown report format %q (want text, json or yaml)", format)
}

func pickPair(results []Result) (unsafe, safe Result, ok bool) {
	var haveUnsafe, haveSafe bool
	for _, r := range results {
		switch r.Mode {
		case ModeUnsafe:
			unsafe, haveUnsafe = r, true
		case ModeSafe:
			safe, haveSafe = r, true
		}
	}
	return unsafe, safe, haveUnsafe && haveSafe
}
