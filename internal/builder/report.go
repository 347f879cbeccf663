package builder

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// TestResult is the captured output of one test binary
type TestResult struct {
	Name   string
	Output string
	Err    error
}

// Failure is one failed case, or a test binary that didn't exit cleanly
type Failure struct {
	Test   string
	Detail string
}

// Report counts pass and fail markers across test outputs
type Report struct {
	Passed   int
	Failures []Failure
	Errors   []Failure
}

// NewReport splits each output on the case separator and classifies every
// case by the markers it contains
func NewReport(results []TestResult, markers TestSection) Report {
	var r Report
	for _, res := range results {
		for _, chunk := range strings.Split(res.Output, markers.Separator) {
			switch {
			case strings.Contains(chunk, markers.PassMarker):
				r.Passed++
			case strings.Contains(chunk, markers.FailMarker):
				r.Failures = append(r.Failures, Failure{Test: res.Name, Detail: strings.TrimSpace(chunk)})
			}
		}
		if res.Err != nil {
			r.Errors = append(r.Errors, Failure{Test: res.Name, Detail: res.Err.Error()})
		}
	}
	return r
}

func (r Report) Failed() bool { return len(r.Failures) > 0 || len(r.Errors) > 0 }

func (r Report) Print(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d tests passed\n", color.HiGreenString("PASSED:"), r.Passed)
	fmt.Fprintf(w, "%s %d tests failed\n", color.HiRedString("FAILED:"), len(r.Failures))
	for _, f := range r.Failures {
		fmt.Fprintln(w, "--------------------")
		fmt.Fprintf(w, "failed case from %s:\n%s\n", f.Test, f.Detail)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "%s %s: %s\n", color.RedString("ERROR:"), e.Test, e.Detail)
	}
}
