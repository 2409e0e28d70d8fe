package scenario

import (
	"fmt"
	"strings"

	"github.com/dshills/eventmix/internal/event"
	"github.com/dshills/eventmix/internal/event/topic"
)

// Call records one listener invocation.
type Call struct {
	Listener    string      `json:"listener"`
	CurrentType topic.Topic `json:"current_type"`
	TypeStack   []string    `json:"type_stack"`
}

func (c Call) String() string {
	return c.Listener + "@" + c.CurrentType.String()
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index    int         `json:"index"`
	Action   Action      `json:"action"`
	Topic    topic.Topic `json:"topic"`
	Listener string      `json:"listener,omitempty"`

	Calls        []Call `json:"calls,omitempty"`
	ReturnValues []any  `json:"return_values,omitempty"`
	ReturnValue  any    `json:"return_value,omitempty"`
	Stopped      string `json:"stopped,omitempty"`
	Error        string `json:"error,omitempty"`

	// Mismatches lists failed expectations.
	Mismatches []string `json:"mismatches,omitempty"`
}

// Passed reports whether every expectation of the step held.
func (r StepResult) Passed() bool {
	return len(r.Mismatches) == 0
}

func (r StepResult) String() string {
	s := fmt.Sprintf("step %d: %s %s", r.Index, r.Action, r.Topic)
	if r.Listener != "" {
		s += " (" + r.Listener + ")"
	}
	return s
}

// Report is the outcome of a scenario run.
type Report struct {
	Scenario string       `json:"scenario"`
	Steps    []StepResult `json:"steps"`
	Stats    event.Stats  `json:"stats"`
}

// Failed reports whether any step has mismatches.
func (r *Report) Failed() bool {
	for _, s := range r.Steps {
		if !s.Passed() {
			return true
		}
	}
	return false
}

// Failures returns one line per mismatch.
func (r *Report) Failures() []string {
	var out []string
	for _, s := range r.Steps {
		for _, m := range s.Mismatches {
			out = append(out, s.String()+": "+m)
		}
	}
	return out
}

// Summary returns a one-line result.
func (r *Report) Summary() string {
	if n := len(r.Failures()); n > 0 {
		return fmt.Sprintf("FAIL %s: %d mismatch(es) in %d steps", r.Scenario, n, len(r.Steps))
	}
	return fmt.Sprintf("ok   %s: %d steps", r.Scenario, len(r.Steps))
}

// check compares the result against expect and records mismatches.
func (r *StepResult) check(expect *Expect) {
	if expect == nil {
		return
	}

	if expect.Calls != nil {
		got := make([]string, len(r.Calls))
		for i, c := range r.Calls {
			if i < len(expect.Calls) && !strings.Contains(expect.Calls[i], "@") {
				got[i] = c.Listener
			} else {
				got[i] = c.String()
			}
		}
		if !equalStrings(got, expect.Calls) {
			r.mismatch("calls: got [%s], want [%s]", strings.Join(got, " "), strings.Join(expect.Calls, " "))
		}
	}

	if expect.ReturnValues != nil && !equalValues(r.ReturnValues, expect.ReturnValues) {
		r.mismatch("return_values: got %v, want %v", r.ReturnValues, expect.ReturnValues)
	}

	if expect.ReturnValue != nil && !equalValues(r.ReturnValue, expect.ReturnValue) {
		r.mismatch("return_value: got %v, want %v", r.ReturnValue, expect.ReturnValue)
	}

	if expect.Stopped != "" && expect.Stopped != r.Stopped {
		r.mismatch("stopped: got %s, want %s", r.Stopped, expect.Stopped)
	}

	switch {
	case expect.Error == "" && r.Error != "":
		r.mismatch("unexpected error: %s", r.Error)
	case expect.Error != "" && !strings.Contains(r.Error, expect.Error):
		r.mismatch("error: got %q, want %q", r.Error, expect.Error)
	}
}

func (r *StepResult) mismatch(format string, args ...any) {
	r.Mismatches = append(r.Mismatches, fmt.Sprintf(format, args...))
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
