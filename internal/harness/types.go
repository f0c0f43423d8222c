package harness

import "github.com/roach88/listenleak/internal/diff"

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall success: no step failed and every expectation
	// matched.
	Pass bool `json:"pass"`

	// Errors contains one message per failed expectation.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Session is the session ID the run was journaled under.
	Session string `json:"session"`

	// Measures holds every measure the run produced, keyed by measure name.
	// A later measure with the same name replaces an earlier one.
	Measures map[string]diff.Measure `json:"-"`

	// MeasureOrder lists measure names in the order they were produced.
	MeasureOrder []string `json:"measures"`
}

// NewResult creates a new passing result.
func NewResult(session string) *Result {
	return &Result{
		Pass:     true,
		Errors:   []string{},
		Session:  session,
		Measures: make(map[string]diff.Measure),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addMeasure stores m under name.
func (r *Result) addMeasure(name string, m diff.Measure) {
	if _, seen := r.Measures[name]; !seen {
		r.MeasureOrder = append(r.MeasureOrder, name)
	}
	r.Measures[name] = m
}
