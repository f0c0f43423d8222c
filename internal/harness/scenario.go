package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is an instrumentation script: a sequence of registrations,
// binds, dispatches, marks and measures, with expectations on the results.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario demonstrates.
	Description string `yaml:"description"`

	// Session is an optional fixed session ID for deterministic journals.
	// If empty, defaults to "test-session-default".
	Session string `yaml:"session,omitempty"`

	// Listeners declares the direct listeners steps may refer to.
	// Each alias becomes the listener's string form.
	Listeners []string `yaml:"listeners"`

	// Steps run in order against a fresh window and detector.
	Steps []Step `yaml:"steps"`
}

// Step is a single operation.
//
// Fields used per op:
//   - add, remove: type, listener, capture, once
//   - bind: listener, as, receiver, args
//   - dispatch: type
//   - mark: name
//   - measure: name, start, end
//   - start, end: name (label), id
//   - clear_marks, clear_measure: name (optional)
//   - snapshot, teardown: none
type Step struct {
	Op string `yaml:"op"`

	Type     string `yaml:"type,omitempty"`
	Listener string `yaml:"listener,omitempty"`
	Capture  bool   `yaml:"capture,omitempty"`
	Once     bool   `yaml:"once,omitempty"`

	As       string `yaml:"as,omitempty"`
	Receiver string `yaml:"receiver,omitempty"`
	Args     []any  `yaml:"args,omitempty"`

	Name  string `yaml:"name,omitempty"`
	ID    string `yaml:"id,omitempty"`
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`

	// Expect validates the step's outcome. If nil, the step must simply not
	// fail.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
// Listener lists are compared in order, by alias. A nil map is not checked;
// an empty map must match an empty result.
type Expect struct {
	// Error is "invalid_argument" or "missing_mark".
	Error string `yaml:"error,omitempty"`

	// Add, Remove and Repeat check a measure (measure, end).
	Add    map[string][]string       `yaml:"add,omitempty"`
	Remove map[string][]string       `yaml:"remove,omitempty"`
	Repeat map[string]map[string]int `yaml:"repeat,omitempty"`

	// Snapshot checks the result of mark or snapshot.
	Snapshot map[string][]string `yaml:"snapshot,omitempty"`

	// Delivered checks how many listeners a dispatch invoked.
	Delivered *int `yaml:"delivered,omitempty"`
}

// Step operations.
const (
	OpAdd          = "add"
	OpRemove       = "remove"
	OpBind         = "bind"
	OpDispatch     = "dispatch"
	OpMark         = "mark"
	OpMeasure      = "measure"
	OpStart        = "start"
	OpEnd          = "end"
	OpClearMarks   = "clear_marks"
	OpClearMeasure = "clear_measure"
	OpSnapshot     = "snapshot"
	OpTeardown     = "teardown"
)

// Expected error kinds.
const (
	ExpectInvalidArgument = "invalid_argument"
	ExpectMissingMark     = "missing_mark"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), fails the schema, or refers to
// undeclared listeners.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Schema check first: it reports every violation with its path.
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	// Strict decode catches typos the schema would also reject, and fills
	// the typed struct.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks what the schema cannot: that every listener a
// step refers to is declared or bound by an earlier step.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	known := make(map[string]bool, len(s.Listeners))
	for i, alias := range s.Listeners {
		if alias == "" {
			return fmt.Errorf("listeners[%d]: alias is required", i)
		}
		if known[alias] {
			return fmt.Errorf("listeners[%d]: duplicate alias %q", i, alias)
		}
		known[alias] = true
	}

	for i, step := range s.Steps {
		switch step.Op {
		case OpAdd, OpRemove, OpBind:
			if !known[step.Listener] {
				return fmt.Errorf("steps[%d]: unknown listener %q", i, step.Listener)
			}
		}
		if step.Op == OpBind && step.As != "" {
			if known[step.As] {
				return fmt.Errorf("steps[%d]: alias %q already in use", i, step.As)
			}
			known[step.As] = true
		}
	}

	return nil
}
