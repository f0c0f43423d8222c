package harness

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// scenarioSchema constrains scenario documents. Definitions are closed, so
// unknown fields are rejected.
const scenarioSchema = `
#Name: string & !=""

#Scenario: {
	name:         #Name
	description?: string
	session?:     string
	listeners?:   [...#Name]
	steps:        [#Step, ...#Step]
}

#Listeners: [string]: [...string]

#Expect: {
	error?:     "invalid_argument" | "missing_mark"
	add?:       #Listeners
	remove?:    #Listeners
	repeat?:    [string]: [string]: int & >=2
	snapshot?:  #Listeners
	delivered?: int & >=0
}

#Step: {
	op: "add" | "remove" | "bind" | "dispatch" | "mark" | "measure" |
		"start" | "end" | "clear_marks" | "clear_measure" | "snapshot" | "teardown"

	type?:     string
	listener?: string
	capture?:  bool
	once?:     bool
	as?:       string
	receiver?: string
	args?:     [..._]
	name?:     string
	id?:       string
	start?:    string
	end?:      string
	expect?:   #Expect

	if op == "add" || op == "remove" {
		type:     #Name
		listener: #Name
	}
	if op == "bind" {
		listener: #Name
	}
	if op == "dispatch" {
		type: #Name
	}
	if op == "measure" {
		name:  string
		start: string
		end:   string
	}
	if op == "start" || op == "end" {
		name: #Name
	}
}
`

// SchemaError lists every schema violation in a scenario document.
type SchemaError struct {
	Details []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("scenario schema: %s", strings.Join(e.Details, "; "))
}

// ValidateSchema checks a YAML scenario document against the scenario
// schema.
func ValidateSchema(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc == nil {
		return &SchemaError{Details: []string{"empty document"}}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(scenarioSchema).LookupPath(cue.ParsePath("#Scenario"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	value := schema.Unify(ctx.Encode(doc))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		var details []string
		for _, e := range cueerrors.Errors(err) {
			details = append(details, strings.TrimSpace(cueerrors.Details(e, nil)))
		}
		return &SchemaError{Details: details}
	}
	return nil
}
