// Package harness runs leak-detection scenarios.
//
// A scenario drives a fresh window and detector through a script of
// registrations, binds, dispatches, marks and measures, and checks each
// step's outcome against its expectations.
//
// # Scenario Format
//
//	name: bound_leak
//	description: "A bound handler is added twice and never removed"
//	listeners: [onClick]
//	steps:
//	  - op: mark
//	    name: before
//	  - op: bind
//	    listener: onClick
//	    as: first
//	  - op: bind
//	    listener: onClick
//	    as: second
//	  - op: add
//	    type: click
//	    listener: first
//	  - op: add
//	    type: click
//	    listener: second
//	  - op: mark
//	    name: after
//	  - op: measure
//	    name: leak
//	    start: before
//	    end: after
//	    expect:
//	      add: { click: [first, second] }
//	      repeat: { click: { onClick: 2 } }
//
// Documents are checked against a CUE schema before they are decoded, and
// decoded strictly so a misspelled field is an error.
//
// # Listeners
//
// Each alias under listeners becomes a direct listener whose string form is
// the alias. A bind step derives a new handle through the window's bind
// primitive; its "as" alias names the derived handle for later steps.
// Expectations on add, remove and snapshot refer to listeners by alias.
//
// # Deterministic Runs
//
// Every run uses a fixed session ID (the scenario's session, or
// "test-session-default"), so journals and golden files are byte-identical
// across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/bound_leak.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
