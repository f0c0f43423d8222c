// Package testutil provides deterministic helpers for tests and scenario
// runs.
package testutil

// FixedSessionGenerator returns the same session ID every time.
//
// A scenario run with a FixedSessionGenerator journals byte-identical
// entries on every run.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator returning id.
//
// The id is typically set in the scenario YAML:
//
//	session: "test-session-0001"
//
// If id is empty, Generate() returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session ID.
//
// Implements detector.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
