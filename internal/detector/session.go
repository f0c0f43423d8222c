package detector

import "github.com/google/uuid"

// SessionIDGenerator produces the identifier stamped on every journal entry
// of a detector session.
// Implemented by UUIDv7Generator (production) and testutil.FixedSessionGenerator
// (tests).
type SessionIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session IDs, so journal
// entries of successive sessions sort by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
