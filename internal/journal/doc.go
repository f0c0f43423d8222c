// Package journal provides a SQLite-backed append-only log of detector
// sessions.
//
// Every mirrored registration and removal, every mark and measure, and the
// final teardown are written as one row keyed by (session, seq). The log is
// for offline inspection of a run; the detector never reads it back.
//
// # Ordering
//
// All ordering uses the seq column stamped from a Clock. Queries return rows
// ORDER BY seq ASC so a session reads back in the order it happened.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package journal
