// Package listener defines listener handles and the function identity resolver.
//
// A Listener is an opaque handle to a callable. Two handles are the same
// listener when they are the same pointer. Handles produced by a bind
// primitive are derived: they wrap another handle with a fixed receiver and
// partially-applied arguments, and are always distinct pointers even when
// derived identically.
//
// # Identity Resolution
//
// The host's bind primitive (NativeBind) produces derived handles without any
// record of where they came from. A Resolver wraps a bind primitive and tags
// every handle it produces with provenance: the root origin, the receiver and
// the bound arguments. Chained binds collapse to the root, so
//
//	r := listener.NewResolver(listener.NativeBind)
//	a := r.Bind(onResize, widget)
//	b := r.Bind(a, nil, 1)
//	b.Origin() == onResize // true
//
// Identity() returns the string form of the origin for tagged handles and the
// handle's own string form otherwise. The diff engine uses it to recognise a
// handler that was re-bound and re-attached several times.
//
// Provenance is attached once, at creation, and never changes.
package listener
