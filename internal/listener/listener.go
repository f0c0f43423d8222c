package listener

import (
	"reflect"
	"runtime"
)

// Func is the callable signature of an event listener.
// The dispatcher passes the current target as this and the event as the
// final argument.
type Func func(this any, args ...any)

// derivedForm is the string form of a handle produced by a bind primitive.
// Derived callables carry no source of their own, so every one of them
// shares it.
const derivedForm = "[derived]"

// Listener is a handle to a callable value.
//
// Compare listeners with ==; distinct handles are distinct listeners even if
// they wrap the same Func.
type Listener struct {
	fn   Func
	name string

	// bound is set for handles produced by a bind primitive.
	bound *binding

	// prov is set once by a Resolver and never modified.
	prov *Provenance
}

// binding records how a derived handle forwards its calls.
type binding struct {
	target   *Listener
	receiver any
	args     []any
}

// Provenance is the back-reference metadata attached to a derived handle.
type Provenance struct {
	// Origin is the root, non-derived handle.
	Origin *Listener

	// Receiver is the value supplied as the receiver at bind time.
	Receiver any

	// Args are the arguments partially applied at bind time.
	Args []any
}

// New creates a direct listener. Its string form is the runtime name of fn,
// so closures created from the same function literal share a string form.
func New(fn Func) *Listener {
	return &Listener{fn: fn, name: funcName(fn)}
}

// Named creates a direct listener with an explicit string form.
func Named(name string, fn Func) *Listener {
	return &Listener{fn: fn, name: name}
}

// String returns the listener's string form.
func (l *Listener) String() string {
	if l == nil {
		return "<nil>"
	}
	if l.bound != nil {
		return derivedForm
	}
	return l.name
}

// Derived reports whether the handle was produced by a bind primitive.
func (l *Listener) Derived() bool {
	return l != nil && l.bound != nil
}

// Provenance returns the metadata attached by a Resolver, if any.
func (l *Listener) Provenance() (Provenance, bool) {
	if l == nil || l.prov == nil {
		return Provenance{}, false
	}
	p := *l.prov
	p.Args = append([]any(nil), l.prov.Args...)
	return p, true
}

// Origin returns the root handle recorded at bind time, or nil if the handle
// carries no provenance.
func (l *Listener) Origin() *Listener {
	if l == nil || l.prov == nil {
		return nil
	}
	return l.prov.Origin
}

// Receiver returns the receiver recorded at bind time.
func (l *Listener) Receiver() any {
	if l == nil || l.prov == nil {
		return nil
	}
	return l.prov.Receiver
}

// BoundArgs returns a copy of the arguments recorded at bind time.
func (l *Listener) BoundArgs() []any {
	if l == nil || l.prov == nil {
		return nil
	}
	return append([]any(nil), l.prov.Args...)
}

// Identity returns the resolved identity string: the origin's string form
// when the handle carries provenance, the handle's own string form otherwise.
func (l *Listener) Identity() string {
	if origin := l.Origin(); origin != nil {
		return origin.String()
	}
	return l.String()
}

// Call invokes the listener. Derived handles ignore this and call their
// target with the bound receiver, prepending the bound arguments.
func (l *Listener) Call(this any, args ...any) {
	if l == nil {
		return
	}
	if b := l.bound; b != nil {
		full := make([]any, 0, len(b.args)+len(args))
		full = append(full, b.args...)
		full = append(full, args...)
		b.target.Call(b.receiver, full...)
		return
	}
	if l.fn != nil {
		l.fn(this, args...)
	}
}

func funcName(fn Func) string {
	if fn == nil {
		return "<nil>"
	}
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		return f.Name()
	}
	return "<unknown>"
}
