package listener

// BindFunc derives a new listener bound to a fixed receiver and
// partially-applied arguments.
type BindFunc func(fn *Listener, receiver any, args ...any) *Listener

// NativeBind is the host's bind primitive. The first receiver in a chain of
// binds wins and arguments accumulate left to right. The result carries no
// provenance.
func NativeBind(fn *Listener, receiver any, args ...any) *Listener {
	if fn == nil {
		return nil
	}
	return &Listener{
		bound: &binding{
			target:   fn,
			receiver: receiver,
			args:     append([]any(nil), args...),
		},
	}
}

// Resolver wraps a bind primitive so that every derived listener records its
// root origin, receiver and bound arguments.
type Resolver struct {
	orig BindFunc
}

// NewResolver wraps orig. A nil orig falls back to NativeBind.
func NewResolver(orig BindFunc) *Resolver {
	if orig == nil {
		orig = NativeBind
	}
	return &Resolver{orig: orig}
}

// Bind derives through the wrapped primitive and tags the result.
// If fn already carries provenance, the new handle points at fn's origin, so
// chains always resolve to the root.
func (r *Resolver) Bind(fn *Listener, receiver any, args ...any) *Listener {
	derived := r.orig(fn, receiver, args...)
	if derived == nil || derived.prov != nil {
		return derived
	}
	origin := fn
	if o := fn.Origin(); o != nil {
		origin = o
	}
	derived.prov = &Provenance{
		Origin:   origin,
		Receiver: receiver,
		Args:     append([]any(nil), args...),
	}
	return derived
}

// Original returns the wrapped primitive.
func (r *Resolver) Original() BindFunc {
	return r.orig
}
