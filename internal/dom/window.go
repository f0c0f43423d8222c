package dom

import "github.com/roach88/listenleak/internal/listener"

// AddFunc is the signature of the global registration primitive.
type AddFunc func(typ string, l *listener.Listener, opts Options)

// RemoveFunc is the signature of the global removal primitive.
type RemoveFunc func(typ string, l *listener.Listener, opts Options)

// Window is the global scope of a session.
//
// Application code registers through the primitive fields, never through
// the target directly, so instrumentation can replace a field and later put
// the original back.
type Window struct {
	target *Target

	AddEventListener    AddFunc
	RemoveEventListener RemoveFunc
	Bind                listener.BindFunc
}

// NewWindow creates a window whose primitives act on a fresh target and
// bind through listener.NativeBind.
func NewWindow() *Window {
	t := NewTarget()
	return &Window{
		target:              t,
		AddEventListener:    t.AddEventListener,
		RemoveEventListener: t.RemoveEventListener,
		Bind:                listener.NativeBind,
	}
}

// Target returns the window's underlying event target.
func (w *Window) Target() *Target {
	return w.target
}

// Dispatch fires an event of typ at the window and returns how many
// listeners were invoked.
func (w *Window) Dispatch(typ string, detail any) int {
	return w.target.DispatchEvent(&Event{Type: typ, Target: w, Detail: detail})
}
