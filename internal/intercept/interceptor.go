// Package intercept mirrors a window's listener registrations into a
// registry.
//
// Install replaces the window's AddEventListener, RemoveEventListener and
// Bind fields with wrappers. Each wrapper forwards the call unchanged to the
// primitive it replaced and then updates the registry, so the application
// observes exactly the host's behaviour. Restore puts the saved primitives
// back.
//
// Install after Restore wraps whatever primitives the window holds at that
// moment. If something else wrapped them in between, the new wrappers sit on
// top of it.
package intercept

import (
	"log/slog"

	"github.com/roach88/listenleak/internal/dom"
	"github.com/roach88/listenleak/internal/listener"
	"github.com/roach88/listenleak/internal/registry"
)

// Op identifies a mirrored operation.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Observer is notified after every mirrored operation.
type Observer func(op Op, typ string, l *listener.Listener)

// Interceptor owns the registry and the original window primitives.
type Interceptor struct {
	reg      *registry.Registry
	logger   *slog.Logger
	observer Observer

	window   *dom.Window
	add      dom.AddFunc
	remove   dom.RemoveFunc
	resolver *listener.Resolver
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(i *Interceptor) {
		i.logger = l
	}
}

// WithObserver sets a callback invoked after each mirrored operation.
func WithObserver(o Observer) Option {
	return func(i *Interceptor) {
		i.observer = o
	}
}

// New creates an interceptor with an empty registry.
func New(opts ...Option) *Interceptor {
	i := &Interceptor{
		reg:    registry.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Registry returns the live registry.
func (i *Interceptor) Registry() *registry.Registry {
	return i.reg
}

// Installed reports whether wrappers are currently installed.
func (i *Interceptor) Installed() bool {
	return i.window != nil
}

// Install wraps w's primitives. Calling Install while installed is a no-op.
func (i *Interceptor) Install(w *dom.Window) {
	if i.window != nil {
		return
	}
	i.window = w
	i.add = w.AddEventListener
	i.remove = w.RemoveEventListener
	i.resolver = listener.NewResolver(w.Bind)

	w.AddEventListener = i.AddEventListener
	w.RemoveEventListener = i.RemoveEventListener
	w.Bind = i.resolver.Bind

	i.logger.Debug("interceptor installed")
}

// Restore puts the saved primitives back and empties every registry
// sequence. Calling Restore when not installed is a no-op.
func (i *Interceptor) Restore() {
	if i.window == nil {
		return
	}
	i.window.AddEventListener = i.add
	i.window.RemoveEventListener = i.remove
	i.window.Bind = i.resolver.Original()

	i.window = nil
	i.reg.Reset()

	i.logger.Debug("interceptor restored")
}

// AddEventListener forwards to the saved primitive, then appends l to the
// registry under typ. After Restore it only forwards.
func (i *Interceptor) AddEventListener(typ string, l *listener.Listener, opts dom.Options) {
	if i.add != nil {
		i.add(typ, l, opts)
	}
	if i.window == nil {
		return
	}
	i.reg.Append(typ, l)

	i.logger.Debug("listener added", "type", typ, "listener", l.Identity(), "entries", i.reg.Len(typ))
	i.notify(OpAdd, typ, l)
}

// RemoveEventListener forwards to the saved primitive, then drops every
// occurrence of l under typ from the registry. After Restore it only
// forwards.
func (i *Interceptor) RemoveEventListener(typ string, l *listener.Listener, opts dom.Options) {
	if i.remove != nil {
		i.remove(typ, l, opts)
	}
	if i.window == nil {
		return
	}
	n := i.reg.RemoveAll(typ, l)

	i.logger.Debug("listener removed", "type", typ, "listener", l.Identity(), "dropped", n)
	i.notify(OpRemove, typ, l)
}

func (i *Interceptor) notify(op Op, typ string, l *listener.Listener) {
	if i.observer != nil {
		i.observer(op, typ, l)
	}
}
