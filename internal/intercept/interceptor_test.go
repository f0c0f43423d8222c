package intercept

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listenleak/internal/dom"
	"github.com/roach88/listenleak/internal/listener"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func installed(t *testing.T, opts ...Option) (*Interceptor, *dom.Window) {
	t.Helper()
	w := dom.NewWindow()
	i := New(append([]Option{WithLogger(quietLogger())}, opts...)...)
	i.Install(w)
	require.True(t, i.Installed())
	return i, w
}

func TestInstall_ForwardsAndMirrors(t *testing.T) {
	i, w := installed(t)
	var calls int
	f := listener.Named("f", func(this any, args ...any) { calls++ })

	w.AddEventListener("click", f, dom.Options{})

	assert.Equal(t, 1, w.Target().Count("click"), "host registration must happen")
	assert.Equal(t, []*listener.Listener{f}, i.Registry().Snapshot()["click"])
	assert.Equal(t, 1, w.Dispatch("click", nil))
	assert.Equal(t, 1, calls)
}

func TestInstall_RegistryOverApproximatesHostDedup(t *testing.T) {
	i, w := installed(t)
	f := listener.Named("f", nil)

	w.AddEventListener("click", f, dom.Options{})
	w.AddEventListener("click", f, dom.Options{})

	assert.Equal(t, 1, w.Target().Count("click"))
	assert.Equal(t, 2, i.Registry().Len("click"))

	w.RemoveEventListener("click", f, dom.Options{})
	assert.Equal(t, 0, w.Target().Count("click"))
	assert.Equal(t, 0, i.Registry().Len("click"))
}

func TestInstall_RemoveUnknownIsSilent(t *testing.T) {
	i, w := installed(t)
	assert.NotPanics(t, func() {
		w.RemoveEventListener("never", listener.Named("f", nil), dom.Options{})
	})
	assert.Empty(t, i.Registry().Snapshot())
}

func TestInstall_BindIsTagged(t *testing.T) {
	_, w := installed(t)
	f := listener.Named("onResize", nil)

	b := w.Bind(f, "widget", 1)

	assert.Same(t, f, b.Origin())
	assert.Equal(t, "widget", b.Receiver())
	assert.Equal(t, []any{1}, b.BoundArgs())
}

func TestInstall_Twice(t *testing.T) {
	i, w := installed(t)
	i.Install(w)

	f := listener.Named("f", nil)
	w.AddEventListener("click", f, dom.Options{})
	assert.Equal(t, 1, i.Registry().Len("click"))
}

func TestRestore_PutsPrimitivesBack(t *testing.T) {
	i, w := installed(t)
	f := listener.Named("f", nil)
	w.AddEventListener("click", f, dom.Options{})

	i.Restore()
	assert.False(t, i.Installed())

	// Registry emptied but keys kept.
	assert.Equal(t, []string{"click"}, i.Registry().Types())
	assert.Empty(t, i.Registry().Snapshot())

	// New registrations reach the host but are no longer mirrored.
	g := listener.Named("g", nil)
	w.AddEventListener("click", g, dom.Options{})
	assert.Equal(t, 2, w.Target().Count("click"))
	assert.Equal(t, 0, i.Registry().Len("click"))

	// Bind no longer tags.
	assert.Nil(t, w.Bind(f, nil).Origin())

	assert.NotPanics(t, i.Restore)
}

func TestRestore_StaleWrapperOnlyForwards(t *testing.T) {
	i, w := installed(t)
	stale := w.AddEventListener
	i.Restore()

	f := listener.Named("f", nil)
	stale("click", f, dom.Options{})

	assert.Equal(t, 1, w.Target().Count("click"))
	assert.Equal(t, 0, i.Registry().Len("click"))
}

func TestReinstall_WrapsCurrentPrimitives(t *testing.T) {
	w := dom.NewWindow()

	var outerCalls int
	hostAdd := w.AddEventListener
	w.AddEventListener = func(typ string, l *listener.Listener, opts dom.Options) {
		outerCalls++
		hostAdd(typ, l, opts)
	}

	i := New(WithLogger(quietLogger()))
	i.Install(w)
	i.Restore()
	i.Install(w)

	w.AddEventListener("click", listener.Named("f", nil), dom.Options{})
	assert.Equal(t, 1, outerCalls)
	assert.Equal(t, 1, i.Registry().Len("click"))
}

func TestObserver(t *testing.T) {
	type call struct {
		op  Op
		typ string
		l   *listener.Listener
	}
	var got []call
	_, w := installed(t, WithObserver(func(op Op, typ string, l *listener.Listener) {
		got = append(got, call{op, typ, l})
	}))
	f := listener.Named("f", nil)

	w.AddEventListener("click", f, dom.Options{})
	w.RemoveEventListener("click", f, dom.Options{})

	require.Len(t, got, 2)
	assert.Equal(t, call{OpAdd, "click", f}, got[0])
	assert.Equal(t, call{OpRemove, "click", f}, got[1])
}
