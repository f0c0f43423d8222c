package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/listenleak/internal/detector"
	"github.com/roach88/listenleak/internal/dom"
	"github.com/roach88/listenleak/internal/listener"
	"github.com/roach88/listenleak/internal/testutil"
)

// Harness executes one scenario against a fresh window and detector.
type Harness struct {
	window   *dom.Window
	detector *detector.Detector
	logger   *slog.Logger

	// handles maps alias to listener; aliases maps back.
	handles map[string]*listener.Listener
	aliases map[*listener.Listener]string
}

// RunOption configures a scenario run.
type RunOption func(*runConfig)

type runConfig struct {
	logger   *slog.Logger
	recorder detector.Recorder
	gen      detector.SessionIDGenerator
}

// WithLogger sets the logger for the run. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = l
	}
}

// WithRecorder journals the run to r.
func WithRecorder(r detector.Recorder) RunOption {
	return func(c *runConfig) {
		c.recorder = r
	}
}

// WithSessionIDGenerator supplies session IDs for scenarios that do not fix
// their own. Without it such scenarios run as "test-session-default".
func WithSessionIDGenerator(g detector.SessionIDGenerator) RunOption {
	return func(c *runConfig) {
		c.gen = g
	}
}

// Run executes a scenario and returns the result.
//
// Every run gets its own window and detector, and by default a fixed
// session ID, so the same scenario always produces the same result. The
// detector is torn down when the run ends.
//
// A non-nil error means the scenario itself is broken (for example a step
// refers to an unknown listener); expectation mismatches are reported in
// the result.
func Run(scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := &runConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var gen detector.SessionIDGenerator = testutil.NewFixedSessionGenerator(scenario.Session)
	if scenario.Session == "" && cfg.gen != nil {
		gen = cfg.gen
	}
	detOpts := []detector.Option{
		detector.WithLogger(cfg.logger),
		detector.WithSessionIDGenerator(gen),
	}
	if cfg.recorder != nil {
		detOpts = append(detOpts, detector.WithRecorder(cfg.recorder))
	}

	w := dom.NewWindow()
	h := &Harness{
		window:   w,
		detector: detector.New(w, detOpts...),
		logger:   cfg.logger.With("scenario", scenario.Name),
		handles:  make(map[string]*listener.Listener),
		aliases:  make(map[*listener.Listener]string),
	}
	defer h.detector.Teardown()

	for _, alias := range scenario.Listeners {
		h.bindAlias(alias, listener.Named(alias, nil))
	}

	result := NewResult(h.detector.SessionID())
	for i, step := range scenario.Steps {
		if err := h.executeStep(i, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
	}

	h.logger.Debug("scenario finished", "pass", result.Pass, "errors", len(result.Errors))
	return result, nil
}

func (h *Harness) bindAlias(alias string, l *listener.Listener) {
	h.handles[alias] = l
	h.aliases[l] = alias
}

func (h *Harness) lookup(alias string) (*listener.Listener, error) {
	l, ok := h.handles[alias]
	if !ok {
		return nil, fmt.Errorf("unknown listener %q", alias)
	}
	return l, nil
}

// executeStep runs one step and records expectation failures on result.
func (h *Harness) executeStep(i int, step Step, result *Result) error {
	h.logger.Debug("step", "index", i, "op", step.Op)
	opts := dom.Options{Capture: step.Capture, Once: step.Once}
	ctx := stepContext{index: i, op: step.Op, result: result}

	switch step.Op {
	case OpAdd, OpRemove:
		l, err := h.lookup(step.Listener)
		if err != nil {
			return err
		}
		if step.Op == OpAdd {
			h.window.AddEventListener(step.Type, l, opts)
		} else {
			h.window.RemoveEventListener(step.Type, l, opts)
		}

	case OpBind:
		l, err := h.lookup(step.Listener)
		if err != nil {
			return err
		}
		var receiver any
		if step.Receiver != "" {
			receiver = step.Receiver
		}
		bound := h.window.Bind(l, receiver, step.Args...)
		if step.As != "" {
			h.bindAlias(step.As, bound)
		}

	case OpDispatch:
		delivered := h.window.Dispatch(step.Type, nil)
		if step.Expect != nil && step.Expect.Delivered != nil {
			ctx.checkInt("delivered", *step.Expect.Delivered, delivered)
		}

	case OpMark:
		snap, err := h.detector.Mark(step.Name)
		if ctx.checkError(step.Expect, err) && step.Expect != nil && step.Expect.Snapshot != nil {
			ctx.checkListeners("snapshot", step.Expect.Snapshot, h.render(snap))
		}

	case OpSnapshot:
		if step.Expect != nil && step.Expect.Snapshot != nil {
			ctx.checkListeners("snapshot", step.Expect.Snapshot, h.render(h.detector.Snapshot()))
		}

	case OpMeasure:
		m, err := h.detector.Measure(step.Name, step.Start, step.End)
		if ctx.checkError(step.Expect, err) {
			result.addMeasure(step.Name, m)
			h.checkMeasure(ctx, step.Expect, m)
		}

	case OpStart:
		h.detector.Start(step.Name, step.ID)

	case OpEnd:
		m, err := h.detector.End(step.Name, step.ID)
		if ctx.checkError(step.Expect, err) {
			result.addMeasure(fmt.Sprintf("%s-%s", step.Name, step.ID), m)
			h.checkMeasure(ctx, step.Expect, m)
		}

	case OpClearMarks:
		h.detector.ClearMarks(step.Name)

	case OpClearMeasure:
		h.detector.ClearMeasure(step.Name)

	case OpTeardown:
		h.detector.Teardown()

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	return nil
}
