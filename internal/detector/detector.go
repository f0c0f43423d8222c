package detector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/listenleak/internal/diff"
	"github.com/roach88/listenleak/internal/dom"
	"github.com/roach88/listenleak/internal/intercept"
	"github.com/roach88/listenleak/internal/journal"
	"github.com/roach88/listenleak/internal/listener"
	"github.com/roach88/listenleak/internal/registry"
	"github.com/roach88/listenleak/internal/report"
)

// Recorder receives a journal entry for every operation of the session.
// Implemented by *journal.Journal.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// seqSource is implemented by recorders that can report how far a session
// has already been recorded, such as *journal.Journal.
type seqSource interface {
	LastSeq(ctx context.Context, session string) (int64, error)
}

// Detector is the session context: the interceptor, the registry it feeds,
// and the mark and measure stores.
//
// Construct one per window with New; it is not a package-level singleton.
// A Detector is not safe for concurrent use.
type Detector struct {
	window   *dom.Window
	icpt     *intercept.Interceptor
	marks    map[string]registry.Snapshot
	measures map[string]diff.Measure

	logger   *slog.Logger
	recorder Recorder
	clock    *journal.Clock
	gen      SessionIDGenerator
	session  string
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = l
	}
}

// WithRecorder journals every operation to r.
// Recording failures are logged and never returned to callers.
func WithRecorder(r Recorder) Option {
	return func(d *Detector) {
		d.recorder = r
	}
}

// WithSessionIDGenerator overrides the session ID generator.
// Defaults to UUIDv7Generator.
func WithSessionIDGenerator(g SessionIDGenerator) Option {
	return func(d *Detector) {
		d.gen = g
	}
}

// New creates a detector and installs its interceptor on w.
func New(w *dom.Window, opts ...Option) *Detector {
	d := &Detector{
		window:   w,
		marks:    make(map[string]registry.Snapshot),
		measures: make(map[string]diff.Measure),
		logger:   slog.Default(),
		clock:    journal.NewClock(),
		gen:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.session = d.gen.Generate()
	d.logger = d.logger.With("session", d.session)
	d.resumeClock()

	d.icpt = intercept.New(
		intercept.WithLogger(d.logger),
		intercept.WithObserver(d.observe),
	)
	d.icpt.Install(w)

	d.logger.Info("detector installed")
	return d
}

// SessionID returns the identifier stamped on this session's journal
// entries.
func (d *Detector) SessionID() string {
	return d.session
}

// Snapshot returns a pruned copy of the live registry.
func (d *Detector) Snapshot() registry.Snapshot {
	return d.icpt.Registry().Snapshot()
}

// Mark stores a snapshot of the registry under name, replacing any previous
// snapshot with that name, and returns it.
func (d *Detector) Mark(name string) (registry.Snapshot, error) {
	if name == "" {
		return nil, newInvalidArgument("mark name not provided")
	}
	snap := d.Snapshot()
	d.marks[name] = snap

	d.logger.Info("mark", "name", name, "types", len(snap), "listeners", snap.Count())
	d.record(journal.Entry{Op: journal.OpMark, Name: name})
	return snap.Copy(), nil
}

// Measure diffs the marks startMark and endMark, stores the result under
// name, replacing any previous measure with that name, and returns it.
func (d *Detector) Measure(name, startMark, endMark string) (diff.Measure, error) {
	start, ok := d.marks[startMark]
	if !ok {
		return diff.Measure{}, newMissingMark(name, "start", startMark)
	}
	end, ok := d.marks[endMark]
	if !ok {
		return diff.Measure{}, newMissingMark(name, "end", endMark)
	}

	m := diff.Compute(start, end)
	d.measures[name] = m

	d.logger.Info("measure", "name", name, "start", startMark, "end", endMark,
		"added", m.Add.Count(), "removed", m.Remove.Count())
	if m.HasRepeats() {
		d.logger.Warn("listeners added repeatedly", "name", name, "repeats", m.ListenersRepeatCount)
	}

	detail, err := report.MeasureJSON(m)
	if err != nil {
		d.logger.Error("render measure", "name", name, "error", err)
	}
	d.record(journal.Entry{Op: journal.OpMeasure, Name: name, Detail: string(detail)})
	return m, nil
}

// ClearMarks discards the named mark, or every mark when no name is given.
// Unknown names are ignored.
func (d *Detector) ClearMarks(name ...string) {
	if len(name) == 0 || name[0] == "" {
		d.marks = make(map[string]registry.Snapshot)
		d.record(journal.Entry{Op: journal.OpClearMarks})
		return
	}
	delete(d.marks, name[0])
	d.record(journal.Entry{Op: journal.OpClearMarks, Name: name[0]})
}

// ClearMeasure discards the named measure, or every measure when no name is
// given. Unknown names are ignored.
func (d *Detector) ClearMeasure(name ...string) {
	if len(name) == 0 || name[0] == "" {
		d.measures = make(map[string]diff.Measure)
		d.record(journal.Entry{Op: journal.OpClearMeasure})
		return
	}
	delete(d.measures, name[0])
	d.record(journal.Entry{Op: journal.OpClearMeasure, Name: name[0]})
}

// Start marks "<label>-<id>-start". id defaults to "".
func (d *Detector) Start(label string, id ...string) {
	// Mark only fails on an empty name; this one ends in "-start".
	_, _ = d.Mark(startMarkName(label, idOf(id)))
}

// End marks "<label>-<id>-end" and measures it against the matching Start
// under "<label>-<id>". id defaults to "".
func (d *Detector) End(label string, id ...string) (diff.Measure, error) {
	key := measureKey(label, idOf(id))
	_, _ = d.Mark(key + "-end")
	return d.Measure(key, key+"-start", key+"-end")
}

// GetMark returns a copy of the named mark.
func (d *Detector) GetMark(name string) (registry.Snapshot, bool) {
	s, ok := d.marks[name]
	if !ok {
		return nil, false
	}
	return s.Copy(), true
}

// GetMeasure returns the named measure.
func (d *Detector) GetMeasure(name string) (diff.Measure, bool) {
	m, ok := d.measures[name]
	return m, ok
}

// MarkNames returns the recorded mark names, sorted.
func (d *Detector) MarkNames() []string {
	return sortedKeys(d.marks)
}

// MeasureNames returns the recorded measure names, sorted.
func (d *Detector) MeasureNames() []string {
	return sortedKeys(d.measures)
}

// Teardown restores the window's original primitives, empties the registry
// and discards every mark and measure. The detector stays usable; marks
// taken afterwards see an empty registry.
func (d *Detector) Teardown() {
	d.icpt.Restore()
	d.marks = make(map[string]registry.Snapshot)
	d.measures = make(map[string]diff.Measure)

	d.logger.Info("detector torn down")
	d.record(journal.Entry{Op: journal.OpTeardown})
}

func (d *Detector) observe(op intercept.Op, typ string, l *listener.Listener) {
	e := journal.Entry{
		EventType: typ,
		Listener:  report.Label(l),
		Identity:  l.Identity(),
	}
	switch op {
	case intercept.OpAdd:
		e.Op = journal.OpAdd
	case intercept.OpRemove:
		e.Op = journal.OpRemove
	default:
		return
	}
	d.record(e)
}

// resumeClock continues numbering after the last recorded entry of the
// session, so a reused session ID appends instead of colliding.
func (d *Detector) resumeClock() {
	src, ok := d.recorder.(seqSource)
	if !ok {
		return
	}
	last, err := src.LastSeq(context.Background(), d.session)
	if err != nil {
		d.logger.Error("journal last seq failed", "error", err)
		return
	}
	if last > 0 {
		d.clock = journal.NewClockAt(last)
		d.logger.Debug("resuming journal session", "seq", last)
	}
}

func (d *Detector) record(e journal.Entry) {
	if d.recorder == nil {
		return
	}
	e.Session = d.session
	e.Seq = d.clock.Next()
	if err := d.recorder.Record(context.Background(), e); err != nil {
		d.logger.Error("journal record failed", "op", e.Op, "seq", e.Seq, "error", err)
	}
}

func startMarkName(label, id string) string {
	return measureKey(label, id) + "-start"
}

func measureKey(label, id string) string {
	return fmt.Sprintf("%s-%s", label, id)
}

func idOf(id []string) string {
	if len(id) == 0 {
		return ""
	}
	return id[0]
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
