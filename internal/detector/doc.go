// Package detector finds leaked and duplicated event-listener registrations
// in a long-lived session.
//
// A Detector installs an interceptor on a window, mirroring every
// registration and removal into a registry. Callers take named marks
// (snapshots of the registry) and measure the difference between two marks:
//
//	d := detector.New(w)
//	d.Start("dialog")
//	openDialog(w)
//	closeDialog(w)
//	m, err := d.End("dialog")
//	// m.Add holds listeners the dialog left behind.
//	// m.ListenersRepeatCount holds handlers attached more than once.
//
// Start and End derive mark names "<label>-<id>-start" and "<label>-<id>-end"
// and store the measure under "<label>-<id>". Without an id the names are
// "<label>--start", "<label>--end" and "<label>-".
//
// # Registry Semantics
//
// The registry over-approximates the host. The host ignores a second
// identical registration, but the registry records it, and a removal drops
// every recorded occurrence. Registration attempts the host would swallow
// therefore still show up in a measure.
//
// # Errors
//
// Mark returns an INVALID_ARGUMENT error for an empty name. Measure returns a
// MISSING_MARK error when either mark was never recorded or was cleared.
// Nothing else fails.
//
// # Lifecycle
//
// Teardown restores the window's primitives, empties the registry and clears
// marks and measures. Constructing a new Detector on the same window
// reinstalls the wrappers on top of whatever primitives the window then
// holds.
package detector
