// Package anchor implements the two-click interval recorder used to
// author time-range commands from playback positions.
package anchor

// Range is a normalized [Start, End] pair with Start <= End.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Recorder is a two-state machine: idle until a first trigger captures
// the pivot, then recording until a second trigger confirms. The
// confirmed range is always (min, max) of pivot and the second
// position, regardless of click order.
type Recorder struct {
	recording bool
	pivot     float64
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Recording reports whether a pivot has been captured.
func (r *Recorder) Recording() bool {
	return r.recording
}

// Pivot returns the captured pivot time; meaningful only while
// recording.
func (r *Recorder) Pivot() float64 {
	return r.pivot
}

// Trigger feeds one click at the given position. The first click
// captures the pivot and returns confirmed=false; the second returns
// the normalized range with confirmed=true and resets to idle.
func (r *Recorder) Trigger(position float64) (Range, bool) {
	if !r.recording {
		r.recording = true
		r.pivot = position
		return Range{}, false
	}
	r.recording = false
	return normalize(r.pivot, position), true
}

// Preview returns the range the current position would confirm. The
// bool is false while idle.
func (r *Recorder) Preview(position float64) (Range, bool) {
	if !r.recording {
		return Range{}, false
	}
	return normalize(r.pivot, position), true
}

// Reset abandons any captured pivot.
func (r *Recorder) Reset() {
	r.recording = false
	r.pivot = 0
}

func normalize(a, b float64) Range {
	if a > b {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}
