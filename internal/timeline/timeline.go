// Package timeline holds the ordered collection of playable video
// segments derived from a script. The store is driven by a single
// logical writer at a time and is not internally synchronized;
// concurrent readers must work from Segments() snapshots.
package timeline

import "sort"

// PlayState tags a segment's playback state.
type PlayState string

const (
	StateStopped PlayState = "stopped"
	StatePlaying PlayState = "playing"
	StateHidden  PlayState = "hidden"
)

// Speed multiplier domain.
const (
	MinSpeed     = 0.1
	MaxSpeed     = 10.0
	DefaultSpeed = 1.0
)

// Segment is a contiguous time range of one source video.
type Segment struct {
	ID        int       `json:"id"`
	Start     float64   `json:"start"`
	End       float64   `json:"end"`
	Visible   bool      `json:"visible"`
	State     PlayState `json:"state"`
	FilePath  string    `json:"file_path"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Speed     float64   `json:"speed"`
}

// Duration returns End - Start.
func (s *Segment) Duration() float64 {
	return s.End - s.Start
}

// Notifier receives change events after each store mutation. All
// methods are called synchronously from the mutating goroutine.
type Notifier interface {
	SegmentAdded(seg *Segment)
	SegmentRemoved(id int)
	SegmentUpdated(seg *Segment)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) SegmentAdded(*Segment)   {}
func (NopNotifier) SegmentRemoved(int)      {}
func (NopNotifier) SegmentUpdated(*Segment) {}

// Store keeps segments sorted ascending by start time after every
// mutation. Ids are sequential, assigned on insert, and reset to 1
// only by Clear.
type Store struct {
	segments []*Segment
	nextID   int
	notifier Notifier
}

func NewStore(notifier Notifier) *Store {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Store{nextID: 1, notifier: notifier}
}

// Add inserts a segment, assigning the next sequential id when the
// segment has none.
func (st *Store) Add(seg *Segment) {
	if seg.ID == 0 {
		seg.ID = st.nextID
		st.nextID++
	} else if seg.ID >= st.nextID {
		st.nextID = seg.ID + 1
	}
	if seg.Speed == 0 {
		seg.Speed = DefaultSpeed
	}
	st.segments = append(st.segments, seg)
	st.sort()
	st.notifier.SegmentAdded(seg)
}

// Remove deletes the segment with the given id if present.
func (st *Store) Remove(id int) bool {
	for i, seg := range st.segments {
		if seg.ID == id {
			st.segments = append(st.segments[:i], st.segments[i+1:]...)
			st.notifier.SegmentRemoved(id)
			return true
		}
	}
	return false
}

// Update replaces the stored segment with the same id.
func (st *Store) Update(seg *Segment) bool {
	for i, existing := range st.segments {
		if existing.ID == seg.ID {
			st.segments[i] = seg
			st.sort()
			st.notifier.SegmentUpdated(seg)
			return true
		}
	}
	return false
}

// Clear empties the store and restarts the id counter at 1.
func (st *Store) Clear() {
	for _, seg := range st.segments {
		st.notifier.SegmentRemoved(seg.ID)
	}
	st.segments = nil
	st.nextID = 1
}

// GetByID returns the segment with the given id, or nil.
func (st *Store) GetByID(id int) *Segment {
	for _, seg := range st.segments {
		if seg.ID == id {
			return seg
		}
	}
	return nil
}

// GetAtTime returns the first segment whose range contains t
// (start <= t < end), or nil.
func (st *Store) GetAtTime(t float64) *Segment {
	for _, seg := range st.segments {
		if seg.Start <= t && t < seg.End {
			return seg
		}
	}
	return nil
}

// GetByTimeRange returns every segment overlapping [start, end) in
// start order, using the half-open overlap test.
func (st *Store) GetByTimeRange(start, end float64) []*Segment {
	var out []*Segment
	for _, seg := range st.segments {
		if seg.Start < end && seg.End > start {
			out = append(out, seg)
		}
	}
	return out
}

// Segments returns a copy of the ordered segment slice. The pointed-to
// segments are shared; treat them as read-only outside the writer.
func (st *Store) Segments() []*Segment {
	out := make([]*Segment, len(st.segments))
	copy(out, st.segments)
	return out
}

// Len returns the number of segments.
func (st *Store) Len() int {
	return len(st.segments)
}

// MaxEnd returns the largest end time across all segments, 0 when the
// store is empty. New LOADs append at this point.
func (st *Store) MaxEnd() float64 {
	max := 0.0
	for _, seg := range st.segments {
		if seg.End > max {
			max = seg.End
		}
	}
	return max
}

func (st *Store) sort() {
	sort.SliceStable(st.segments, func(i, j int) bool {
		return st.segments[i].Start < st.segments[j].Start
	})
}
