// Package executor applies parsed edit commands to the segment store.
// Each call is a transformation of (command, store, oracle); nothing is
// persisted here and a failed command never halts a batch.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cutscript/cutscript-agent/internal/script"
	"github.com/cutscript/cutscript-agent/internal/timeline"
)

// A LOAD waits this long for the asynchronously-probed duration before
// falling back, polling on the tick. Vars so tests can shrink the
// budget.
var (
	durationWait     = 3 * time.Second
	durationPollTick = 100 * time.Millisecond
)

const (
	// FallbackDuration is used when the probe has not answered in
	// time. The segment is created with this length and corrected by
	// a later recompile once the real duration is cached.
	FallbackDuration = 60.0

	// A CUT this close to a segment boundary would produce a
	// degenerate sliver and is rejected.
	cutMargin = 0.1
)

// DurationOracle answers non-blocking duration queries. The bool is
// false while the real duration is still unknown.
type DurationOracle interface {
	Lookup(ctx context.Context, path string) (float64, bool)
}

// FileChecker reports whether a source file exists and is readable.
type FileChecker interface {
	Exists(path string) bool
}

// OSFileChecker checks the local filesystem.
type OSFileChecker struct{}

func (OSFileChecker) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Result is the outcome of one command.
type Result struct {
	Command    script.Command `json:"command"`
	OK         bool           `json:"ok"`
	SegmentIDs []int          `json:"segment_ids,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

// Report accumulates a batch run. All commands are attempted.
type Report struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

// Executor owns no state between calls beyond its collaborators.
type Executor struct {
	store  *timeline.Store
	oracle DurationOracle
	files  FileChecker
	logger *slog.Logger
}

func New(store *timeline.Store, oracle DurationOracle, files FileChecker, logger *slog.Logger) *Executor {
	if files == nil {
		files = OSFileChecker{}
	}
	return &Executor{store: store, oracle: oracle, files: files, logger: logger}
}

// ExecuteAll runs every command in order, collecting per-command
// results. Failures are recorded and the batch continues.
func (e *Executor) ExecuteAll(ctx context.Context, cmds []script.Command) Report {
	report := Report{Total: len(cmds)}
	for _, cmd := range cmds {
		res := e.Execute(ctx, cmd)
		if res.OK {
			report.Succeeded++
		} else {
			report.Failed++
			if e.logger != nil {
				e.logger.Warn("command failed",
					"kind", cmd.Kind, "line", cmd.Line, "reason", res.Reason)
			}
		}
		report.Results = append(report.Results, res)
	}
	return report
}

// Execute applies a single command to the store.
func (e *Executor) Execute(ctx context.Context, cmd script.Command) Result {
	switch cmd.Kind {
	case script.CmdLoad:
		return e.load(ctx, cmd)
	case script.CmdCut:
		return e.cut(cmd)
	case script.CmdHide:
		return e.setVisibility(cmd, false)
	case script.CmdShow:
		return e.setVisibility(cmd, true)
	case script.CmdDelete:
		return e.deleteRange(cmd)
	case script.CmdMerge:
		return e.merge(cmd)
	case script.CmdSpeed:
		return e.speed(cmd)
	default:
		return fail(cmd, fmt.Sprintf("unknown command kind %q", cmd.Kind))
	}
}

func (e *Executor) load(ctx context.Context, cmd script.Command) Result {
	if !e.files.Exists(cmd.Path) {
		return fail(cmd, fmt.Sprintf("file not found: %s", cmd.Path))
	}

	duration, ok := e.awaitDuration(ctx, cmd.Path)
	if !ok {
		duration = FallbackDuration
		if e.logger != nil {
			e.logger.Warn("duration unresolved, using fallback",
				"path", cmd.Path, "fallback_s", FallbackDuration)
		}
	}

	start := e.store.MaxEnd()
	seg := &timeline.Segment{
		Start:    start,
		End:      start + duration,
		Visible:  true,
		State:    timeline.StateStopped,
		FilePath: cmd.Path,
		Speed:    timeline.DefaultSpeed,
	}
	e.store.Add(seg)
	return ok1(cmd, seg.ID)
}

// awaitDuration polls the oracle until the duration arrives, the wait
// budget runs out, or ctx is cancelled. On cancellation the caller
// still creates the segment with the fallback so the store is never
// left half-built.
func (e *Executor) awaitDuration(ctx context.Context, path string) (float64, bool) {
	if d, ok := e.oracle.Lookup(ctx, path); ok {
		return d, true
	}

	deadline := time.NewTimer(durationWait)
	defer deadline.Stop()
	tick := time.NewTicker(durationPollTick)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0, false
		case <-deadline.C:
			return 0, false
		case <-tick.C:
			if d, ok := e.oracle.Lookup(ctx, path); ok {
				return d, true
			}
		}
	}
}

func (e *Executor) cut(cmd script.Command) Result {
	seg := e.store.GetAtTime(cmd.At)
	if seg == nil {
		return fail(cmd, fmt.Sprintf("no segment at %.3fs", cmd.At))
	}
	if cmd.At-seg.Start < cutMargin || seg.End-cmd.At < cutMargin {
		return fail(cmd, fmt.Sprintf("cut point %.3fs too close to segment boundary", cmd.At))
	}

	e.store.Remove(seg.ID)

	left := &timeline.Segment{
		Start:     seg.Start,
		End:       cmd.At,
		Visible:   seg.Visible,
		State:     timeline.StateStopped,
		FilePath:  seg.FilePath,
		Thumbnail: seg.Thumbnail,
		Speed:     seg.Speed,
	}
	right := &timeline.Segment{
		Start:    cmd.At,
		End:      seg.End,
		Visible:  seg.Visible,
		State:    timeline.StateStopped,
		FilePath: seg.FilePath,
		Speed:    seg.Speed,
	}
	e.store.Add(left)
	e.store.Add(right)
	return okN(cmd, left.ID, right.ID)
}

func (e *Executor) setVisibility(cmd script.Command, visible bool) Result {
	segs := e.store.GetByTimeRange(cmd.Start, cmd.End)
	if len(segs) == 0 {
		return fail(cmd, noOverlap(cmd))
	}

	state := timeline.StateHidden
	if visible {
		state = timeline.StateStopped
	}

	ids := make([]int, 0, len(segs))
	for _, seg := range segs {
		seg.Visible = visible
		seg.State = state
		e.store.Update(seg)
		ids = append(ids, seg.ID)
	}
	return okN(cmd, ids...)
}

func (e *Executor) deleteRange(cmd script.Command) Result {
	segs := e.store.GetByTimeRange(cmd.Start, cmd.End)
	if len(segs) == 0 {
		return fail(cmd, noOverlap(cmd))
	}

	ids := make([]int, 0, len(segs))
	for _, seg := range segs {
		e.store.Remove(seg.ID)
		ids = append(ids, seg.ID)
	}
	return okN(cmd, ids...)
}

func (e *Executor) merge(cmd script.Command) Result {
	segs := e.store.GetByTimeRange(cmd.Start, cmd.End)
	if len(segs) < 2 {
		return fail(cmd, fmt.Sprintf("merge needs at least 2 overlapping segments, found %d", len(segs)))
	}

	file := segs[0].FilePath
	visible := true
	for _, seg := range segs {
		if seg.FilePath != file {
			return fail(cmd, "cannot merge segments from different source files")
		}
		if !seg.Visible {
			visible = false
		}
	}

	merged := &timeline.Segment{
		Start:     segs[0].Start,
		End:       segs[len(segs)-1].End,
		Visible:   visible,
		State:     timeline.StateStopped,
		FilePath:  file,
		Thumbnail: segs[0].Thumbnail,
		Speed:     timeline.DefaultSpeed,
	}
	if !visible {
		merged.State = timeline.StateHidden
	}

	for _, seg := range segs {
		e.store.Remove(seg.ID)
	}
	e.store.Add(merged)
	return ok1(cmd, merged.ID)
}

func (e *Executor) speed(cmd script.Command) Result {
	if cmd.Rate < timeline.MinSpeed || cmd.Rate > timeline.MaxSpeed {
		return fail(cmd, fmt.Sprintf("speed rate %.2f outside [%.1f, %.1f]",
			cmd.Rate, timeline.MinSpeed, timeline.MaxSpeed))
	}

	segs := e.store.GetByTimeRange(cmd.Start, cmd.End)
	if len(segs) == 0 {
		return fail(cmd, noOverlap(cmd))
	}

	ids := make([]int, 0, len(segs))
	for _, seg := range segs {
		seg.Speed = cmd.Rate
		e.store.Update(seg)
		ids = append(ids, seg.ID)
	}
	return okN(cmd, ids...)
}

func noOverlap(cmd script.Command) string {
	return fmt.Sprintf("no segment overlaps [%.3fs, %.3fs]", cmd.Start, cmd.End)
}

func fail(cmd script.Command, reason string) Result {
	return Result{Command: cmd, OK: false, Reason: reason}
}

func ok1(cmd script.Command, id int) Result {
	return Result{Command: cmd, OK: true, SegmentIDs: []int{id}}
}

func okN(cmd script.Command, ids ...int) Result {
	return Result{Command: cmd, OK: true, SegmentIDs: ids}
}
