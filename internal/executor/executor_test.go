package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cutscript/cutscript-agent/internal/script"
	"github.com/cutscript/cutscript-agent/internal/timeline"
)

type fakeOracle struct {
	mu        sync.Mutex
	durations map[string]float64
}

func (o *fakeOracle) Lookup(ctx context.Context, path string) (float64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	d, ok := o.durations[path]
	return d, ok
}

func (o *fakeOracle) set(path string, d float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.durations == nil {
		o.durations = map[string]float64{}
	}
	o.durations[path] = d
}

type fakeFiles struct {
	missing map[string]bool
}

func (f fakeFiles) Exists(path string) bool {
	return !f.missing[path]
}

func newTestExecutor(t *testing.T, durations map[string]float64) (*Executor, *timeline.Store, *fakeOracle) {
	t.Helper()
	store := timeline.NewStore(nil)
	oracle := &fakeOracle{durations: durations}
	exec := New(store, oracle, fakeFiles{}, nil)
	return exec, store, oracle
}

// loadSegment seeds one segment for /a.mp4 via LOAD.
func loadSegment(t *testing.T, exec *Executor) {
	t.Helper()
	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdLoad, Path: "/a.mp4"})
	if !res.OK {
		t.Fatalf("seed load failed: %s", res.Reason)
	}
}

func TestExecute_Load(t *testing.T) {
	exec, store, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 10, "/b.mp4": 5})

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdLoad, Path: "/a.mp4"})
	if !res.OK {
		t.Fatalf("load failed: %s", res.Reason)
	}

	seg := store.GetByID(res.SegmentIDs[0])
	if seg == nil {
		t.Fatal("loaded segment not in store")
	}
	if seg.Start != 0 || seg.End != 10 {
		t.Errorf("segment range = [%v, %v], want [0, 10]", seg.Start, seg.End)
	}
	if !seg.Visible || seg.State != timeline.StateStopped || seg.Speed != timeline.DefaultSpeed {
		t.Errorf("segment defaults = %+v", seg)
	}

	// A second load appends at the current maximum end time.
	res = exec.Execute(context.Background(), script.Command{Kind: script.CmdLoad, Path: "/b.mp4"})
	if !res.OK {
		t.Fatalf("second load failed: %s", res.Reason)
	}
	second := store.GetByID(res.SegmentIDs[0])
	if second.Start != 10 || second.End != 15 {
		t.Errorf("second segment range = [%v, %v], want [10, 15]", second.Start, second.End)
	}
}

func TestExecute_LoadMissingFile(t *testing.T) {
	store := timeline.NewStore(nil)
	exec := New(store, &fakeOracle{}, fakeFiles{missing: map[string]bool{"/gone.mp4": true}}, nil)

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdLoad, Path: "/gone.mp4"})
	if res.OK {
		t.Fatal("load of missing file should fail")
	}
	if store.Len() != 0 {
		t.Errorf("failed load created %d segments", store.Len())
	}
}

func TestExecute_LoadFallbackDuration(t *testing.T) {
	defer func(w, p time.Duration) { durationWait, durationPollTick = w, p }(durationWait, durationPollTick)
	durationWait = 50 * time.Millisecond
	durationPollTick = 5 * time.Millisecond

	exec, store, _ := newTestExecutor(t, nil)

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdLoad, Path: "/a.mp4"})
	if !res.OK {
		t.Fatalf("load failed: %s", res.Reason)
	}

	seg := store.GetByID(res.SegmentIDs[0])
	if seg.End-seg.Start != FallbackDuration {
		t.Errorf("fallback duration = %v, want %v", seg.End-seg.Start, FallbackDuration)
	}
}

func TestExecute_LoadWaitsForAsyncDuration(t *testing.T) {
	defer func(w, p time.Duration) { durationWait, durationPollTick = w, p }(durationWait, durationPollTick)
	durationWait = 500 * time.Millisecond
	durationPollTick = 5 * time.Millisecond

	exec, store, oracle := newTestExecutor(t, nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		oracle.set("/a.mp4", 42)
	}()

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdLoad, Path: "/a.mp4"})
	if !res.OK {
		t.Fatalf("load failed: %s", res.Reason)
	}
	seg := store.GetByID(res.SegmentIDs[0])
	if seg.End-seg.Start != 42 {
		t.Errorf("duration = %v, want 42", seg.End-seg.Start)
	}
}

func TestExecute_LoadCancelledUsesFallback(t *testing.T) {
	defer func(w, p time.Duration) { durationWait, durationPollTick = w, p }(durationWait, durationPollTick)
	durationWait = 10 * time.Second
	durationPollTick = 5 * time.Millisecond

	exec, store, _ := newTestExecutor(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res := exec.Execute(ctx, script.Command{Kind: script.CmdLoad, Path: "/a.mp4"})
	if !res.OK {
		t.Fatalf("cancelled load should still create the fallback segment: %s", res.Reason)
	}
	seg := store.GetByID(res.SegmentIDs[0])
	if seg == nil || seg.End-seg.Start != FallbackDuration {
		t.Errorf("cancelled load left store inconsistent: %+v", seg)
	}
}

func TestExecute_Cut(t *testing.T) {
	exec, store, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 10})
	loadSegment(t, exec)

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdCut, At: 5})
	if !res.OK {
		t.Fatalf("cut failed: %s", res.Reason)
	}
	if len(res.SegmentIDs) != 2 {
		t.Fatalf("cut produced %d ids, want 2", len(res.SegmentIDs))
	}

	segs := store.Segments()
	if len(segs) != 2 {
		t.Fatalf("store has %d segments, want 2", len(segs))
	}
	if segs[0].Start != 0 || segs[0].End != 5 || segs[1].Start != 5 || segs[1].End != 10 {
		t.Errorf("split ranges = [%v,%v] [%v,%v]", segs[0].Start, segs[0].End, segs[1].Start, segs[1].End)
	}
	if segs[0].FilePath != "/a.mp4" || segs[1].FilePath != "/a.mp4" {
		t.Errorf("split files = %q %q", segs[0].FilePath, segs[1].FilePath)
	}
	if store.GetByID(1) != nil && store.GetByID(1).End == 10 {
		t.Error("original segment still present after cut")
	}
	for _, seg := range segs {
		if seg.State != timeline.StateStopped {
			t.Errorf("split segment state = %v, want stopped", seg.State)
		}
	}
}

func TestExecute_CutNearBoundary(t *testing.T) {
	exec, store, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 10})
	loadSegment(t, exec)

	for _, at := range []float64{0.05, 9.95} {
		res := exec.Execute(context.Background(), script.Command{Kind: script.CmdCut, At: at})
		if res.OK {
			t.Errorf("cut at %v should fail inside the guard band", at)
		}
	}

	segs := store.Segments()
	if len(segs) != 1 || segs[0].Start != 0 || segs[0].End != 10 {
		t.Errorf("store changed by rejected cut: %+v", segs)
	}
}

func TestExecute_CutNoSegment(t *testing.T) {
	exec, _, _ := newTestExecutor(t, nil)
	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdCut, At: 5})
	if res.OK {
		t.Fatal("cut on empty store should fail")
	}
}

func TestExecute_HideShowRoundTrip(t *testing.T) {
	exec, store, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 10})
	loadSegment(t, exec)

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdHide, Start: 2, End: 4})
	if !res.OK {
		t.Fatalf("hide failed: %s", res.Reason)
	}
	seg := store.Segments()[0]
	if seg.Visible || seg.State != timeline.StateHidden {
		t.Errorf("after hide: visible=%v state=%v", seg.Visible, seg.State)
	}

	res = exec.Execute(context.Background(), script.Command{Kind: script.CmdShow, Start: 2, End: 4})
	if !res.OK {
		t.Fatalf("show failed: %s", res.Reason)
	}
	seg = store.Segments()[0]
	if !seg.Visible || seg.State != timeline.StateStopped {
		t.Errorf("after show: visible=%v state=%v", seg.Visible, seg.State)
	}
	if seg.Start != 0 || seg.End != 10 {
		t.Errorf("time bounds changed: [%v, %v]", seg.Start, seg.End)
	}
}

func TestExecute_HideNoOverlap(t *testing.T) {
	exec, _, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 10})
	loadSegment(t, exec)

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdHide, Start: 50, End: 60})
	if res.OK {
		t.Fatal("hide with no overlapping segment should fail")
	}
}

func TestExecute_Delete(t *testing.T) {
	exec, store, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 10})
	loadSegment(t, exec)
	exec.Execute(context.Background(), script.Command{Kind: script.CmdCut, At: 5})

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdDelete, Start: 0, End: 5})
	if !res.OK {
		t.Fatalf("delete failed: %s", res.Reason)
	}
	segs := store.Segments()
	if len(segs) != 1 || segs[0].Start != 5 {
		t.Errorf("store after delete = %+v", segs)
	}
}

func TestExecute_Merge(t *testing.T) {
	exec, store, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 10})
	loadSegment(t, exec)
	exec.Execute(context.Background(), script.Command{Kind: script.CmdCut, At: 5})

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdMerge, Start: 0, End: 10})
	if !res.OK {
		t.Fatalf("merge failed: %s", res.Reason)
	}

	segs := store.Segments()
	if len(segs) != 1 {
		t.Fatalf("store has %d segments after merge, want 1", len(segs))
	}
	if segs[0].Start != 0 || segs[0].End != 10 {
		t.Errorf("merged range = [%v, %v], want [0, 10]", segs[0].Start, segs[0].End)
	}
	if !segs[0].Visible {
		t.Error("merge of visible segments should stay visible")
	}
}

func TestExecute_MergeDifferentFilesFails(t *testing.T) {
	exec, store, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 5, "/b.mp4": 5})
	exec.Execute(context.Background(), script.Command{Kind: script.CmdLoad, Path: "/a.mp4"})
	exec.Execute(context.Background(), script.Command{Kind: script.CmdLoad, Path: "/b.mp4"})

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdMerge, Start: 0, End: 10})
	if res.OK {
		t.Fatal("merge across different files should fail")
	}
	if store.Len() != 2 {
		t.Errorf("failed merge removed segments: %d left", store.Len())
	}
}

func TestExecute_MergeSingleSegmentFails(t *testing.T) {
	exec, _, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 10})
	loadSegment(t, exec)

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdMerge, Start: 0, End: 10})
	if res.OK {
		t.Fatal("merge of a single segment should fail")
	}
}

func TestExecute_MergeHiddenInputHidesResult(t *testing.T) {
	exec, store, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 10})
	loadSegment(t, exec)
	exec.Execute(context.Background(), script.Command{Kind: script.CmdCut, At: 5})
	exec.Execute(context.Background(), script.Command{Kind: script.CmdHide, Start: 0, End: 5})

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdMerge, Start: 0, End: 10})
	if !res.OK {
		t.Fatalf("merge failed: %s", res.Reason)
	}
	if store.Segments()[0].Visible {
		t.Error("merge with a hidden input should produce a hidden segment")
	}
}

func TestExecute_Speed(t *testing.T) {
	exec, store, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 10})
	loadSegment(t, exec)

	res := exec.Execute(context.Background(), script.Command{Kind: script.CmdSpeed, Rate: 2, Start: 0, End: 10})
	if !res.OK {
		t.Fatalf("speed failed: %s", res.Reason)
	}
	if store.Segments()[0].Speed != 2 {
		t.Errorf("speed = %v, want 2", store.Segments()[0].Speed)
	}
}

func TestExecute_SpeedOutOfRange(t *testing.T) {
	exec, store, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 10})
	loadSegment(t, exec)

	for _, rate := range []float64{0.05, 11, 0, -1} {
		res := exec.Execute(context.Background(), script.Command{Kind: script.CmdSpeed, Rate: rate, Start: 0, End: 10})
		if res.OK {
			t.Errorf("speed rate %v should be rejected", rate)
		}
	}
	if store.Segments()[0].Speed != timeline.DefaultSpeed {
		t.Errorf("rejected speed changed the segment: %v", store.Segments()[0].Speed)
	}
}

func TestExecuteAll_BatchContinuesPastFailures(t *testing.T) {
	exec, store, _ := newTestExecutor(t, map[string]float64{"/a.mp4": 10})

	cmds := []script.Command{
		{Kind: script.CmdLoad, Path: "/a.mp4", Line: 1},
		{Kind: script.CmdCut, At: 500, Line: 2}, // no segment there
		{Kind: script.CmdCut, At: 5, Line: 3},
	}

	report := exec.ExecuteAll(context.Background(), cmds)
	if report.Total != 3 || report.Succeeded != 2 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(report.Results))
	}
	if report.Results[1].OK {
		t.Error("second command should have failed")
	}
	if store.Len() != 2 {
		t.Errorf("store has %d segments, want 2 (split applied after failure)", store.Len())
	}
}
