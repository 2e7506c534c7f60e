// Package session orchestrates the incremental compilation of a script
// document: header/body split, scene and command parsing, command-list
// hashing, and conditional re-execution against the segment store.
//
// A Session is the single writer for its store. All public methods
// serialize on an internal mutex; snapshots returned to readers are
// copies.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cutscript/cutscript-agent/internal/anchor"
	"github.com/cutscript/cutscript-agent/internal/executor"
	"github.com/cutscript/cutscript-agent/internal/script"
	"github.com/cutscript/cutscript-agent/internal/timeline"
)

// DefaultDebounce is how long a text change may sit buffered before a
// timer flush compiles it. Tests call Flush directly instead of
// waiting.
const DefaultDebounce = 500 * time.Millisecond

// SceneSink receives the scene-block collection replacement after each
// compile. Calls happen synchronously from the compiling goroutine.
type SceneSink interface {
	SceneAdded(block *script.SceneBlock)
	SceneRemoved(id string)
}

// NopSceneSink discards scene events.
type NopSceneSink struct{}

func (NopSceneSink) SceneAdded(*script.SceneBlock) {}
func (NopSceneSink) SceneRemoved(string)           {}

// Session owns the current text of one document and its derived
// models.
type Session struct {
	mu sync.Mutex

	text     string
	pending  *string
	debounce time.Duration
	timer    *time.Timer

	cfg       script.ProjectConfig
	bodyStart int
	commands  []script.Command
	lastHash  string
	scenes    []*script.SceneBlock
	report    executor.Report

	store    *timeline.Store
	exec     *executor.Executor
	sink     SceneSink
	recorder *anchor.Recorder
	logger   *slog.Logger

	// compiling marks an in-flight compile so a sink callback writing
	// back into the text is buffered instead of recursing.
	compiling bool
}

func New(store *timeline.Store, exec *executor.Executor, sink SceneSink, logger *slog.Logger) *Session {
	if sink == nil {
		sink = NopSceneSink{}
	}
	return &Session{
		debounce: DefaultDebounce,
		cfg:      script.DefaultConfig(),
		store:    store,
		exec:     exec,
		sink:     sink,
		recorder: anchor.NewRecorder(),
		logger:   logger,
	}
}

// SetDebounce overrides the flush delay. A zero or negative value
// makes SetText compile synchronously.
func (s *Session) SetDebounce(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounce = d
}

// SetText buffers a text change and arms the flush timer, coalescing
// rapid edits into one compile.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	if s.debounce <= 0 {
		s.mu.Unlock()
		s.compileText(context.Background(), text)
		return
	}
	s.pending = &text
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() { s.Flush(context.Background()) })
	s.mu.Unlock()
}

// Flush compiles any buffered text immediately. It is a no-op when
// nothing is pending.
func (s *Session) Flush(ctx context.Context) {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return
	}
	text := *s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.compileText(ctx, text)
}

// Compile sets the text and compiles it in one synchronous step,
// bypassing the debounce.
func (s *Session) Compile(ctx context.Context, text string) {
	s.mu.Lock()
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.compileText(ctx, text)
}

// compileText compiles text and notifies the scene sink. Sink callbacks
// run outside the session mutex so a consumer may call back into
// SetText; such a write-back is buffered while compiling is set and
// picked up here before returning.
func (s *Session) compileText(ctx context.Context, text string) {
	s.mu.Lock()
	if s.compiling {
		s.pending = &text
		s.mu.Unlock()
		return
	}
	s.compiling = true
	s.mu.Unlock()

	for {
		removed, added := s.applyText(ctx, text)

		for _, id := range removed {
			s.sink.SceneRemoved(id)
		}
		for _, block := range added {
			s.sink.SceneAdded(block)
		}

		s.mu.Lock()
		if s.pending == nil {
			s.compiling = false
			s.mu.Unlock()
			return
		}
		text = *s.pending
		s.pending = nil
		s.mu.Unlock()
	}
}

// applyText updates all derived state under the lock and reports the
// scene delta for the caller to announce.
func (s *Session) applyText(ctx context.Context, text string) (removed []string, added []*script.SceneBlock) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.text = text

	header := script.ParseHeader(text)
	s.cfg = header.Config
	s.bodyStart = header.BodyStart

	body := bodyText(text, header.BodyStart)

	commands := script.ParseCommands(body, header.BodyStart)
	hash := hashCommands(commands)
	s.commands = commands

	if hash != s.lastHash {
		s.store.Clear()
		s.report = s.exec.ExecuteAll(ctx, commands)
		s.lastHash = hash
		if s.logger != nil {
			s.logger.Info("commands executed",
				"total", s.report.Total,
				"succeeded", s.report.Succeeded,
				"failed", s.report.Failed)
		}
	}

	// Scenes are replaced wholesale on every compile, independent of
	// the command hash.
	for _, old := range s.scenes {
		removed = append(removed, old.ID)
	}
	s.scenes = script.ParseScenes(body, header.BodyStart)
	added = append(added, s.scenes...)
	return removed, added
}

// bodyText slices the document below the header separator. A body
// start of 0 means the document had no separator: everything is header
// and the body is empty.
func bodyText(text string, bodyStart int) string {
	if bodyStart == 0 {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if bodyStart >= len(lines) {
		return ""
	}
	return strings.Join(lines[bodyStart:], "\n")
}

func hashCommands(cmds []script.Command) string {
	h := sha256.New()
	for _, cmd := range cmds {
		h.Write([]byte(script.Serialize(cmd)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Text returns the current document text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Config returns the current project configuration.
func (s *Session) Config() script.ProjectConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Scenes returns the current scene blocks in document order.
func (s *Session) Scenes() []*script.SceneBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*script.SceneBlock, len(s.scenes))
	copy(out, s.scenes)
	return out
}

// Commands returns the most recently parsed command list.
func (s *Session) Commands() []script.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]script.Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// Report returns the most recent execution report.
func (s *Session) Report() executor.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Segments returns a snapshot of the compiled timeline, taken under
// the session lock so it never observes a half-applied batch.
func (s *Session) Segments() []*timeline.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Segments()
}
