package session

import (
	"fmt"

	"github.com/cutscript/cutscript-agent/internal/anchor"
	"github.com/cutscript/cutscript-agent/internal/script"
)

// MarkResult reports the recorder state after a trigger.
type MarkResult struct {
	Recording bool         `json:"recording"`
	Pivot     float64      `json:"pivot,omitempty"`
	Range     anchor.Range `json:"range,omitempty"`
	Confirmed bool         `json:"confirmed"`
	Inserted  string       `json:"inserted,omitempty"`
}

// Mark feeds one anchor trigger at the given playback position. The
// first trigger captures the pivot; the second confirms the range,
// renders it as a command line of the given kind and inserts it into
// the document text at cursor, then recompiles. Kind must be one of
// the range commands (HIDE, SHOW, DELETE, MERGE).
func (s *Session) Mark(kind script.CommandKind, position float64, cursor int) (MarkResult, error) {
	switch kind {
	case script.CmdHide, script.CmdShow, script.CmdDelete, script.CmdMerge:
	default:
		return MarkResult{}, fmt.Errorf("kind %q cannot be anchor-recorded", kind)
	}

	s.mu.Lock()
	rng, confirmed := s.recorder.Trigger(position)
	if !confirmed {
		pivot := s.recorder.Pivot()
		s.mu.Unlock()
		return MarkResult{Recording: true, Pivot: pivot}, nil
	}

	line := script.GenerateCommand(script.Command{Kind: kind, Start: rng.Start, End: rng.End})
	// Insert into any text still sitting in the debounce buffer, not
	// the last compiled text, so marks confirmed within one debounce
	// window stack instead of overwriting each other.
	base := s.text
	if s.pending != nil {
		base = *s.pending
	}
	text := insertLine(base, cursor, line)
	s.mu.Unlock()

	// The write-back goes through the normal compile path, subject to
	// the re-entrancy guard like any other text change.
	s.SetText(text)

	return MarkResult{Range: rng, Confirmed: true, Inserted: line}, nil
}

// MarkPreview returns the range the current position would confirm,
// without triggering.
func (s *Session) MarkPreview(position float64) (anchor.Range, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder.Preview(position)
}

// MarkReset abandons a captured pivot.
func (s *Session) MarkReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder.Reset()
}

// insertLine places a command line at the byte offset, padding with
// newlines so the command sits on its own line. Offsets outside the
// text are clamped.
func insertLine(text string, offset int, line string) string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}

	prefix := text[:offset]
	suffix := text[offset:]

	if prefix != "" && prefix[len(prefix)-1] != '\n' {
		line = "\n" + line
	}
	if suffix == "" || suffix[0] != '\n' {
		line = line + "\n"
	}
	return prefix + line + suffix
}
