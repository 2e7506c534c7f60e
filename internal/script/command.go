package script

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cutscript/cutscript-agent/internal/timecode"
)

// CommandKind tags an edit command line.
type CommandKind string

const (
	CmdLoad   CommandKind = "LOAD"
	CmdCut    CommandKind = "CUT"
	CmdHide   CommandKind = "HIDE"
	CmdShow   CommandKind = "SHOW"
	CmdDelete CommandKind = "DELETE"
	CmdMerge  CommandKind = "MERGE"
	CmdSpeed  CommandKind = "SPEED"
)

// Command is one parsed edit command. Only the fields relevant to the
// kind are set: Path for LOAD, At for CUT, Start/End for the range
// commands, Rate additionally for SPEED. Line is the 1-based source
// line for diagnostics. Commands are rebuilt on every re-parse and
// never mutated.
type Command struct {
	Kind  CommandKind `json:"kind"`
	Line  int         `json:"line"`
	Path  string      `json:"path,omitempty"`
	At    float64     `json:"at,omitempty"`
	Start float64     `json:"start,omitempty"`
	End   float64     `json:"end,omitempty"`
	Rate  float64     `json:"rate,omitempty"`
}

const tc = timecode.Pattern

// One grammar per command, matched per line. Keywords are
// case-insensitive and leading whitespace is allowed; a line matches at
// most one kind.
var (
	loadRe   = regexp.MustCompile(`(?i)^\s*LOAD\s+(\S.*?)\s*$`)
	cutRe    = regexp.MustCompile(`(?i)^\s*CUT\s+` + tc + `\s*$`)
	hideRe   = regexp.MustCompile(`(?i)^\s*HIDE\s+` + tc + `\s+` + tc + `\s*$`)
	showRe   = regexp.MustCompile(`(?i)^\s*SHOW\s+` + tc + `\s+` + tc + `\s*$`)
	deleteRe = regexp.MustCompile(`(?i)^\s*DELETE\s+` + tc + `\s+` + tc + `\s*$`)
	mergeRe  = regexp.MustCompile(`(?i)^\s*MERGE\s+` + tc + `\s+` + tc + `\s*$`)
	speedRe  = regexp.MustCompile(`(?i)^\s*SPEED\s+(\d+(?:\.\d+)?)\s+` + tc + `\s+` + tc + `\s*$`)
)

// ParseLine classifies a single line. The second return is false when
// the line is not a command; such lines may still be scene content.
func ParseLine(line string) (Command, bool) {
	if g := loadRe.FindStringSubmatch(line); g != nil {
		return Command{Kind: CmdLoad, Path: g[1]}, true
	}
	if g := cutRe.FindStringSubmatch(line); g != nil {
		at, err := timecode.FromGroups(g[1], g[2], g[3], g[4])
		if err != nil {
			return Command{}, false
		}
		return Command{Kind: CmdCut, At: at}, true
	}
	if kind, g := matchRange(line); g != nil {
		start, err1 := timecode.FromGroups(g[1], g[2], g[3], g[4])
		end, err2 := timecode.FromGroups(g[5], g[6], g[7], g[8])
		if err1 != nil || err2 != nil {
			return Command{}, false
		}
		return Command{Kind: kind, Start: start, End: end}, true
	}
	if g := speedRe.FindStringSubmatch(line); g != nil {
		rate, err := strconv.ParseFloat(g[1], 64)
		if err != nil {
			return Command{}, false
		}
		start, err1 := timecode.FromGroups(g[2], g[3], g[4], g[5])
		end, err2 := timecode.FromGroups(g[6], g[7], g[8], g[9])
		if err1 != nil || err2 != nil {
			return Command{}, false
		}
		return Command{Kind: CmdSpeed, Rate: rate, Start: start, End: end}, true
	}
	return Command{}, false
}

func matchRange(line string) (CommandKind, []string) {
	if g := hideRe.FindStringSubmatch(line); g != nil {
		return CmdHide, g
	}
	if g := showRe.FindStringSubmatch(line); g != nil {
		return CmdShow, g
	}
	if g := deleteRe.FindStringSubmatch(line); g != nil {
		return CmdDelete, g
	}
	if g := mergeRe.FindStringSubmatch(line); g != nil {
		return CmdMerge, g
	}
	return "", nil
}

// IsCommandLine reports whether a line parses as a command. The scene
// parser uses it to end a content region.
func IsCommandLine(line string) bool {
	_, ok := ParseLine(line)
	return ok
}

// ParseCommands extracts the ordered command list from body text.
// startLine is the 0-based document line of the first body line, so
// reported Line numbers are 1-based positions in the whole document.
func ParseCommands(body string, startLine int) []Command {
	var cmds []Command
	for i, line := range splitLines(body) {
		cmd, ok := ParseLine(line)
		if !ok {
			continue
		}
		cmd.Line = startLine + i + 1
		cmds = append(cmds, cmd)
	}
	return cmds
}

// GenerateCommand renders a command back to its line form, used when
// anchor-recorded ranges are inserted into the script text.
func GenerateCommand(cmd Command) string {
	switch cmd.Kind {
	case CmdLoad:
		return "LOAD " + cmd.Path
	case CmdCut:
		return "CUT " + timecode.Format(cmd.At)
	case CmdSpeed:
		return "SPEED " + strconv.FormatFloat(cmd.Rate, 'f', -1, 64) +
			" " + timecode.Format(cmd.Start) + " " + timecode.Format(cmd.End)
	default:
		return string(cmd.Kind) + " " + timecode.Format(cmd.Start) + " " + timecode.Format(cmd.End)
	}
}

// Serialize produces the stable per-command string used for content
// hashing. It contains every semantically meaningful field but not the
// source line, so editing captions around an unchanged command list
// does not trigger re-execution.
func Serialize(cmd Command) string {
	var b strings.Builder
	b.WriteString(string(cmd.Kind))
	switch cmd.Kind {
	case CmdLoad:
		b.WriteByte('|')
		b.WriteString(cmd.Path)
	case CmdCut:
		b.WriteByte('|')
		b.WriteString(timecode.Format(cmd.At))
	case CmdSpeed:
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(cmd.Rate, 'f', -1, 64))
		b.WriteByte('|')
		b.WriteString(timecode.Format(cmd.Start))
		b.WriteByte('|')
		b.WriteString(timecode.Format(cmd.End))
	default:
		b.WriteByte('|')
		b.WriteString(timecode.Format(cmd.Start))
		b.WriteByte('|')
		b.WriteString(timecode.Format(cmd.End))
	}
	return b.String()
}
