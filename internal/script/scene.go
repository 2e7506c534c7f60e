package script

import (
	"regexp"
	"strings"

	"github.com/cutscript/cutscript-agent/internal/timecode"
)

// Scene separator: 3+ dashes, a [start -> end] time range, 3+ dashes.
// Surrounding whitespace is allowed; the whole line must match.
var sceneSeparatorRe = regexp.MustCompile(
	`^\s*-{3,}\s*\[\s*` + timecode.Pattern + `\s*->\s*` + timecode.Pattern + `\s*\]\s*-{3,}\s*$`)

// Default free-text placement: item i sits at y = 0.3 + i*0.15 unless
// the item carries an explicit position.
const (
	freeTextBaseY = 0.3
	freeTextStepY = 0.15
	freeTextX     = 0.5
)

// ParseScenes extracts scene blocks from body text. startLine is the
// 0-based document line of the first body line; block Line numbers are
// 1-based document positions of their separator.
//
// Content after a separator, up to the next separator or the first
// command line, belongs to the block. `# ` sets the title (first
// wins), `> ` sets or extends the subtitle, other non-blank lines
// accumulate into free-text items split at blank lines. An end time
// not exceeding the start is accepted as written; callers that need a
// positive duration must check for themselves.
func ParseScenes(body string, startLine int) []*SceneBlock {
	lines := splitLines(body)

	var blocks []*SceneBlock
	var current *SceneBlock
	var content []string
	contentOpen := false

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.Join(content, "\n")
		classifyContent(current, content)
		blocks = append(blocks, current)
		current = nil
		content = nil
	}

	for i, line := range lines {
		if g := sceneSeparatorRe.FindStringSubmatch(line); g != nil {
			flush()
			start, err1 := timecode.FromGroups(g[1], g[2], g[3], g[4])
			end, err2 := timecode.FromGroups(g[5], g[6], g[7], g[8])
			if err1 != nil || err2 != nil {
				continue
			}
			current = &SceneBlock{
				ID:    NewID(),
				Start: start,
				End:   end,
				Line:  startLine + i + 1,
			}
			contentOpen = true
			continue
		}
		if current == nil || !contentOpen {
			continue
		}
		if IsCommandLine(line) {
			contentOpen = false
			continue
		}
		content = append(content, line)
	}
	flush()

	return blocks
}

// classifyContent fills title, subtitle and free-text items from the
// captured content lines. The raw lines stay in Content untouched.
func classifyContent(block *SceneBlock, lines []string) {
	var itemLines []string
	var itemStart int

	flushItem := func() {
		if len(itemLines) == 0 {
			return
		}
		i := len(block.FreeText)
		block.FreeText = append(block.FreeText, FreeTextItem{
			Text: strings.Join(itemLines, "\n"),
			Line: itemStart,
			X:    freeTextX,
			Y:    freeTextBaseY + float64(i)*freeTextStepY,
		})
		itemLines = nil
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flushItem()
		case strings.HasPrefix(line, "# ") && block.Title == "":
			block.Title = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "> "):
			text := strings.TrimSpace(line[2:])
			if block.Subtitle == "" {
				block.Subtitle = text
			} else {
				block.Subtitle += "\n" + text
			}
		default:
			// A later '#' line is demoted to free text, not a
			// second title.
			if len(itemLines) == 0 {
				itemStart = block.Line + i + 1
			}
			itemLines = append(itemLines, line)
		}
	}
	flushItem()
}

// GenerateSceneText renders a block's separator plus its title and
// subtitle lines. Free-text items are intentionally not round-tripped;
// the generator exists to synthesize captioned ranges, not to reprint
// arbitrary prose.
func GenerateSceneText(block *SceneBlock) string {
	var b strings.Builder
	b.WriteString("--- [")
	b.WriteString(timecode.Format(block.Start))
	b.WriteString(" -> ")
	b.WriteString(timecode.Format(block.End))
	b.WriteString("] ---\n")
	if block.Title != "" {
		b.WriteString("# ")
		b.WriteString(block.Title)
		b.WriteByte('\n')
	}
	if block.Subtitle != "" {
		for _, line := range strings.Split(block.Subtitle, "\n") {
			b.WriteString("> ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
