package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The header ends at the first line of three or more '=' characters.
// Without a separator the whole document is header and the body is
// empty.
var headerSeparatorRe = regexp.MustCompile(`^\s*={3,}\s*$`)

var (
	quotedArgRe  = regexp.MustCompile(`^"(.*)"$`)
	resolutionRe = regexp.MustCompile(`^(\d+)x(\d+)$`)
	colorRe      = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// HeaderResult is the outcome of splitting a document. BodyStart is the
// 0-based line index of the first body line; it equals 0 when the
// document has no separator (empty body by convention).
type HeaderResult struct {
	Config    ProjectConfig
	BodyStart int
}

// ParseHeader scans directive lines up to the separator. Malformed or
// unrecognized directives are skipped silently; blank lines and lines
// starting with '#' are comments.
func ParseHeader(text string) HeaderResult {
	cfg := DefaultConfig()
	lines := splitLines(text)

	sep := -1
	for i, line := range lines {
		if headerSeparatorRe.MatchString(line) {
			sep = i
			break
		}
	}

	end := len(lines)
	bodyStart := 0
	if sep >= 0 {
		end = sep
		bodyStart = sep + 1
	}

	for i := 0; i < end; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		applyDirective(&cfg, line)
	}

	return HeaderResult{Config: cfg, BodyStart: bodyStart}
}

func applyDirective(cfg *ProjectConfig, line string) {
	keyword, arg, ok := strings.Cut(line, " ")
	if !ok {
		return
	}
	arg = strings.TrimSpace(arg)

	switch strings.ToUpper(keyword) {
	case "PROJECT":
		if g := quotedArgRe.FindStringSubmatch(arg); g != nil {
			cfg.Name = g[1]
		}
	case "RESOLUTION":
		if g := resolutionRe.FindStringSubmatch(arg); g != nil {
			w, _ := strconv.Atoi(g[1])
			h, _ := strconv.Atoi(g[2])
			if w > 0 && h > 0 {
				cfg.Width, cfg.Height = w, h
			}
		}
	case "FRAMERATE":
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			cfg.FrameRate = n
		}
	case "DEFAULT_FONT":
		if g := quotedArgRe.FindStringSubmatch(arg); g != nil {
			cfg.Font = g[1]
		}
	case "DEFAULT_FONT_SIZE":
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			cfg.FontSize = n
		}
	case "DEFAULT_TITLE_COLOR":
		if colorRe.MatchString(arg) {
			cfg.TitleColor = strings.ToUpper(arg)
		}
	case "DEFAULT_SUBTITLE_COLOR":
		if colorRe.MatchString(arg) {
			cfg.SubtitleColor = strings.ToUpper(arg)
		}
	case "DEFAULT_FREETEXT_COLOR":
		if colorRe.MatchString(arg) {
			cfg.FreeTextColor = strings.ToUpper(arg)
		}
	case "DEFAULT_BACKGROUND_ALPHA":
		if v, err := strconv.ParseFloat(arg, 64); err == nil && v >= 0 && v <= 1 {
			cfg.BackgroundAlpha = v
		}
	case "TITLE_POSITION_X":
		if v, err := strconv.ParseFloat(arg, 64); err == nil && v >= 0 && v <= 1 {
			cfg.TitleX = v
		}
	case "TITLE_POSITION_Y":
		if v, err := strconv.ParseFloat(arg, 64); err == nil && v >= 0 && v <= 1 {
			cfg.TitleY = v
		}
	case "SUBTITLE_POSITION_Y":
		if v, err := strconv.ParseFloat(arg, 64); err == nil && v >= 0 && v <= 1 {
			cfg.SubtitleY = v
		}
	case "TITLE_FONT_SIZE":
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			cfg.TitleFontSize = n
		}
	case "SUBTITLE_FONT_SIZE":
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			cfg.SubtitleFontSize = n
		}
	}
}

// GenerateHeader renders a configuration as directive lines followed by
// the separator, in a fixed canonical order. Re-parsing the output
// yields a field-wise equal configuration, though the byte layout of
// the input header is not preserved.
func GenerateHeader(cfg ProjectConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PROJECT %q\n", cfg.Name)
	fmt.Fprintf(&b, "RESOLUTION %dx%d\n", cfg.Width, cfg.Height)
	fmt.Fprintf(&b, "FRAMERATE %d\n", cfg.FrameRate)
	fmt.Fprintf(&b, "DEFAULT_FONT %q\n", cfg.Font)
	fmt.Fprintf(&b, "DEFAULT_FONT_SIZE %d\n", cfg.FontSize)
	fmt.Fprintf(&b, "DEFAULT_TITLE_COLOR %s\n", cfg.TitleColor)
	fmt.Fprintf(&b, "DEFAULT_SUBTITLE_COLOR %s\n", cfg.SubtitleColor)
	fmt.Fprintf(&b, "DEFAULT_FREETEXT_COLOR %s\n", cfg.FreeTextColor)
	fmt.Fprintf(&b, "DEFAULT_BACKGROUND_ALPHA %s\n", formatFloat(cfg.BackgroundAlpha))
	fmt.Fprintf(&b, "TITLE_POSITION_X %s\n", formatFloat(cfg.TitleX))
	fmt.Fprintf(&b, "TITLE_POSITION_Y %s\n", formatFloat(cfg.TitleY))
	fmt.Fprintf(&b, "SUBTITLE_POSITION_Y %s\n", formatFloat(cfg.SubtitleY))
	fmt.Fprintf(&b, "TITLE_FONT_SIZE %d\n", cfg.TitleFontSize)
	fmt.Fprintf(&b, "SUBTITLE_FONT_SIZE %d\n", cfg.SubtitleFontSize)
	b.WriteString("===\n")
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// splitLines splits on \n after normalizing \r\n line endings.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
