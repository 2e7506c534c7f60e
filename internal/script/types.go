package script

import (
	"crypto/rand"
	"fmt"
)

// ProjectConfig holds the header directives of a script. It is a plain
// value object: every header re-parse replaces it wholesale.
type ProjectConfig struct {
	Name             string  `json:"name"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	FrameRate        int     `json:"frame_rate"`
	Font             string  `json:"font"`
	FontSize         int     `json:"font_size"`
	TitleColor       string  `json:"title_color"`
	SubtitleColor    string  `json:"subtitle_color"`
	FreeTextColor    string  `json:"free_text_color"`
	BackgroundAlpha  float64 `json:"background_alpha"`
	TitleX           float64 `json:"title_x"`
	TitleY           float64 `json:"title_y"`
	SubtitleY        float64 `json:"subtitle_y"`
	TitleFontSize    int     `json:"title_font_size"`
	SubtitleFontSize int     `json:"subtitle_font_size"`
}

// DefaultConfig returns the configuration used when the header names no
// directive for a field.
func DefaultConfig() ProjectConfig {
	return ProjectConfig{
		Name:             "Untitled",
		Width:            1920,
		Height:           1080,
		FrameRate:        30,
		Font:             "Sans",
		FontSize:         48,
		TitleColor:       "#FFFFFF",
		SubtitleColor:    "#FFFF00",
		FreeTextColor:    "#FFFFFF",
		BackgroundAlpha:  0.5,
		TitleX:           0.5,
		TitleY:           0.1,
		SubtitleY:        0.85,
		TitleFontSize:    64,
		SubtitleFontSize: 40,
	}
}

// SceneBlock is a time range carrying caption content. Blocks are
// rebuilt from scratch on every body re-parse; the id is fresh each
// time and only serves external add/remove bookkeeping.
type SceneBlock struct {
	ID       string         `json:"id"`
	Start    float64        `json:"start"`
	End      float64        `json:"end"`
	Line     int            `json:"line"`
	Content  string         `json:"content"`
	Title    string         `json:"title,omitempty"`
	Subtitle string         `json:"subtitle,omitempty"`
	FreeText []FreeTextItem `json:"free_text,omitempty"`
}

// FreeTextItem is a caption fragment inside a scene block. Consecutive
// non-blank lines merge into one item; a blank line starts the next.
type FreeTextItem struct {
	Text     string  `json:"text"`
	Line     int     `json:"line"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize int     `json:"font_size,omitempty"`
	Color    string  `json:"color,omitempty"`
}

// NewID generates a random block identifier.
func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
