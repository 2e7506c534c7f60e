package script

import (
	"strings"
	"testing"
)

func TestParseHeader_Directives(t *testing.T) {
	text := strings.Join([]string{
		`PROJECT "My Edit"`,
		`RESOLUTION 1280x720`,
		`FRAMERATE 25`,
		`DEFAULT_FONT "Mono"`,
		`DEFAULT_FONT_SIZE 32`,
		`DEFAULT_TITLE_COLOR #ff0000`,
		`DEFAULT_SUBTITLE_COLOR #00FF00`,
		`DEFAULT_FREETEXT_COLOR #0000FF`,
		`DEFAULT_BACKGROUND_ALPHA 0.25`,
		`TITLE_POSITION_X 0.4`,
		`TITLE_POSITION_Y 0.2`,
		`SUBTITLE_POSITION_Y 0.9`,
		`TITLE_FONT_SIZE 72`,
		`SUBTITLE_FONT_SIZE 36`,
		`===`,
		`body line`,
	}, "\n")

	res := ParseHeader(text)
	cfg := res.Config

	if res.BodyStart != 15 {
		t.Errorf("BodyStart = %d, want 15", res.BodyStart)
	}
	if cfg.Name != "My Edit" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("Resolution = %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FrameRate != 25 {
		t.Errorf("FrameRate = %d", cfg.FrameRate)
	}
	if cfg.Font != "Mono" || cfg.FontSize != 32 {
		t.Errorf("Font = %q size %d", cfg.Font, cfg.FontSize)
	}
	if cfg.TitleColor != "#FF0000" || cfg.SubtitleColor != "#00FF00" || cfg.FreeTextColor != "#0000FF" {
		t.Errorf("colors = %q %q %q", cfg.TitleColor, cfg.SubtitleColor, cfg.FreeTextColor)
	}
	if cfg.BackgroundAlpha != 0.25 {
		t.Errorf("BackgroundAlpha = %v", cfg.BackgroundAlpha)
	}
	if cfg.TitleX != 0.4 || cfg.TitleY != 0.2 || cfg.SubtitleY != 0.9 {
		t.Errorf("positions = %v %v %v", cfg.TitleX, cfg.TitleY, cfg.SubtitleY)
	}
	if cfg.TitleFontSize != 72 || cfg.SubtitleFontSize != 36 {
		t.Errorf("title/subtitle sizes = %d %d", cfg.TitleFontSize, cfg.SubtitleFontSize)
	}
}

func TestParseHeader_CaseInsensitiveKeyword(t *testing.T) {
	res := ParseHeader("project \"lower\"\nframerate 24\n===\n")
	if res.Config.Name != "lower" {
		t.Errorf("Name = %q, want lower", res.Config.Name)
	}
	if res.Config.FrameRate != 24 {
		t.Errorf("FrameRate = %d, want 24", res.Config.FrameRate)
	}
}

func TestParseHeader_MalformedLinesSkipped(t *testing.T) {
	text := strings.Join([]string{
		`# a comment`,
		``,
		`RESOLUTION banana`,
		`FRAMERATE -10`,
		`DEFAULT_TITLE_COLOR red`,
		`DEFAULT_BACKGROUND_ALPHA 2.0`,
		`NO_SUCH_DIRECTIVE 42`,
		`PROJECT unquoted name`,
		`===`,
	}, "\n")

	cfg := ParseHeader(text).Config
	def := DefaultConfig()
	if cfg != def {
		t.Errorf("malformed directives changed config:\n got %+v\nwant %+v", cfg, def)
	}
}

func TestParseHeader_NoSeparator(t *testing.T) {
	res := ParseHeader("PROJECT \"Alone\"\nFRAMERATE 60")
	if res.BodyStart != 0 {
		t.Errorf("BodyStart = %d, want 0", res.BodyStart)
	}
	if res.Config.Name != "Alone" || res.Config.FrameRate != 60 {
		t.Errorf("config = %+v", res.Config)
	}
}

func TestParseHeader_SeparatorVariants(t *testing.T) {
	for _, sep := range []string{"===", "====", "==========", "  ===  "} {
		res := ParseHeader("PROJECT \"X\"\n" + sep + "\nbody")
		if res.BodyStart != 2 {
			t.Errorf("separator %q: BodyStart = %d, want 2", sep, res.BodyStart)
		}
	}
	// Two '=' is not a separator.
	if res := ParseHeader("PROJECT \"X\"\n==\nbody"); res.BodyStart != 0 {
		t.Errorf("'==' treated as separator, BodyStart = %d", res.BodyStart)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	cfg := ProjectConfig{
		Name:             "Round Trip",
		Width:            3840,
		Height:           2160,
		FrameRate:        60,
		Font:             "Serif",
		FontSize:         20,
		TitleColor:       "#112233",
		SubtitleColor:    "#445566",
		FreeTextColor:    "#778899",
		BackgroundAlpha:  0.75,
		TitleX:           0.25,
		TitleY:           0.33,
		SubtitleY:        0.8,
		TitleFontSize:    100,
		SubtitleFontSize: 50,
	}

	got := ParseHeader(GenerateHeader(cfg)).Config
	if got != cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestHeaderRoundTrip_OrderIndependent(t *testing.T) {
	// The generator emits canonical order regardless of input order;
	// semantic idempotence only requires parse(generate(parse(x)))
	// to equal parse(x).
	scrambled := "FRAMERATE 50\nPROJECT \"Scrambled\"\nRESOLUTION 640x480\n===\n"
	first := ParseHeader(scrambled).Config
	second := ParseHeader(GenerateHeader(first)).Config
	if first != second {
		t.Errorf("generated header re-parses differently:\n got %+v\nwant %+v", second, first)
	}
}
