// Package timecode converts between HH:MM:SS.mmm text and seconds.
// Every parser and generator in the script compiler goes through it,
// so the format is strictly fixed-width ASCII with no locale variance.
package timecode

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Pattern is the unanchored HH:MM:SS.mmm group, exported so line
// grammars can embed it in their own expressions.
const Pattern = `(\d{2,}):(\d{2}):(\d{2})\.(\d{3})`

var re = regexp.MustCompile(`^` + Pattern + `$`)

// Format renders seconds as zero-padded HH:MM:SS.mmm. Negative inputs
// are clamped to zero; the script format has no negative times.
func Format(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int64(math.Round(seconds * 1000))
	ms := totalMs % 1000
	totalSec := totalMs / 1000
	s := totalSec % 60
	totalMin := totalSec / 60
	m := totalMin % 60
	h := totalMin / 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// Parse decodes an HH:MM:SS.mmm string into seconds.
func Parse(s string) (float64, error) {
	groups := re.FindStringSubmatch(s)
	if groups == nil {
		return 0, fmt.Errorf("invalid timecode %q", s)
	}
	return FromGroups(groups[1], groups[2], groups[3], groups[4])
}

// FromGroups combines already-captured digit groups into seconds. Line
// grammars that embed Pattern use this instead of re-parsing.
func FromGroups(hours, minutes, seconds, millis string) (float64, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}
	if m > 59 || s > 59 {
		return 0, fmt.Errorf("timecode field out of range: %02d:%02d", m, s)
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}
