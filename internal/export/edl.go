// Package export renders a compiled timeline as a CMX-3600 EDL. Only
// visible segments are emitted; hidden ones are skipped and speed
// multipliers shorten or stretch the record-side duration.
package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/cutscript/cutscript-agent/internal/timeline"
)

func GenerateEDL(segments []*timeline.Segment, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", SanitizeName(title, 70))}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	recordOffset := 0.0
	event := 0
	for _, seg := range segments {
		if !seg.Visible {
			continue
		}
		event++

		speed := seg.Speed
		if speed <= 0 {
			speed = timeline.DefaultSpeed
		}
		recordDur := seg.Duration() / speed

		srcIn := secondsToTimecode(seg.Start, fps)
		srcOut := secondsToTimecode(seg.End, fps)
		recIn := secondsToTimecode(recordOffset, fps)
		recOut := secondsToTimecode(recordOffset+recordDur, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", event, "AX", "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", clipName(seg)),
			fmt.Sprintf("* MEDIA PATH:  %s", seg.FilePath),
		)
		if speed != timeline.DefaultSpeed {
			lines = append(lines, fmt.Sprintf("M2   AX             %06.1f                %s", speed*float64(fps), srcIn))
		}

		recordOffset += recordDur
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func clipName(seg *timeline.Segment) string {
	base := filepath.Base(seg.FilePath)
	return SanitizeName(fmt.Sprintf("%s #%d", base, seg.ID), 32)
}

func secondsToTimecode(seconds float64, fps int) string {
	totalFrames := int(math.Round(seconds * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}
