// Package export renders the collection into human-readable side formats
// and guards the names and directories they are written to.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
)

const DefaultFrameRate = 30.0

// BuildCues lays out each path's points back to back from zero using their
// Duration.
func BuildCues(paths []dolly.Path) [][]Cue {
	out := make([][]Cue, len(paths))
	for i, p := range paths {
		offset := 0
		cues := make([]Cue, 0, len(p.Points))
		for j, pt := range p.Points {
			d := int(math.Round(pt.Duration * 1000))
			if d < 0 {
				d = 0
			}
			cues = append(cues, Cue{
				PathIndex: i,
				Index:     j,
				Name:      pt.Name,
				StartMs:   offset,
				EndMs:     offset + d,
				Speed:     pt.Speed,
				Zoom:      pt.Zoom,
			})
			offset += d
		}
		out[i] = cues
	}
	return out
}

// GenerateTimeline produces a cue sheet with HH:MM:SS:FF timecodes.
func GenerateTimeline(paths []dolly.Path, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = int(DefaultFrameRate)
	}

	lines := []string{
		fmt.Sprintf("TITLE: %s", title),
		fmt.Sprintf("FPS: %d", fps),
		"",
	}

	for i, cues := range BuildCues(paths) {
		total := 0
		if len(cues) > 0 {
			total = cues[len(cues)-1].EndMs
		}
		lines = append(lines, fmt.Sprintf("PATH %d  (%d points, %s)", i+1, len(cues), msToTimecode(total, fps)))
		for _, c := range cues {
			line := fmt.Sprintf("%03d  %s %s  speed %.1f  zoom %.1f",
				c.Index+1, msToTimecode(c.StartMs, fps), msToTimecode(c.EndMs, fps), c.Speed, c.Zoom)
			if c.Name != "" {
				line += "  " + SanitizeName(c.Name, 80, "")
			}
			lines = append(lines, line)
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func msToTimecode(ms int, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
