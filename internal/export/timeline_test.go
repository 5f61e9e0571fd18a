package export

import (
	"strings"
	"testing"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
)

func timelinePaths() []dolly.Path {
	p0 := dolly.Path{Index: 0, Points: []dolly.Point{dolly.DefaultPoint(0, 0), dolly.DefaultPoint(1, 0)}}
	p0.Points[0].Name = "Wide<shot>"
	p0.Points[1].Duration = 1.5
	p1 := dolly.NewPath(1)
	return []dolly.Path{p0, p1}
}

func TestBuildCues(t *testing.T) {
	cues := BuildCues(timelinePaths())
	if len(cues) != 2 {
		t.Fatalf("len(cues) = %d, want 2", len(cues))
	}
	if cues[0][1].StartMs != 2000 || cues[0][1].EndMs != 3500 {
		t.Errorf("second cue = %d..%d, want 2000..3500", cues[0][1].StartMs, cues[0][1].EndMs)
	}
	if cues[1][0].StartMs != 0 {
		t.Errorf("each path starts at zero, got %d", cues[1][0].StartMs)
	}
}

func TestGenerateTimeline(t *testing.T) {
	out := GenerateTimeline(timelinePaths(), "Flyover", 30)

	for _, want := range []string{
		"TITLE: Flyover",
		"FPS: 30",
		"PATH 1  (2 points, 00:00:03:15)",
		"001  00:00:00:00 00:00:02:00  speed 3.0  zoom 45.0  Wide_shot_",
		"002  00:00:02:00 00:00:03:15",
		"PATH 2  (1 points, 00:00:02:00)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("timeline missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateTimeline_DefaultFrameRate(t *testing.T) {
	out := GenerateTimeline(nil, "Empty", 0)
	if !strings.Contains(out, "FPS: 30") {
		t.Fatalf("expected default fps, got %q", out)
	}
}

func TestMsToTimecode(t *testing.T) {
	tests := []struct {
		name string
		ms   int
		fps  int
		want string
	}{
		{name: "zero", ms: 0, fps: 30, want: "00:00:00:00"},
		{name: "one second", ms: 1000, fps: 30, want: "00:00:01:00"},
		{name: "fractional second", ms: 500, fps: 30, want: "00:00:00:15"},
		{name: "one minute", ms: 60000, fps: 30, want: "00:01:00:00"},
		{name: "one hour", ms: 3600000, fps: 30, want: "01:00:00:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := msToTimecode(tc.ms, tc.fps)
			if got != tc.want {
				t.Fatalf("msToTimecode(%d, %d) = %q, want %q", tc.ms, tc.fps, got, tc.want)
			}
		})
	}
}
