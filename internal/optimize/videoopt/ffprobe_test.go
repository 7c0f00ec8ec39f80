package videoopt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"clop/internal/optimize"
	"clop/internal/procrunner"
)

const probeJSON = `{
  "format": {"duration": "12.480000"},
  "streams": [
    {"codec_type": "video", "width": 1920, "height": 1080, "avg_frame_rate": "30000/1001", "r_frame_rate": "30000/1001"},
    {"codec_type": "audio"}
  ]
}`

func TestParseProbeOutput(t *testing.T) {
	info, err := parseProbeOutput(probeJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if info.DurationSeconds != 12.48 {
		t.Errorf("duration %v", info.DurationSeconds)
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Errorf("dimensions %dx%d", info.Width, info.Height)
	}
	if !info.HasAudio {
		t.Error("audio stream missed")
	}
	if info.FrameRate < 29.9 || info.FrameRate > 30.0 {
		t.Errorf("frame rate %v", info.FrameRate)
	}
}

func TestParseProbeOutputRejectsMissingDuration(t *testing.T) {
	_, err := parseProbeOutput(`{"format": {}, "streams": []}`)
	if !errors.Is(err, optimize.ErrInvalidInput) {
		t.Fatalf("expected invalid-input error, got %v", err)
	}
}

func TestParseProbeOutputRejectsGarbage(t *testing.T) {
	if _, err := parseProbeOutput("not json"); !errors.Is(err, optimize.ErrInvalidInput) {
		t.Fatalf("expected invalid-input error, got %v", err)
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"25/1", 25},
		{"30000/1001", 30000.0 / 1001.0},
		{"24", 24},
		{"0/0", 0},
		{"", 0},
		{"x/y", 0},
		{"10/0", 0},
	}
	for _, tc := range cases {
		if got := parseFrameRate(tc.raw); got != tc.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestProbeRunsFFprobe(t *testing.T) {
	script := &procrunner.Script{
		Handler: func(_ context.Context, cmd procrunner.Command) (procrunner.Result, error) {
			return procrunner.Result{Stdout: probeJSON}, nil
		},
	}

	info, err := Probe(context.Background(), script, "ffprobe", "/media/clip.mp4")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.DurationSeconds != 12.48 {
		t.Errorf("duration %v", info.DurationSeconds)
	}

	call := script.Calls()[0]
	if call.Path != "ffprobe" {
		t.Errorf("path %q", call.Path)
	}
	if call.Args[len(call.Args)-1] != "/media/clip.mp4" {
		t.Errorf("args %v", call.Args)
	}
	joined := strings.Join(call.Args, " ")
	for _, want := range []string{"-print_format json", "-show_format", "-show_streams"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %v", want, call.Args)
		}
	}
}

func TestProbeFailureSurfacesStderr(t *testing.T) {
	script := &procrunner.Script{
		Handler: func(_ context.Context, cmd procrunner.Command) (procrunner.Result, error) {
			return procrunner.Result{ExitCode: 1, Stderr: "moov atom not found"}, nil
		},
	}
	_, err := Probe(context.Background(), script, "ffprobe", "/media/broken.mp4")
	if !errors.Is(err, optimize.ErrInvalidInput) {
		t.Fatalf("expected invalid-input error, got %v", err)
	}
	if !strings.Contains(err.Error(), "moov atom") {
		t.Errorf("stderr lost: %v", err)
	}
}
