package videoopt

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clop/internal/config"
	"clop/internal/fileutil"
	"clop/internal/optimize"
	"clop/internal/procrunner"
	"clop/internal/request"
	"clop/internal/testsupport"
)

// scriptedTools fakes ffprobe and ffmpeg behind one Script runner. The
// ffmpeg handler controls the bytes written to the requested output.
func scriptedTools(t *testing.T, outputBytes int, ffmpegExit int, stderr string) *procrunner.Script {
	t.Helper()
	return &procrunner.Script{
		Handler: func(_ context.Context, cmd procrunner.Command) (procrunner.Result, error) {
			switch cmd.Path {
			case "ffprobe":
				return procrunner.Result{Stdout: probeJSON}, nil
			case "ffmpeg":
				if ffmpegExit != 0 {
					return procrunner.Result{ExitCode: ffmpegExit, Stderr: stderr}, nil
				}
				if cmd.OnStdout != nil {
					cmd.OnStdout("out_time_us=6240000")
					cmd.OnStdout("out_time_us=12480000")
				}
				output := cmd.Args[len(cmd.Args)-1]
				if err := os.WriteFile(output, bytes.Repeat([]byte{0xAB}, outputBytes), 0o644); err != nil {
					t.Fatalf("write fake output: %v", err)
				}
				return procrunner.Result{}, nil
			default:
				t.Fatalf("unexpected tool %q", cmd.Path)
				return procrunner.Result{}, nil
			}
		},
	}
}

func newVideoOptimizer(t *testing.T, script *procrunner.Script) (*Optimizer, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return New(cfg, script, fileutil.NewCounter(cfg.CounterPath())), cfg
}

func writeSource(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xCD}, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newVideoRequest(t *testing.T, path string) *request.Request {
	t.Helper()
	req, err := request.New(request.ItemVideo, path, request.Metadata{})
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestOptimizeTranscodesAndPromotes(t *testing.T) {
	script := scriptedTools(t, 1000, 0, "")
	opt, _ := newVideoOptimizer(t, script)

	dir := t.TempDir()
	src := writeSource(t, dir, "clip.mp4", 5000)

	var percents []float64
	req := newVideoRequest(t, src)
	run := optimize.NewRun(req.ID, nil, func(p request.Progress) {
		percents = append(percents, p.Percent)
	})

	result, err := opt.Optimize(context.Background(), req, run)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if result.Status != request.StatusSucceeded {
		t.Fatalf("status %s", result.Status)
	}
	if result.OutputPath != filepath.Join(dir, "clip.clop.mp4") {
		t.Errorf("output path %s", result.OutputPath)
	}
	if !strings.Contains(result.Message, "saved") {
		t.Errorf("message %q", result.Message)
	}

	if script.CallCount() != 2 {
		t.Errorf("expected probe + transcode, got %d calls", script.CallCount())
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress regressed: %v", percents)
		}
	}
	if len(percents) == 0 || percents[len(percents)-1] != 100 {
		t.Errorf("final progress %v", percents)
	}
}

func TestOptimizeKeepsOriginalWhenLarger(t *testing.T) {
	script := scriptedTools(t, 9000, 0, "")
	opt, _ := newVideoOptimizer(t, script)

	dir := t.TempDir()
	src := writeSource(t, dir, "clip.mp4", 5000)

	req := newVideoRequest(t, src)
	result, err := opt.Optimize(context.Background(), req, optimize.NewRun(req.ID, nil, nil))
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if result.OutputPath != src {
		t.Errorf("expected source kept, got %s", result.OutputPath)
	}
	if result.Message != optimize.MsgKeptOriginal {
		t.Errorf("message %q", result.Message)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip.clop.mp4")); !os.IsNotExist(err) {
		t.Error("larger output promoted anyway")
	}
}

func TestOptimizeKeepsRequestedTransformationWhenLarger(t *testing.T) {
	script := scriptedTools(t, 9000, 0, "")
	opt, _ := newVideoOptimizer(t, script)

	dir := t.TempDir()
	src := writeSource(t, dir, "clip.mp4", 5000)

	req := newVideoRequest(t, src)
	req.Metadata.Set(request.MetaRemoveAudio, true)

	result, err := opt.Optimize(context.Background(), req, optimize.NewRun(req.ID, nil, nil))
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if result.OutputPath != filepath.Join(dir, "clip.clop.mp4") {
		t.Errorf("transformed output discarded: %s", result.OutputPath)
	}

	args := strings.Join(script.Calls()[1].Args, " ")
	if !strings.Contains(args, "-an") {
		t.Errorf("audio removal not requested from encoder: %s", args)
	}
}

func TestOptimizeGIFExport(t *testing.T) {
	script := scriptedTools(t, 1000, 0, "")
	opt, _ := newVideoOptimizer(t, script)

	dir := t.TempDir()
	src := writeSource(t, dir, "clip.mp4", 5000)

	req := newVideoRequest(t, src)
	req.Metadata.Set(request.MetaAnimatedGIF, true)

	result, err := opt.Optimize(context.Background(), req, optimize.NewRun(req.ID, nil, nil))
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if result.OutputPath != filepath.Join(dir, "clip.clop.gif") {
		t.Errorf("output path %s", result.OutputPath)
	}

	args := strings.Join(script.Calls()[1].Args, " ")
	if !strings.Contains(args, "palettegen") || !strings.Contains(args, "paletteuse") {
		t.Errorf("palette filter graph missing: %s", args)
	}
}

func TestOptimizeHardwareFallback(t *testing.T) {
	var ffmpegCalls int
	script := &procrunner.Script{}
	script.Handler = func(_ context.Context, cmd procrunner.Command) (procrunner.Result, error) {
		switch cmd.Path {
		case "ffprobe":
			return procrunner.Result{Stdout: probeJSON}, nil
		case "ffmpeg":
			ffmpegCalls++
			args := strings.Join(cmd.Args, " ")
			if strings.Contains(args, "h264_videotoolbox") {
				return procrunner.Result{ExitCode: 1, Stderr: "Error initializing hardware session"}, nil
			}
			output := cmd.Args[len(cmd.Args)-1]
			if err := os.WriteFile(output, bytes.Repeat([]byte{0x01}, 1000), 0o644); err != nil {
				t.Fatalf("write fake output: %v", err)
			}
			return procrunner.Result{}, nil
		default:
			t.Fatalf("unexpected tool %q", cmd.Path)
			return procrunner.Result{}, nil
		}
	}

	cfg := testsupport.NewConfig(t)
	cfg.Video.HardwareAccel = true
	cfg.Video.HardwareEncoder = "h264_videotoolbox"
	opt := New(cfg, script, fileutil.NewCounter(cfg.CounterPath()))

	src := writeSource(t, t.TempDir(), "clip.mp4", 5000)
	req := newVideoRequest(t, src)

	result, err := opt.Optimize(context.Background(), req, optimize.NewRun(req.ID, nil, nil))
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if result.Status != request.StatusSucceeded {
		t.Fatalf("status %s", result.Status)
	}
	if ffmpegCalls != 2 {
		t.Errorf("expected hardware attempt then software fallback, got %d encodes", ffmpegCalls)
	}
}

func TestOptimizeTranscodeFailure(t *testing.T) {
	script := scriptedTools(t, 0, 1, "Unknown encoder 'libx264'\nConversion failed!")
	opt, _ := newVideoOptimizer(t, script)

	src := writeSource(t, t.TempDir(), "clip.mp4", 5000)
	req := newVideoRequest(t, src)

	_, err := opt.Optimize(context.Background(), req, optimize.NewRun(req.ID, nil, nil))
	if !errors.Is(err, optimize.ErrProcessFailure) {
		t.Fatalf("expected process failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "Conversion failed!") {
		t.Errorf("stderr tail lost: %v", err)
	}
}

func TestOptimizeInvalidSpeed(t *testing.T) {
	script := scriptedTools(t, 1000, 0, "")
	opt, _ := newVideoOptimizer(t, script)

	src := writeSource(t, t.TempDir(), "clip.mp4", 5000)
	req := newVideoRequest(t, src)
	req.Metadata.Set(request.MetaPlaybackSpeed, -2.0)

	_, err := opt.Optimize(context.Background(), req, optimize.NewRun(req.ID, nil, nil))
	if !errors.Is(err, optimize.ErrInvalidInput) {
		t.Fatalf("expected invalid-input error, got %v", err)
	}
}

func TestOptimizeUnsupportedContainer(t *testing.T) {
	script := scriptedTools(t, 1000, 0, "")
	opt, _ := newVideoOptimizer(t, script)

	src := writeSource(t, t.TempDir(), "stream.ts", 5000)
	req := newVideoRequest(t, src)

	_, err := opt.Optimize(context.Background(), req, optimize.NewRun(req.ID, nil, nil))
	if !errors.Is(err, optimize.ErrUnsupported) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
	if script.CallCount() != 0 {
		t.Error("tools invoked for unsupported container")
	}
}

func TestOptimizeCancelledDuringTranscode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	script := &procrunner.Script{
		Handler: func(callCtx context.Context, cmd procrunner.Command) (procrunner.Result, error) {
			if cmd.Path == "ffprobe" {
				return procrunner.Result{Stdout: probeJSON}, nil
			}
			// Leave a partial output behind, as a killed encoder would.
			output := cmd.Args[len(cmd.Args)-1]
			if err := os.WriteFile(output, bytes.Repeat([]byte{0xEF}, 128), 0o644); err != nil {
				t.Fatalf("write partial output: %v", err)
			}
			cancel()
			return procrunner.Result{ExitCode: -1}, callCtx.Err()
		},
	}
	opt, cfg := newVideoOptimizer(t, script)

	src := writeSource(t, t.TempDir(), "clip.mp4", 5000)
	req := newVideoRequest(t, src)

	_, err := opt.Optimize(ctx, req, optimize.NewRun(req.ID, nil, nil))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}

	entries, err := os.ReadDir(cfg.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp artifacts left after cancellation: %v", entries)
	}
}

func TestOptimizePreservesTimestamps(t *testing.T) {
	script := scriptedTools(t, 1000, 0, "")
	opt, _ := newVideoOptimizer(t, script)

	dir := t.TempDir()
	src := writeSource(t, dir, "clip.mp4", 5000)
	stamp := time.Date(2022, 6, 15, 8, 30, 0, 0, time.UTC)
	if err := os.Chtimes(src, stamp, stamp); err != nil {
		t.Fatal(err)
	}

	req := newVideoRequest(t, src)
	result, err := opt.Optimize(context.Background(), req, optimize.NewRun(req.ID, nil, nil))
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}

	info, err := os.Stat(result.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(stamp) {
		t.Errorf("output mod time %v, want %v", info.ModTime(), stamp)
	}
}
