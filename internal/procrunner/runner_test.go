package procrunner

import (
	"context"
	"strings"
	"testing"
)

func TestResultErr(t *testing.T) {
	if err := (Result{ExitCode: 0}).Err("ffmpeg"); err != nil {
		t.Errorf("zero exit produced error: %v", err)
	}

	err := (Result{ExitCode: 1, Stderr: "missing codec\n"}).Err("ffmpeg")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	exitErr, ok := err.(*ExitError)
	if !ok {
		t.Fatalf("expected *ExitError, got %T", err)
	}
	if exitErr.ExitCode != 1 || exitErr.Tool != "ffmpeg" {
		t.Errorf("unexpected exit error %+v", exitErr)
	}
	if !strings.Contains(err.Error(), "missing codec") {
		t.Errorf("stderr detail lost: %s", err)
	}

	err = (Result{ExitCode: 2, Stdout: "usage: gs"}).Err("gs")
	if !strings.Contains(err.Error(), "usage: gs") {
		t.Errorf("stdout fallback lost: %s", err)
	}
}

func TestScriptRecordsCalls(t *testing.T) {
	script := &Script{
		Handler: func(_ context.Context, cmd Command) (Result, error) {
			if cmd.OnStdout != nil {
				cmd.OnStdout("frame=1")
			}
			return Result{ExitCode: 0, Stdout: "frame=1\n"}, nil
		},
	}

	var lines []string
	result, err := script.Run(context.Background(), Command{
		Path:     "ffmpeg",
		Args:     []string{"-i", "in.mp4"},
		OnStdout: func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code %d", result.ExitCode)
	}
	if script.CallCount() != 1 {
		t.Errorf("call count %d", script.CallCount())
	}
	calls := script.Calls()
	if calls[0].Path != "ffmpeg" || calls[0].Args[1] != "in.mp4" {
		t.Errorf("recorded call %+v", calls[0])
	}
	if len(lines) != 1 || lines[0] != "frame=1" {
		t.Errorf("callback lines %v", lines)
	}
}

func TestScriptHonoursCancelledContext(t *testing.T) {
	script := &Script{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := script.Run(ctx, Command{Path: "ffmpeg"})
	if err == nil {
		t.Fatal("expected context error")
	}
	if result.ExitCode != -1 {
		t.Errorf("exit code %d, want -1", result.ExitCode)
	}
	if script.CallCount() != 1 {
		t.Error("cancelled call not recorded")
	}
}
