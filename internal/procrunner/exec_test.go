//go:build !windows

package procrunner

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecCapturesOutputAndExitCode(t *testing.T) {
	runner := NewExec()

	var lines []string
	result, err := runner.Run(context.Background(), Command{
		Path:     "sh",
		Args:     []string{"-c", "echo first; echo second; echo oops >&2; exit 3"},
		OnStdout: func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("exit code %d, want 3", result.ExitCode)
	}
	if result.Stdout != "first\nsecond\n" {
		t.Errorf("stdout %q", result.Stdout)
	}
	if !strings.Contains(result.Stderr, "oops") {
		t.Errorf("stderr %q", result.Stderr)
	}
	if len(lines) != 2 || lines[0] != "first" || lines[1] != "second" {
		t.Errorf("stdout callback saw %v", lines)
	}
}

func TestExecCancellationKillsProcess(t *testing.T) {
	runner := NewExec()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result, err := runner.Run(ctx, Command{
		Path: "sh",
		Args: []string{"-c", "sleep 30"},
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if result.ExitCode != -1 {
		t.Errorf("exit code %d, want -1", result.ExitCode)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("kill took %v, process tree not terminated", elapsed)
	}
}

func TestExecCancellationReachesChildren(t *testing.T) {
	runner := NewExec()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := runner.Run(ctx, Command{
		Path: "sh",
		Args: []string{"-c", "sleep 30 & wait"},
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("tree kill took %v", elapsed)
	}
}

func TestExecMissingBinary(t *testing.T) {
	runner := NewExec()
	_, err := runner.Run(context.Background(), Command{Path: "definitely-not-a-binary-xyz"})
	if err == nil {
		t.Fatal("expected start failure")
	}
}

func TestExecRejectsEmptyPath(t *testing.T) {
	runner := NewExec()
	if _, err := runner.Run(context.Background(), Command{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}
