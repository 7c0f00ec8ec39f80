package optimize

import (
	"testing"

	"clop/internal/request"
)

func TestRunProgressClampsAndNeverRegresses(t *testing.T) {
	var seen []request.Progress
	run := NewRun("req-1", nil, func(p request.Progress) {
		seen = append(seen, p)
	})

	run.Progress(-10, "probe")
	run.Progress(30, "encode")
	run.Progress(20, "encode")
	run.Progress(150, "finalize")

	wantPercents := []float64{0, 30, 30, 100}
	if len(seen) != len(wantPercents) {
		t.Fatalf("expected %d updates, got %d", len(wantPercents), len(seen))
	}
	for i, want := range wantPercents {
		if seen[i].Percent != want {
			t.Errorf("update %d: percent %v, want %v", i, seen[i].Percent, want)
		}
		if seen[i].RequestID != "req-1" {
			t.Errorf("update %d: request ID %q", i, seen[i].RequestID)
		}
	}
}

func TestRunSealDropsLaterUpdates(t *testing.T) {
	count := 0
	run := NewRun("req-2", nil, func(request.Progress) { count++ })

	run.Progress(50, "encode")
	run.Seal()
	run.Progress(90, "finalize")

	if count != 1 {
		t.Errorf("expected 1 delivered update, got %d", count)
	}
}

func TestRunNilReporter(t *testing.T) {
	run := NewRun("req-3", nil, nil)
	run.Progress(42, "encode")
	if run.Logger() == nil {
		t.Error("expected fallback logger")
	}
	if run.RequestID() != "req-3" {
		t.Errorf("unexpected request ID %q", run.RequestID())
	}
}
