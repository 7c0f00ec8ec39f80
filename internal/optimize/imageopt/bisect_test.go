package imageopt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
)

// sizedProbe returns output sizes proportional to quality, mimicking a
// size-monotone encoder.
func sizedProbe(probed *[]int) EncodeProbe {
	return func(quality int) (string, int64, error) {
		*probed = append(*probed, quality)
		return fmt.Sprintf("probe-q%d.jpg", quality), int64(quality) * 10, nil
	}
}

func TestSearchQualityFindsSmallestCandidate(t *testing.T) {
	var probed []int
	// Every quality in [50, 81] beats the target, so the search walks the
	// lower half and the smallest size wins.
	best, probes, err := SearchQuality(context.Background(), 1000, 50, 81, sizedProbe(&probed))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if best == nil {
		t.Fatal("expected a candidate")
	}
	if best.Quality != 50 || best.Size != 500 {
		t.Errorf("best = %+v, want quality 50 size 500", best)
	}
	if probes != len(probed) {
		t.Errorf("probe count %d disagrees with recorded %d", probes, len(probed))
	}
	span := float64(81 - 50 + 1)
	if maxProbes := int(math.Ceil(math.Log2(span))) + 1; probes > maxProbes {
		t.Errorf("%d probes exceed bound %d", probes, maxProbes)
	}
}

func TestSearchQualityNoCandidate(t *testing.T) {
	var probed []int
	best, probes, err := SearchQuality(context.Background(), 100, 50, 81, sizedProbe(&probed))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if best != nil {
		t.Errorf("expected no candidate, got %+v", best)
	}
	if probes == 0 {
		t.Error("expected at least one probe")
	}
}

func TestSearchQualityEmptyRange(t *testing.T) {
	best, probes, err := SearchQuality(context.Background(), 1000, 60, 59, func(int) (string, int64, error) {
		t.Fatal("probe must not run for an empty range")
		return "", 0, nil
	})
	if err != nil || best != nil || probes != 0 {
		t.Errorf("empty range: best=%v probes=%d err=%v", best, probes, err)
	}
}

func TestSearchQualityPropagatesProbeError(t *testing.T) {
	boom := errors.New("encoder crashed")
	_, _, err := SearchQuality(context.Background(), 1000, 50, 81, func(int) (string, int64, error) {
		return "", 0, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected probe error, got %v", err)
	}
}

func TestSearchQualityStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, probes, err := SearchQuality(ctx, 1000, 50, 81, func(int) (string, int64, error) {
		t.Fatal("probe must not run after cancellation")
		return "", 0, nil
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if probes != 0 {
		t.Errorf("probes %d after cancellation", probes)
	}
}
