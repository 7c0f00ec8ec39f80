package imageopt

import "context"

// Candidate is one quality probe whose output beat the target size.
type Candidate struct {
	Quality int
	Path    string
	Size    int64
}

// EncodeProbe encodes the working image at the given quality and returns the
// resulting artifact path and size.
type EncodeProbe func(quality int) (path string, size int64, err error)

// SearchQuality bisects the inclusive quality range [lo, hi] for the
// smallest output strictly under target. A probe that beats the target
// tightens the upper bound (search lower quality); one that does not
// tightens the lower bound. Returns the best candidate (nil when no probe
// beat the target) and the number of probes spent.
func SearchQuality(ctx context.Context, target int64, lo, hi int, probe EncodeProbe) (*Candidate, int, error) {
	var best *Candidate
	probes := 0
	for lo <= hi {
		if err := ctx.Err(); err != nil {
			return nil, probes, err
		}
		mid := (lo + hi) / 2
		path, size, err := probe(mid)
		if err != nil {
			return nil, probes, err
		}
		probes++
		if size < target {
			if best == nil || size < best.Size {
				best = &Candidate{Quality: mid, Path: path, Size: size}
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return best, probes, nil
}
