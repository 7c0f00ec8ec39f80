package optimize

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"clop/internal/fileutil"
)

// Result messages shared by the optimisers.
const (
	MsgKeptOriginal = "no improvement, kept original"
	MsgNoOp         = "already optimised, nothing to do"
)

// PromoteOptions describes how a finished temporary artifact becomes the
// final output.
type PromoteOptions struct {
	Source    string
	Temp      string
	Ext       string
	OutputDir string
	Overwrite bool
	// Counter numbers the output when the target exists and overwriting is
	// disabled. Required in that case.
	Counter *fileutil.Counter
}

// Promote moves the temporary artifact to its final destination and returns
// the output path.
func Promote(opts PromoteOptions) (string, error) {
	target := fileutil.OutputPath(opts.Source, opts.OutputDir, opts.Ext)
	if _, err := os.Stat(target); err == nil && !opts.Overwrite {
		if opts.Counter == nil {
			return "", fmt.Errorf("output %s exists and overwriting is disabled", target)
		}
		n, err := opts.Counter.Next()
		if err != nil {
			return "", fmt.Errorf("allocate output number: %w", err)
		}
		target = fileutil.NumberedOutputPath(opts.Source, opts.OutputDir, opts.Ext, n)
	}
	if err := fileutil.MoveFile(opts.Temp, target); err != nil {
		return "", fmt.Errorf("promote output: %w", err)
	}
	return target, nil
}

// SavingsMessage renders the absolute and relative size reduction.
func SavingsMessage(originalSize, newSize int64) string {
	if originalSize <= 0 || newSize >= originalSize {
		return MsgKeptOriginal
	}
	saved := originalSize - newSize
	percent := float64(saved) / float64(originalSize) * 100
	return fmt.Sprintf("saved %s (%.1f%%)", humanize.Bytes(uint64(saved)), percent)
}
