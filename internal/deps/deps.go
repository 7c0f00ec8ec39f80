// Package deps reports the availability of the external tools the
// optimisers shell out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"clop/internal/config"
)

// Requirement defines an external binary the engine relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements derives the binary set from configuration.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{Name: "ffmpeg", Command: cfg.Video.FFmpegPath, Description: "video transcoder"},
		{Name: "ffprobe", Command: cfg.Video.FFprobePath, Description: "media prober"},
		{Name: "ghostscript", Command: cfg.PDF.GhostscriptPath, Description: "PDF rewriter"},
		{Name: "qpdf", Command: cfg.PDF.QPDFPath, Description: "PDF linearizer", Optional: true},
	}
	if cfg.Image.PNGOptimizerPath != "" {
		reqs = append(reqs, Requirement{
			Name:        "png optimizer",
			Command:     cfg.Image.PNGOptimizerPath,
			Description: "external PNG pass",
			Optional:    true,
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
