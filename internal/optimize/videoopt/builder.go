package videoopt

import (
	"fmt"
	"strconv"
	"strings"
)

// encodeSpec captures a single transcode attempt.
type encodeSpec struct {
	input  string
	output string

	encoder  string
	hardware bool
	crf      int
	preset   string

	removeAudio bool
	hasAudio    bool
	speed       float64
	capFPS      int

	gif         bool
	gifMaxWidth int
	gifFPS      int
}

// buildArgs assembles the encoder invocation for spec. Progress is asked for
// on stdout so the scraper can follow it.
func buildArgs(spec encodeSpec) []string {
	args := []string{"-y", "-hide_banner", "-nostdin", "-i", spec.input}

	if spec.gif {
		graph := fmt.Sprintf(
			"[0:v]fps=%d,scale=min(iw\\,%d):-2:flags=lanczos,split[a][b];[a]palettegen[p];[b][p]paletteuse",
			spec.gifFPS, spec.gifMaxWidth)
		args = append(args, "-filter_complex", graph, "-an")
	} else {
		var vf []string
		if spec.speed > 0 && spec.speed != 1 {
			vf = append(vf, fmt.Sprintf("setpts=PTS/%g", spec.speed))
		}
		if spec.capFPS > 0 {
			vf = append(vf, fmt.Sprintf("fps=%d", spec.capFPS))
		}
		if len(vf) > 0 {
			args = append(args, "-vf", strings.Join(vf, ","))
		}

		args = append(args, "-c:v", spec.encoder)
		if !spec.hardware {
			args = append(args, "-crf", strconv.Itoa(spec.crf), "-preset", spec.preset)
		}

		switch {
		case spec.removeAudio || !spec.hasAudio:
			args = append(args, "-an")
		case spec.speed > 0 && spec.speed != 1:
			args = append(args, "-filter:a", atempoChain(spec.speed), "-c:a", "aac")
		default:
			args = append(args, "-c:a", "copy")
		}
	}

	args = append(args, "-progress", "pipe:1", "-nostats", spec.output)
	return args
}

// atempoChain decomposes an arbitrary tempo factor into a chain of atempo
// filters, each within the supported [0.5, 2.0] range.
func atempoChain(speed float64) string {
	var stages []string
	remaining := speed
	for remaining > 2.0 {
		stages = append(stages, "atempo=2.0")
		remaining /= 2.0
	}
	for remaining < 0.5 {
		stages = append(stages, "atempo=0.5")
		remaining /= 0.5
	}
	stages = append(stages, fmt.Sprintf("atempo=%g", remaining))
	return strings.Join(stages, ",")
}
