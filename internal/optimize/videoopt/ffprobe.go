package videoopt

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"clop/internal/optimize"
	"clop/internal/procrunner"
)

// MediaInfo summarises the stream properties the optimiser needs.
type MediaInfo struct {
	DurationSeconds float64
	Width           int
	Height          int
	FrameRate       float64
	HasAudio        bool
}

// Probe runs ffprobe and parses its JSON output.
func Probe(ctx context.Context, runner procrunner.Runner, ffprobePath, path string) (MediaInfo, error) {
	result, err := runner.Run(ctx, procrunner.Command{
		Path: ffprobePath,
		Args: []string{
			"-v", "quiet",
			"-print_format", "json",
			"-show_format",
			"-show_streams",
			path,
		},
	})
	if err != nil {
		return MediaInfo{}, err
	}
	if result.ExitCode != 0 {
		return MediaInfo{}, optimize.Wrap(optimize.ErrInvalidInput, component, "probe",
			strings.TrimSpace(result.Stderr), nil)
	}
	return parseProbeOutput(result.Stdout)
}

func parseProbeOutput(raw string) (MediaInfo, error) {
	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType    string `json:"codec_type"`
			Width        int    `json:"width"`
			Height       int    `json:"height"`
			RFrameRate   string `json:"r_frame_rate"`
			AvgFrameRate string `json:"avg_frame_rate"`
		} `json:"streams"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return MediaInfo{}, optimize.Wrap(optimize.ErrInvalidInput, component, "parse probe output", "", err)
	}

	info := MediaInfo{}
	info.DurationSeconds, _ = strconv.ParseFloat(strings.TrimSpace(payload.Format.Duration), 64)
	for _, stream := range payload.Streams {
		switch stream.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width = stream.Width
				info.Height = stream.Height
				info.FrameRate = parseFrameRate(stream.AvgFrameRate)
				if info.FrameRate == 0 {
					info.FrameRate = parseFrameRate(stream.RFrameRate)
				}
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if info.DurationSeconds <= 0 {
		return info, optimize.Wrap(optimize.ErrInvalidInput, component, "probe", "no duration reported", nil)
	}
	return info, nil
}

// parseFrameRate converts ffprobe's "num/den" rational to frames per second.
func parseFrameRate(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0/0" {
		return 0
	}
	parts := strings.SplitN(raw, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return num
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}
