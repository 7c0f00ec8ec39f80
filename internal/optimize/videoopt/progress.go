package videoopt

import (
	"strconv"
	"strings"
)

// progressScraper converts the encoder's periodic key=value progress lines
// (from "-progress pipe:1") into a completion percentage against the known
// media duration.
type progressScraper struct {
	durationSeconds float64
	report          func(percent float64)
}

func (s *progressScraper) Line(line string) {
	if s.report == nil || s.durationSeconds <= 0 {
		return
	}
	seconds, ok := parseTimePosition(line)
	if !ok {
		return
	}
	percent := seconds / s.durationSeconds * 100
	if percent > 100 {
		percent = 100
	}
	s.report(percent)
}

// parseTimePosition extracts the elapsed media time from a progress line.
// Recognises "out_time_us"/"out_time_ms" (microseconds) and
// "out_time=HH:MM:SS.micros".
func parseTimePosition(line string) (float64, bool) {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return 0, false
	}
	switch key {
	case "out_time_us", "out_time_ms":
		micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || micros < 0 {
			return 0, false
		}
		return float64(micros) / 1e6, true
	case "out_time":
		return parseClock(strings.TrimSpace(value))
	}
	return 0, false
}

func parseClock(value string) (float64, bool) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err1 := strconv.ParseFloat(parts[0], 64)
	minutes, err2 := strconv.ParseFloat(parts[1], 64)
	seconds, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	total := hours*3600 + minutes*60 + seconds
	if total < 0 {
		return 0, false
	}
	return total, true
}
