package media

import (
	"regexp"
	"strconv"
)

// ffmpeg reports encode position on its diagnostic stream as
// "time=HH:MM:SS.cs" embedded in the periodic stats lines.
var timestampRegex = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2})(?:\.(\d+))?`)

// parseElapsed extracts the elapsed encode position from one diagnostic
// line. The last timestamp on the line wins. This is the only place that
// knows the tool's output format; swap it out if the tool changes.
func parseElapsed(line string) (float64, bool) {
	matches := timestampRegex.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return 0, false
	}

	m := matches[len(matches)-1]
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])

	elapsed := float64(hours*3600 + minutes*60 + seconds)
	if m[4] != "" {
		if frac, err := strconv.ParseFloat("0."+m[4], 64); err == nil {
			elapsed += frac
		}
	}
	return elapsed, true
}

// progressTracker converts diagnostic lines into debounced percentages.
// Intermediate progress is capped at 95; the final 100 is emitted by the
// encoder once the subprocess exits cleanly.
type progressTracker struct {
	totalSec int
	last     int
}

func newProgressTracker(totalSec int) *progressTracker {
	return &progressTracker{totalSec: totalSec, last: -100}
}

// observe returns the percentage to report for the line, if any. Noisy
// subprocess output is debounced: a value is reported only when it has
// grown by more than one percentage point since the last report. With an
// unknown total duration nothing is ever reported.
func (t *progressTracker) observe(line string) (int, bool) {
	if t.totalSec <= 0 {
		return 0, false
	}
	elapsed, ok := parseElapsed(line)
	if !ok {
		return 0, false
	}

	percent := int(elapsed / float64(t.totalSec) * 100)
	if percent > 95 {
		percent = 95
	}
	if percent <= t.last+1 {
		return 0, false
	}
	t.last = percent
	return percent, true
}
