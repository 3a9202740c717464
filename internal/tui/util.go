package tui

import (
	"fmt"
	"strings"
	"time"
)

// sparkWidth is how many of the latest responses the dashboard plots.
const sparkWidth = 20

var sparkLevels = []rune(" ▂▃▄▅▆▇█")

func fmtDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// renderSparkline plots the last width response times, scaled to the
// slowest of them.
func renderSparkline(elapsed []time.Duration, width int) string {
	if len(elapsed) > width {
		elapsed = elapsed[len(elapsed)-width:]
	}
	var slowest time.Duration
	for _, d := range elapsed {
		slowest = max(slowest, d)
	}

	top := len(sparkLevels) - 1
	var sb strings.Builder
	for _, d := range elapsed {
		if slowest == 0 {
			sb.WriteRune(sparkLevels[0])
			continue
		}
		sb.WriteRune(sparkLevels[min(int(int64(d)*int64(top)/int64(slowest)), top)])
	}
	return sb.String()
}
