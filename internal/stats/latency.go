package stats

import (
	"time"

	"github.com/Amr-9/rrt/pkg/models"
	"github.com/HdrHistogram/hdrhistogram-go"
)

// maxTrackable is one hour in microseconds; larger values are clamped.
const maxTrackable = int64(time.Hour / time.Microsecond)

// Latency records response times of a run into an HDR histogram.
// It is owned by a single run and is not safe for concurrent use.
type Latency struct {
	histogram *hdrhistogram.Histogram
}

func NewLatency() *Latency {
	return &Latency{
		// min 1µs, max 1h (in µs), 3 significant figures
		histogram: hdrhistogram.New(1, maxTrackable, 3),
	}
}

// Record adds one elapsed time.
func (l *Latency) Record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	if us > maxTrackable {
		us = maxTrackable
	}
	_ = l.histogram.RecordValue(us)
}

// Snapshot returns the current statistics.
func (l *Latency) Snapshot() models.LatencyStats {
	h := l.histogram
	count := h.TotalCount()
	if count == 0 {
		return models.LatencyStats{}
	}
	return models.LatencyStats{
		Count: count,
		Min:   time.Duration(h.Min()) * time.Microsecond,
		Max:   time.Duration(h.Max()) * time.Microsecond,
		Mean:  time.Duration(h.Mean()) * time.Microsecond,
		P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P90:   time.Duration(h.ValueAtQuantile(90)) * time.Microsecond,
		P99:   time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
	}
}

// GroupReasons counts failure reasons of failed cases, with addresses sanitized.
func GroupReasons(results []models.CaseResult) map[string]int {
	grouped := make(map[string]int)
	for _, r := range results {
		if r.Outcome != models.Failed || r.Reason == "" {
			continue
		}
		grouped[SanitizeError(r.Reason)]++
	}
	if len(grouped) == 0 {
		return nil
	}
	return grouped
}
