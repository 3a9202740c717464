package engine

import (
	"time"

	"github.com/Amr-9/rrt/internal/stats"
	"github.com/Amr-9/rrt/pkg/models"
)

// Aggregator accumulates case results in execution order. It makes no
// decisions; the engine tells it when the run is over.
type Aggregator struct {
	apiAddress string
	started    time.Time
	results    []models.CaseResult
	latency    *stats.Latency
}

func NewAggregator(apiAddress string, started time.Time) *Aggregator {
	return &Aggregator{
		apiAddress: apiAddress,
		started:    started,
		latency:    stats.NewLatency(),
	}
}

// Record appends one result.
func (a *Aggregator) Record(r models.CaseResult) {
	a.results = append(a.results, r)
	if r.Responded() {
		a.latency.Record(r.Elapsed)
	}
}

// Finish computes the tallies and returns the summary. abortedAt is the index
// of the failed critical case, or -1.
func (a *Aggregator) Finish(state models.RunState, abortedAt int, finished time.Time) *models.RunSummary {
	summary := &models.RunSummary{
		APIAddress: a.apiAddress,
		State:      state,
		Started:    a.started,
		Duration:   finished.Sub(a.started),
		Results:    a.results,
		Aborted:    state == models.Aborted,
		AbortedAt:  abortedAt,
		Latency:    a.latency.Snapshot(),
	}
	if !summary.Aborted {
		summary.AbortedAt = -1
	}

	for _, r := range a.results {
		summary.Tally.Total++
		switch r.Outcome {
		case models.Passed:
			summary.Tally.Passed++
		case models.Failed:
			summary.Tally.Failed++
			if r.FailureKind == models.Timeout {
				summary.Tally.TimedOut++
			}
		case models.Cancelled:
			summary.Tally.Cancelled++
		}

		if r.TimeClass != models.Unclassified {
			if summary.TimeClass == nil {
				summary.TimeClass = make(map[models.TimeClass]int)
			}
			summary.TimeClass[r.TimeClass]++
		}
		if r.FailureKind != models.NoFailure {
			if summary.Reasons == nil {
				summary.Reasons = make(map[models.FailureKind]int)
			}
			summary.Reasons[r.FailureKind]++
		}
	}

	summary.Errors = stats.GroupReasons(a.results)
	return summary
}
