package engine

import (
	"time"

	"github.com/Amr-9/rrt/pkg/models"
)

// Classify maps an elapsed time onto the boundary triple. Elapsed times at or
// beyond the timeout are TimedOut.
func Classify(elapsed time.Duration, tb models.TimeBoundaries) models.TimeClass {
	switch {
	case elapsed >= tb.Timeout():
		return models.TimedOut
	case elapsed < tb.Fast():
		return models.Fast
	case elapsed < tb.Slow():
		return models.Moderate
	default:
		return models.Slow
	}
}
