package engine

import (
	"github.com/Amr-9/rrt/internal/transport"
	"github.com/Amr-9/rrt/pkg/models"
)

// Exchange is the request and response behind a finished case. Request is
// nil when the build failed; Response is nil when nothing was received.
type Exchange struct {
	Request  *transport.Request
	Response *transport.Response
	Verbose  bool // Effective verbose setting of the case
}

// Observer is notified as a run progresses. Calls happen on the engine's
// goroutine in order.
type Observer interface {
	RunStarted(cfg *models.Config)
	CaseStarted(index, total int, description string)
	CaseFinished(result models.CaseResult, ex *Exchange)
	RunFinished(summary *models.RunSummary)
}

// MultiObserver fans notifications out to several observers.
type MultiObserver []Observer

func (m MultiObserver) RunStarted(cfg *models.Config) {
	for _, o := range m {
		o.RunStarted(cfg)
	}
}

func (m MultiObserver) CaseStarted(index, total int, description string) {
	for _, o := range m {
		o.CaseStarted(index, total, description)
	}
}

func (m MultiObserver) CaseFinished(result models.CaseResult, ex *Exchange) {
	for _, o := range m {
		o.CaseFinished(result, ex)
	}
}

func (m MultiObserver) RunFinished(summary *models.RunSummary) {
	for _, o := range m {
		o.RunFinished(summary)
	}
}
