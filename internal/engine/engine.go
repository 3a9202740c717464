package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Amr-9/rrt/internal/transport"
	"github.com/Amr-9/rrt/pkg/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Engine runs the cases of a config one after another. Each Run owns its
// own variable store and aggregator, so an Engine can be reused.
type Engine struct {
	client   transport.Client
	observer MultiObserver
	log      *logrus.Logger
	gen      *Generators
	fixtures map[string]string
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers observers notified during a run.
func WithObserver(observers ...Observer) Option {
	return func(e *Engine) {
		e.observer = append(e.observer, observers...)
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *logrus.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithGenerators replaces the template generators.
func WithGenerators(gen *Generators) Option {
	return func(e *Engine) { e.gen = gen }
}

// WithFixtures makes "name.column" fixture values available to templates.
func WithFixtures(fixtures map[string]string) Option {
	return func(e *Engine) { e.fixtures = fixtures }
}

func New(client transport.Client, opts ...Option) *Engine {
	e := &Engine{
		client: client,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.gen == nil {
		e.gen = NewGenerators()
	}
	return e
}

// Run executes every case in declaration order and always returns a summary.
// A failed critical case aborts the run; the cases after it are recorded as
// Cancelled and never sent.
func (e *Engine) Run(cfg *models.Config) *models.RunSummary {
	started := time.Now()
	agg := NewAggregator(cfg.Global.APIAddress, started)
	store := NewVariableStore()
	builder := NewBuilder(cfg.Global, e.fixtures, e.gen)

	var limiter *rate.Limiter
	if cfg.Global.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Global.RateLimit), 1)
	}

	state := models.Pending
	e.log.WithFields(logrus.Fields{
		"api_address": cfg.Global.APIAddress,
		"cases":       len(cfg.Tests),
		"state":       state,
	}).Debug("run starting")
	e.observer.RunStarted(cfg)
	state = models.Running

	abortedAt := -1
	total := len(cfg.Tests)
	for i := range cfg.Tests {
		tc := &cfg.Tests[i]
		description := ResolveDescription(tc)

		if state == models.Aborted {
			r := models.CaseResult{
				Index:          i,
				Description:    description,
				Method:         strings.ToUpper(tc.Method),
				Critical:       tc.Critical,
				Outcome:        models.Cancelled,
				ExpectedStatus: tc.ExpectedStatus,
				Reason:         fmt.Sprintf("not run: critical test %d failed", abortedAt+1),
			}
			agg.Record(r)
			e.observer.CaseFinished(r, nil)
			continue
		}

		e.observer.CaseStarted(i, total, description)
		r, ex := e.execute(i, tc, description, &cfg.Global, builder, store, limiter)
		agg.Record(r)
		e.observer.CaseFinished(r, ex)

		if r.Outcome == models.Failed && tc.Critical {
			state = models.Aborted
			abortedAt = i
			e.log.WithFields(logrus.Fields{
				"case":   i + 1,
				"reason": r.Reason,
			}).Warn("critical test failed, cancelling remaining tests")
		}
	}

	if state == models.Running {
		state = models.Completed
	}

	summary := agg.Finish(state, abortedAt, time.Now())
	e.log.WithFields(logrus.Fields{
		"state": summary.State,
		"tally": summary.Tally.String(),
		"store": store.Names(),
		"took":  summary.Duration,
	}).Debug("run finished")
	e.observer.RunFinished(summary)
	return summary
}

func (e *Engine) execute(
	index int,
	tc *models.TestCase,
	description string,
	global *models.GlobalConfig,
	builder *Builder,
	store *VariableStore,
	limiter *rate.Limiter,
) (models.CaseResult, *Exchange) {
	tb := ResolveTimeBoundaries(tc, global)
	result := models.CaseResult{
		Index:          index,
		Description:    description,
		Method:         strings.ToUpper(tc.Method),
		Critical:       tc.Critical,
		ExpectedStatus: tc.ExpectedStatus,
		Outcome:        models.Failed,
	}
	ex := &Exchange{Verbose: ResolveVerbose(tc, global)}
	log := e.log.WithFields(logrus.Fields{
		"case":   index + 1,
		"method": result.Method,
		"route":  tc.Route,
	})

	req, err := builder.Build(tc, store)
	if err != nil {
		var resErr *ResolutionError
		if errors.As(err, &resErr) {
			result.FailureKind = models.MissingCapturedVariable
		} else {
			result.FailureKind = models.InvalidRequest
		}
		result.Reason = err.Error()
		log.WithError(err).Debug("request build failed")
		return result, ex
	}
	ex.Request = req
	result.URL = req.URL

	if limiter != nil {
		// Burst is 1 and the context never ends, so Wait only blocks.
		if err := limiter.Wait(context.Background()); err != nil {
			log.WithError(err).Warn("rate limiter wait failed, sending unpaced")
		}
	}

	resp, err := e.client.Send(req)
	if err != nil {
		var (
			timeoutErr   *transport.TimeoutError
			transportErr *transport.TransportError
		)
		switch {
		case errors.As(err, &timeoutErr):
			result.Elapsed = timeoutErr.Elapsed
			result.TimeClass = models.TimedOut
			result.FailureKind = models.Timeout
			result.Reason = timeoutReason(tb)
		case errors.As(err, &transportErr):
			result.Elapsed = transportErr.Elapsed
			result.FailureKind = models.TransportFailure
			result.Reason = err.Error()
		default:
			result.FailureKind = models.TransportFailure
			result.Reason = fmt.Sprintf("transport error: %v", err)
		}
		log.WithError(err).Debug("request failed")
		return result, ex
	}
	ex.Response = resp

	result.Status = resp.Status
	result.Elapsed = resp.Elapsed
	result.TimeClass = Classify(resp.Elapsed, tb)
	log = log.WithFields(logrus.Fields{
		"status":  resp.Status,
		"elapsed": resp.Elapsed,
		"class":   result.TimeClass,
	})

	switch {
	case result.TimeClass == models.TimedOut:
		result.FailureKind = models.Timeout
		result.Reason = timeoutReason(tb)
	case resp.Status != tc.ExpectedStatus:
		result.FailureKind = models.StatusMismatch
		result.Reason = fmt.Sprintf("status mismatch: expected %d, got %d", tc.ExpectedStatus, resp.Status)
	default:
		captured, err := extractCaptures(tc.Capture, resp)
		if err != nil {
			result.FailureKind = models.CaptureKeyNotFound
			result.Reason = err.Error()
			break
		}
		store.commit(captured)
		result.Captured = captured
		result.Outcome = models.Passed
	}

	log.WithField("outcome", result.Outcome).Debug("case finished")
	return result, ex
}

func timeoutReason(tb models.TimeBoundaries) string {
	return fmt.Sprintf("response exceeded configured timeout of %d ms", tb[2])
}
