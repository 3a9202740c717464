package models

import (
	"fmt"
	"time"
)

// TimeBoundaries is the [fast_ceiling, slow_ceiling, timeout] triple in milliseconds.
type TimeBoundaries [3]int64

// DefaultTimeBoundaries is used when neither the case nor the global config sets boundaries.
var DefaultTimeBoundaries = TimeBoundaries{500, 1000, 10000}

func (tb TimeBoundaries) Fast() time.Duration    { return time.Duration(tb[0]) * time.Millisecond }
func (tb TimeBoundaries) Slow() time.Duration    { return time.Duration(tb[1]) * time.Millisecond }
func (tb TimeBoundaries) Timeout() time.Duration { return time.Duration(tb[2]) * time.Millisecond }

// Valid reports whether all values are positive and strictly increasing.
func (tb TimeBoundaries) Valid() bool {
	return tb[0] > 0 && tb[0] < tb[1] && tb[1] < tb[2]
}

// DataSource defines a CSV fixture file readable from templates as {{name.column}}
type DataSource struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// GlobalConfig holds the settings shared by every test case of a run.
type GlobalConfig struct {
	APIAddress     string            `json:"api_address"`
	Verbose        bool              `json:"verbose"`
	ToFile         string            `json:"to_file,omitempty"`
	TimeBoundaries TimeBoundaries    `json:"time_boundaries"`
	Headers        map[string]string `json:"headers,omitempty"`
	Insecure       bool              `json:"insecure"`
	HTTP2          bool              `json:"http2"`
	RateLimit      int               `json:"rate_limit,omitempty"` // Requests per second, 0 = unpaced
	Data           []DataSource      `json:"data,omitempty"`
}

// TestCase is one declarative request/expectation unit.
// Pointer fields are optional overrides of the global settings.
type TestCase struct {
	Description     string            `json:"description,omitempty"`
	Route           string            `json:"route"`
	Method          string            `json:"method"`
	ExpectedStatus  int               `json:"status"`
	TimeBoundaries  *TimeBoundaries   `json:"time_boundaries,omitempty"`
	Verbose         *bool             `json:"verbose,omitempty"`
	AutoDescription *bool             `json:"auto_description,omitempty"`
	JSONBody        interface{}       `json:"json_body,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	Capture         map[string]string `json:"capture,omitempty"` // local variable -> top-level response key
	BearerToken     string            `json:"bearer_token,omitempty"`
	Critical        bool              `json:"critical,omitempty"`
}

// Config is the validated, immutable input of a run.
type Config struct {
	Global GlobalConfig `json:"global"`
	Tests  []TestCase   `json:"tests"`
}

// Outcome is the final state of a single case.
type Outcome string

const (
	Passed    Outcome = "Passed"
	Failed    Outcome = "Failed"
	Cancelled Outcome = "Cancelled"
)

// TimeClass classifies the elapsed time of a received response.
type TimeClass string

const (
	Unclassified TimeClass = ""
	Fast         TimeClass = "Fast"
	Moderate     TimeClass = "Moderate"
	Slow         TimeClass = "Slow"
	TimedOut     TimeClass = "TimedOut"
)

// FailureKind names why a case failed.
type FailureKind string

const (
	NoFailure               FailureKind = ""
	MissingCapturedVariable FailureKind = "MissingCapturedVariable"
	StatusMismatch          FailureKind = "StatusMismatch"
	Timeout                 FailureKind = "TimedOut"
	TransportFailure        FailureKind = "TransportError"
	CaptureKeyNotFound      FailureKind = "CaptureKeyNotFound"
	InvalidRequest          FailureKind = "InvalidRequest"
)

// RunState is the state of the execution engine.
type RunState string

const (
	Pending   RunState = "Pending"
	Running   RunState = "Running"
	Completed RunState = "Completed"
	Aborted   RunState = "Aborted"
)

// CaseResult is the recorded outcome of one test case
type CaseResult struct {
	Index          int               `json:"index"`
	Description    string            `json:"description"`
	Method         string            `json:"method"`
	URL            string            `json:"url,omitempty"`
	Critical       bool              `json:"critical,omitempty"`
	Outcome        Outcome           `json:"outcome"`
	ExpectedStatus int               `json:"expected_status"`
	Status         int               `json:"status,omitempty"` // 0 when no response was received
	Elapsed        time.Duration     `json:"elapsed"`
	TimeClass      TimeClass         `json:"time_class,omitempty"`
	FailureKind    FailureKind       `json:"failure_kind,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	Captured       map[string]string `json:"captured,omitempty"`
}

// Responded reports whether the request completed with a response.
func (r CaseResult) Responded() bool {
	return r.Status > 0
}

// LatencyStats summarises elapsed times of cases that received a response.
type LatencyStats struct {
	Count int64         `json:"count"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P90   time.Duration `json:"p90"`
	P99   time.Duration `json:"p99"`
}

// Tally holds the final counts of a run.
type Tally struct {
	Total     int `json:"total"`
	Passed    int `json:"passed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	TimedOut  int `json:"timed_out"` // Subset of Failed
}

// RunSummary is the ordered outcome of a run.
type RunSummary struct {
	APIAddress string              `json:"api_address"`
	State      RunState            `json:"state"`
	Started    time.Time           `json:"started"`
	Duration   time.Duration       `json:"duration"`
	Results    []CaseResult        `json:"results"`
	Tally      Tally               `json:"tally"`
	Aborted    bool                `json:"aborted"`
	AbortedAt  int                 `json:"aborted_at"` // Index of the failed critical case, -1 if not aborted
	Latency    LatencyStats        `json:"latency"`
	TimeClass  map[TimeClass]int   `json:"time_classes,omitempty"`
	Reasons    map[FailureKind]int `json:"failure_kinds,omitempty"`
	Errors     map[string]int      `json:"errors,omitempty"` // Sanitized failure reasons
}

// OK reports whether every case passed.
func (s *RunSummary) OK() bool {
	return s.Tally.Failed == 0 && s.Tally.Cancelled == 0
}

// AbortedBy returns the description of the critical case that aborted the run.
func (s *RunSummary) AbortedBy() string {
	if !s.Aborted || s.AbortedAt < 0 || s.AbortedAt >= len(s.Results) {
		return ""
	}
	return s.Results[s.AbortedAt].Description
}

func (t Tally) String() string {
	return fmt.Sprintf("%d passed, %d failed, %d cancelled", t.Passed, t.Failed, t.Cancelled)
}
