package engine

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Amr-9/rrt/internal/transport"
	"github.com/Amr-9/rrt/pkg/models"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient answers requests from a route table and records what was sent.
type fakeClient struct {
	routes map[string]fakeReply
	sent   []*transport.Request
}

type fakeReply struct {
	status  int
	body    string
	header  http.Header
	elapsed time.Duration
	err     error
}

func (c *fakeClient) Send(req *transport.Request) (*transport.Response, error) {
	c.sent = append(c.sent, req)
	reply, ok := c.routes[req.Method+" "+req.URL]
	if !ok {
		return &transport.Response{Status: http.StatusNotFound, Elapsed: time.Millisecond}, nil
	}
	if reply.err != nil {
		return nil, reply.err
	}
	elapsed := reply.elapsed
	if elapsed == 0 {
		elapsed = 10 * time.Millisecond
	}
	return &transport.Response{
		Status:  reply.status,
		Header:  reply.header,
		Body:    []byte(reply.body),
		Elapsed: elapsed,
	}, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestEngine(client transport.Client, opts ...Option) *Engine {
	return New(client, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func testConfig(tests ...models.TestCase) *models.Config {
	return &models.Config{
		Global: models.GlobalConfig{
			APIAddress:     "http://api.test",
			TimeBoundaries: models.DefaultTimeBoundaries,
		},
		Tests: tests,
	}
}

type recordingObserver struct {
	started  []int
	finished []models.CaseResult
	summary  *models.RunSummary
}

func (o *recordingObserver) RunStarted(*models.Config) {}
func (o *recordingObserver) CaseStarted(index, _ int, _ string) {
	o.started = append(o.started, index)
}
func (o *recordingObserver) CaseFinished(r models.CaseResult, _ *Exchange) {
	o.finished = append(o.finished, r)
}
func (o *recordingObserver) RunFinished(s *models.RunSummary) { o.summary = s }

func TestRun_CriticalFailureCancelsRemaining(t *testing.T) {
	client := &fakeClient{routes: map[string]fakeReply{
		"GET http://api.test/health":   {status: 200},
		"POST http://api.test/login":   {status: 500},
		"GET http://api.test/products": {status: 200},
	}}
	obs := &recordingObserver{}
	cfg := testConfig(
		models.TestCase{Description: "health", Route: "/health", Method: "GET", ExpectedStatus: 200},
		models.TestCase{Description: "login", Route: "/login", Method: "POST", ExpectedStatus: 200,
			Capture: map[string]string{"bearer": "token"}, Critical: true},
		models.TestCase{Description: "products", Route: "/products", Method: "GET", ExpectedStatus: 200},
	)

	summary := newTestEngine(client, WithObserver(obs)).Run(cfg)

	require.Len(t, summary.Results, 3)
	assert.Equal(t, models.Passed, summary.Results[0].Outcome)
	assert.Equal(t, models.Failed, summary.Results[1].Outcome)
	assert.Equal(t, models.StatusMismatch, summary.Results[1].FailureKind)
	assert.Equal(t, models.Cancelled, summary.Results[2].Outcome)

	assert.Equal(t, models.Aborted, summary.State)
	assert.True(t, summary.Aborted)
	assert.Equal(t, 1, summary.AbortedAt)
	assert.Equal(t, "login", summary.AbortedBy())
	assert.Equal(t, models.Tally{Total: 3, Passed: 1, Failed: 1, Cancelled: 1}, summary.Tally)
	assert.False(t, summary.OK())

	require.Len(t, client.sent, 2, "cancelled case must not be dispatched")
	assert.Equal(t, []int{0, 1}, obs.started)
	assert.Len(t, obs.finished, 3)
	assert.Same(t, summary, obs.summary)
}

func TestRun_NonCriticalFailureContinues(t *testing.T) {
	client := &fakeClient{routes: map[string]fakeReply{
		"GET http://api.test/a": {status: 500},
		"GET http://api.test/b": {status: 200},
	}}
	cfg := testConfig(
		models.TestCase{Route: "/a", Method: "GET", ExpectedStatus: 200},
		models.TestCase{Route: "/b", Method: "GET", ExpectedStatus: 200},
	)

	summary := newTestEngine(client).Run(cfg)

	assert.Equal(t, models.Completed, summary.State)
	assert.Equal(t, -1, summary.AbortedAt)
	assert.Equal(t, models.Failed, summary.Results[0].Outcome)
	assert.Equal(t, models.Passed, summary.Results[1].Outcome)
	assert.Len(t, client.sent, 2)
}

func TestRun_CaptureFeedsBearerToken(t *testing.T) {
	client := &fakeClient{routes: map[string]fakeReply{
		"POST http://api.test/login": {status: 200, body: `{"token":"abc123"}`},
		"GET http://api.test/me":     {status: 200, body: `{}`},
	}}
	cfg := testConfig(
		models.TestCase{Route: "/login", Method: "POST", ExpectedStatus: 200,
			Capture: map[string]string{"bearer": "token"}},
		models.TestCase{Route: "/me", Method: "GET", ExpectedStatus: 200, BearerToken: "bearer"},
	)

	summary := newTestEngine(client).Run(cfg)

	require.True(t, summary.OK(), summary.Tally.String())
	assert.Equal(t, map[string]string{"bearer": "abc123"}, summary.Results[0].Captured)
	require.Len(t, client.sent, 2)
	assert.Equal(t, "Bearer abc123", client.sent[1].Header.Get("Authorization"))
}

func TestRun_CapturesNotVisibleToEarlierCases(t *testing.T) {
	client := &fakeClient{routes: map[string]fakeReply{
		"GET http://api.test/me":     {status: 200},
		"POST http://api.test/login": {status: 200, body: `{"token":"abc123"}`},
	}}
	cfg := testConfig(
		models.TestCase{Route: "/me", Method: "GET", ExpectedStatus: 200, BearerToken: "bearer"},
		models.TestCase{Route: "/login", Method: "POST", ExpectedStatus: 200,
			Capture: map[string]string{"bearer": "token"}},
	)

	summary := newTestEngine(client).Run(cfg)

	assert.Equal(t, models.Failed, summary.Results[0].Outcome)
	assert.Equal(t, models.MissingCapturedVariable, summary.Results[0].FailureKind)
	assert.Contains(t, summary.Results[0].Reason, `"bearer"`)
	assert.Equal(t, models.Passed, summary.Results[1].Outcome)
	require.Len(t, client.sent, 1, "unauthenticated request must not be sent")
	assert.Equal(t, "http://api.test/login", client.sent[0].URL)
}

func TestRun_StatusMismatchCitesBothCodes(t *testing.T) {
	client := &fakeClient{routes: map[string]fakeReply{
		"GET http://api.test/secret": {status: 401, elapsed: 5 * time.Millisecond},
	}}
	cfg := testConfig(models.TestCase{Route: "/secret", Method: "GET", ExpectedStatus: 200})

	r := newTestEngine(client).Run(cfg).Results[0]

	assert.Equal(t, models.Failed, r.Outcome)
	assert.Equal(t, models.StatusMismatch, r.FailureKind)
	assert.Contains(t, r.Reason, "200")
	assert.Contains(t, r.Reason, "401")
	assert.Equal(t, 401, r.Status)
	assert.Equal(t, models.Fast, r.TimeClass)
}

func TestRun_MissingCaptureKeyFailsCase(t *testing.T) {
	client := &fakeClient{routes: map[string]fakeReply{
		"POST http://api.test/login": {status: 200, body: `{"access":"x","user":"bob"}`},
	}}
	cfg := testConfig(models.TestCase{Route: "/login", Method: "POST", ExpectedStatus: 200,
		Capture: map[string]string{"name": "user", "bearer": "token"}})

	r := newTestEngine(client).Run(cfg).Results[0]

	assert.Equal(t, models.Failed, r.Outcome)
	assert.Equal(t, models.CaptureKeyNotFound, r.FailureKind)
	assert.Contains(t, r.Reason, "token")
	assert.Nil(t, r.Captured)
	assert.Equal(t, 200, r.Status)
}

func TestRun_TimeoutAndTransportErrors(t *testing.T) {
	client := &fakeClient{routes: map[string]fakeReply{
		"GET http://api.test/slow": {err: &transport.TimeoutError{Timeout: time.Second, Elapsed: time.Second}},
		"GET http://api.test/down": {err: &transport.TransportError{Err: errors.New("connection refused")}},
		"GET http://api.test/late": {status: 200, elapsed: 2 * time.Second},
	}}
	tb := models.TimeBoundaries{100, 500, 1000}
	cfg := testConfig(
		models.TestCase{Route: "/slow", Method: "GET", ExpectedStatus: 200, TimeBoundaries: &tb},
		models.TestCase{Route: "/down", Method: "GET", ExpectedStatus: 200},
		models.TestCase{Route: "/late", Method: "GET", ExpectedStatus: 200, TimeBoundaries: &tb},
	)

	summary := newTestEngine(client).Run(cfg)

	slow := summary.Results[0]
	assert.Equal(t, models.Failed, slow.Outcome)
	assert.Equal(t, models.TimedOut, slow.TimeClass)
	assert.Equal(t, models.Timeout, slow.FailureKind)
	assert.Equal(t, "response exceeded configured timeout of 1000 ms", slow.Reason)
	assert.False(t, slow.Responded())

	down := summary.Results[1]
	assert.Equal(t, models.TransportFailure, down.FailureKind)
	assert.Contains(t, down.Reason, "connection refused")

	late := summary.Results[2]
	assert.Equal(t, models.Failed, late.Outcome)
	assert.Equal(t, models.TimedOut, late.TimeClass)

	assert.Equal(t, 2, summary.Tally.TimedOut)
	assert.Equal(t, 3, summary.Tally.Failed)
	assert.Equal(t, models.Completed, summary.State)

	assert.Equal(t, time.Second, client.sent[0].Timeout)
	assert.Equal(t, 10*time.Second, client.sent[1].Timeout)
}

func TestRun_RunsAreIndependent(t *testing.T) {
	client := &fakeClient{routes: map[string]fakeReply{
		"POST http://api.test/login": {status: 200, body: `{"token":"abc123"}`},
		"GET http://api.test/me":     {status: 200},
	}}
	e := newTestEngine(client)

	first := e.Run(testConfig(models.TestCase{Route: "/login", Method: "POST", ExpectedStatus: 200,
		Capture: map[string]string{"bearer": "token"}}))
	second := e.Run(testConfig(models.TestCase{Route: "/me", Method: "GET", ExpectedStatus: 200, BearerToken: "bearer"}))

	assert.True(t, first.OK())
	assert.Equal(t, models.MissingCapturedVariable, second.Results[0].FailureKind)
}

func TestRun_TemplatesUseFixturesAndGenerators(t *testing.T) {
	client := &fakeClient{routes: map[string]fakeReply{
		"POST http://api.test/users/alice": {status: 201},
	}}
	gen := &Generators{
		Now:  func() time.Time { return time.Unix(1700000000, 0) },
		IntN: func(int) int { return 0 },
		UUID: func() string { return "00000000-0000-0000-0000-000000000001" },
	}
	cfg := testConfig(models.TestCase{
		Route:          "/users/{{users.name}}",
		Method:         "post",
		ExpectedStatus: 201,
		Headers:        map[string]string{"X-Request-ID": "{{uuid}}"},
		JSONBody:       map[string]interface{}{"created": "{{timestamp}}"},
	})

	summary := newTestEngine(client,
		WithGenerators(gen),
		WithFixtures(map[string]string{"users.name": "alice"}),
	).Run(cfg)

	require.True(t, summary.OK(), summary.Results[0].Reason)
	req := client.sent[0]
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", req.Header.Get("X-Request-ID"))
	assert.JSONEq(t, `{"created":"1700000000"}`, string(req.Body))
}

func TestRun_CriticalFailureKindsAbort(t *testing.T) {
	tb := models.TimeBoundaries{100, 500, 1000}
	tests := []struct {
		name     string
		critical models.TestCase
		reply    fakeReply
		kind     models.FailureKind
		sent     int
	}{
		{
			name:     "missing bearer source",
			critical: models.TestCase{Route: "/first", Method: "GET", ExpectedStatus: 200, BearerToken: "nope"},
			kind:     models.MissingCapturedVariable,
			sent:     0,
		},
		{
			name:     "invalid request",
			critical: models.TestCase{Route: "/first/{{regex([)}}", Method: "GET", ExpectedStatus: 200},
			kind:     models.InvalidRequest,
			sent:     0,
		},
		{
			name:     "transport error",
			critical: models.TestCase{Route: "/first", Method: "GET", ExpectedStatus: 200},
			reply:    fakeReply{err: &transport.TransportError{Err: errors.New("connection refused")}},
			kind:     models.TransportFailure,
			sent:     1,
		},
		{
			name:     "timeout",
			critical: models.TestCase{Route: "/first", Method: "GET", ExpectedStatus: 200, TimeBoundaries: &tb},
			reply:    fakeReply{err: &transport.TimeoutError{Timeout: time.Second, Elapsed: time.Second}},
			kind:     models.Timeout,
			sent:     1,
		},
		{
			name:     "late response",
			critical: models.TestCase{Route: "/first", Method: "GET", ExpectedStatus: 200, TimeBoundaries: &tb},
			reply:    fakeReply{status: 200, elapsed: 2 * time.Second},
			kind:     models.Timeout,
			sent:     1,
		},
		{
			name: "capture key missing",
			critical: models.TestCase{Route: "/first", Method: "GET", ExpectedStatus: 200,
				Capture: map[string]string{"bearer": "token"}},
			reply: fakeReply{status: 200, body: `{"user":"bob"}`},
			kind:  models.CaptureKeyNotFound,
			sent:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{routes: map[string]fakeReply{
				"GET http://api.test/first":  tt.reply,
				"GET http://api.test/second": {status: 200},
				"GET http://api.test/third":  {status: 200},
			}}
			critical := tt.critical
			critical.Critical = true
			cfg := testConfig(
				critical,
				models.TestCase{Route: "/second", Method: "GET", ExpectedStatus: 200},
				models.TestCase{Route: "/third", Method: "GET", ExpectedStatus: 200},
			)

			summary := newTestEngine(client).Run(cfg)

			assert.Equal(t, models.Aborted, summary.State)
			assert.Equal(t, 0, summary.AbortedAt)
			require.Len(t, summary.Results, 3)
			assert.Equal(t, models.Failed, summary.Results[0].Outcome)
			assert.Equal(t, tt.kind, summary.Results[0].FailureKind)
			for _, r := range summary.Results[1:] {
				assert.Equal(t, models.Cancelled, r.Outcome)
				assert.Equal(t, "not run: critical test 1 failed", r.Reason)
			}
			want := models.Tally{Total: 3, Failed: 1, Cancelled: 2}
			if tt.kind == models.Timeout {
				want.TimedOut = 1
			}
			assert.Equal(t, want, summary.Tally)
			assert.Len(t, client.sent, tt.sent)
		})
	}
}

func TestRun_LogsStateTransitions(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	client := &fakeClient{routes: map[string]fakeReply{"GET http://api.test/a": {status: 200}}}

	New(client, WithLogger(log)).Run(testConfig(models.TestCase{Route: "/a", Method: "GET", ExpectedStatus: 200}))

	entries := hook.AllEntries()
	require.NotEmpty(t, entries)
	first, last := entries[0], hook.LastEntry()
	assert.Equal(t, "run starting", first.Message)
	assert.Equal(t, models.Pending, first.Data["state"])
	assert.Equal(t, "run finished", last.Message)
	assert.Equal(t, models.Completed, last.Data["state"])
	assert.Equal(t, []string{}, last.Data["store"])
}

func TestRun_RateLimitPacesRequests(t *testing.T) {
	client := &fakeClient{routes: map[string]fakeReply{"GET http://api.test/a": {status: 200}}}
	tc := models.TestCase{Route: "/a", Method: "GET", ExpectedStatus: 200}
	cfg := testConfig(tc, tc, tc)
	cfg.Global.RateLimit = 20

	start := time.Now()
	summary := newTestEngine(client).Run(cfg)

	assert.True(t, summary.OK())
	assert.Len(t, client.sent, 3)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
