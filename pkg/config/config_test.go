package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Amr-9/rrt/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `
api_address: http://localhost:8080/api
verbose: true
headers:
  X-Client: rrt
rate_limit: 5
tests:
  - it: logs in
    route: /login
    method: POST
    status: 200
    critical: true
    json_body:
      user: alice
      tags: [a, b]
    capture:
      token: access_token
      request_id: header:X-Request-Id
  - description: reads profile
    route: /me
    method: get
    status: 200
    bearer_token: token
    time_boundaries: [10, 20, 30]
    verbose: false
  - route: /health
    method: GET
    status: 204
    auto_description: false
`

func TestParseFullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig))
	require.NoError(t, err)

	g := cfg.Global
	assert.Equal(t, "http://localhost:8080/api", g.APIAddress)
	assert.True(t, g.Verbose)
	assert.True(t, g.HTTP2)
	assert.Equal(t, models.DefaultTimeBoundaries, g.TimeBoundaries)
	assert.Equal(t, map[string]string{"X-Client": "rrt"}, g.Headers)
	assert.Equal(t, 5, g.RateLimit)

	require.Len(t, cfg.Tests, 3)

	login := cfg.Tests[0]
	assert.Equal(t, "logs in", login.Description)
	assert.True(t, login.Critical)
	assert.Equal(t, map[string]string{"token": "access_token", "request_id": "header:X-Request-Id"}, login.Capture)
	body, ok := login.JSONBody.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "alice", body["user"])
	assert.Equal(t, []interface{}{"a", "b"}, body["tags"])

	me := cfg.Tests[1]
	assert.Equal(t, "reads profile", me.Description)
	assert.Equal(t, "token", me.BearerToken)
	require.NotNil(t, me.TimeBoundaries)
	assert.Equal(t, models.TimeBoundaries{10, 20, 30}, *me.TimeBoundaries)
	require.NotNil(t, me.Verbose)
	assert.False(t, *me.Verbose)

	health := cfg.Tests[2]
	assert.Empty(t, health.Description)
	require.NotNil(t, health.AutoDescription)
	assert.False(t, *health.AutoDescription)
	assert.Nil(t, health.TimeBoundaries)
}

func TestParseReportsAllProblems(t *testing.T) {
	_, err := Parse([]byte(`
verbose: true
tests: []
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_address")
	assert.Contains(t, err.Error(), "at least one test case is required")
}

func TestParseRejectsBadBoundaries(t *testing.T) {
	_, err := Parse([]byte(`
api_address: http://localhost
time_boundaries: [100, 200]
tests:
  - route: /
    method: GET
    status: 200
    time_boundaries: [300, 200, 100]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected exactly 3 values, got 2")
	assert.Contains(t, err.Error(), "tests[0].time_boundaries")
	assert.Contains(t, err.Error(), "strictly increasing")
}

func TestParseSuggestsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(`
api_adress: http://localhost
tests:
  - rout: /
    method: GTE
    status: 200
`))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `Did you mean: "api_address"?`)
	assert.Contains(t, msg, `Did you mean: "route"?`)
	assert.Contains(t, msg, `Did you mean: "GET"?`)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	_, err := Parse([]byte(`
api_address: localhost:8080
rate_limit: -1
to_file: /definitely/not/a/dir
data:
  - name: users
tests:
  - route: /
    method: GET
    status: 42
    capture:
      token: ""
`))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "not an absolute URI")
	assert.Contains(t, msg, "rate limit cannot be negative")
	assert.Contains(t, msg, "not an existing directory")
	assert.Contains(t, msg, "data source needs both name and path")
	assert.Contains(t, msg, "missing or invalid expected status")
	assert.Contains(t, msg, "capture entries need a variable name and a response key")
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("tests: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	off := false
	tb := models.TimeBoundaries{1, 2, 3}
	cfg := &models.Config{
		Global: models.GlobalConfig{
			APIAddress:     "https://api.example.com",
			TimeBoundaries: models.TimeBoundaries{100, 200, 300},
			Headers:        map[string]string{"Accept": "application/json"},
			HTTP2:          false,
			Data:           []models.DataSource{{Name: "users", Path: "users.csv"}},
		},
		Tests: []models.TestCase{
			{Description: "login", Route: "/login", Method: "POST", ExpectedStatus: 201, Critical: true,
				Capture: map[string]string{"token": "token"}},
			{Route: "/me", Method: "GET", ExpectedStatus: 200, BearerToken: "token",
				TimeBoundaries: &tb, AutoDescription: &off},
		},
	}

	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, SaveConfig(path, cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# rrt -f "+DefaultFileName)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLocate(t *testing.T) {
	path, err := Locate("custom.yaml")
	require.NoError(t, err)
	assert.Equal(t, "custom.yaml", path)

	path, err = Locate("")
	require.NoError(t, err)
	cwd, _ := os.Getwd()
	assert.Equal(t, filepath.Join(cwd, DefaultFileName), path)
}

func TestFindClosestMatch(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"staus", "status"},
		{"bearer_tokn", "bearer_token"},
		{"status", ""},
		{"zzzzzzzz", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FindClosestMatch(tt.input, validTestFields))
		})
	}
}

func TestValidateHTTPMethod(t *testing.T) {
	ok, _ := ValidateHTTPMethod("patch")
	assert.True(t, ok)

	ok, suggestion := ValidateHTTPMethod("POTS")
	assert.False(t, ok)
	assert.Equal(t, "POST", suggestion)
}
