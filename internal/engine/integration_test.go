package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amr-9/rrt/internal/transport"
	"github.com/Amr-9/rrt/pkg/models"
	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a small login-protected service.
func fakeAPI() http.Handler {
	router := mux.NewRouter()
	router.Handle("/health", httphelpers.HandlerWithStatus(http.StatusOK)).Methods("GET")
	router.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			User string `json:"user"`
		}
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.User == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-` + creds.User + `"}`))
	}).Methods("POST")
	router.HandleFunc("/users/{name}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-"+mux.Vars(r)["name"] {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	return router
}

func TestRun_AgainstHTTPServer(t *testing.T) {
	httphelpers.WithServer(fakeAPI(), func(server *httptest.Server) {
		cfg := &models.Config{
			Global: models.GlobalConfig{
				APIAddress:     server.URL,
				TimeBoundaries: models.DefaultTimeBoundaries,
			},
			Tests: []models.TestCase{
				{Description: "health", Route: "/health", Method: "GET", ExpectedStatus: 200},
				{Description: "login", Route: "/login", Method: "POST", ExpectedStatus: 200,
					JSONBody: map[string]interface{}{"user": "alice"},
					Capture:  map[string]string{"bearer": "token"}, Critical: true},
				{Description: "profile", Route: "/users/alice", Method: "GET", ExpectedStatus: 200, BearerToken: "bearer"},
				{Description: "other profile", Route: "/users/bob", Method: "GET", ExpectedStatus: 200, BearerToken: "bearer"},
			},
		}

		summary := newTestEngine(transport.NewHTTPClient(transport.Options{})).Run(cfg)

		require.Len(t, summary.Results, 4)
		assert.Equal(t, models.Completed, summary.State)
		assert.Equal(t, models.Tally{Total: 4, Passed: 3, Failed: 1}, summary.Tally)
		assert.Equal(t, "tok-alice", summary.Results[1].Captured["bearer"])
		assert.Equal(t, 401, summary.Results[3].Status)
		assert.Equal(t, models.StatusMismatch, summary.Results[3].FailureKind)
		assert.Equal(t, int64(4), summary.Latency.Count)
	})
}
