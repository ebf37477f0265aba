package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveLogin(t *testing.T) {
	m := New()

	m.ObserveLogin(LoginFailure, "unknown_user")
	m.ObserveLogin(LoginFailure, "unknown_user")
	m.ObserveLogin(LoginSuccess, "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues(LoginFailure, "unknown_user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues(LoginSuccess, "")))
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.ObserveRequest("/login", "GET", "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), `conference_http_requests_total{code="200",method="GET",route="/login"} 1`))
	assert.Contains(t, string(body), "conference_http_request_duration_seconds_bucket")
}

func TestTrackSessions(t *testing.T) {
	m := New()
	n := 3
	m.TrackSessions(func() int { return n })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "conference_sessions_stored 3")

	n = 5
	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "conference_sessions_stored 5")
}
