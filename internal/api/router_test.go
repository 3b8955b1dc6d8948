package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samhotchkiss/trackshare/internal/middleware"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

func testAuth() *middleware.Authenticator {
	return middleware.NewAuthenticator(testSecret)
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := testAuth().IssueToken(userID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouterSetup(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterDeps{Auth: testAuth(), Version: "1.2.3"})

	for _, tc := range []struct {
		name   string
		target string
	}{
		{name: "health", target: "/health"},
		{name: "root", target: "/"},
	} {
		req := httptest.NewRequest(http.MethodGet, tc.target, nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status %d, got %d", tc.name, http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
			t.Fatalf("%s: expected content-type application/json, got %q", tc.name, ct)
		}
	}
}

func TestHealthEndpointFields(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterDeps{Version: "1.2.3"})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	for _, field := range []string{"status", "uptime", "version", "timestamp"} {
		if payload[field] == "" {
			t.Fatalf("expected %s to be set, got empty", field)
		}
	}
	require.Equal(t, "1.2.3", payload["version"])
	_, err := time.Parse(time.RFC3339, payload["timestamp"])
	require.NoError(t, err)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterDeps{Auth: testAuth()})
	req := httptest.NewRequest(http.MethodOptions, "/api/activity", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK && rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 200 or 204, got %d", rec.Code)
	}
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
}

func TestUnsupportedMethodReturnsJSON405(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterDeps{Auth: testAuth()})
	for _, target := range []string{"/api/activity", "/api/recommendations", "/health"} {
		req := httptest.NewRequest(http.MethodDelete, target, nil)
		req.Header.Set("Authorization", bearer(t, "user-1"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, target)
		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "Method not allowed", body.Error)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterDeps{Auth: testAuth()})
	for _, tc := range []struct {
		method string
		target string
		header string
	}{
		{http.MethodGet, "/api/activity", ""},
		{http.MethodGet, "/api/notifications", "Bearer nope"},
		{http.MethodPost, "/api/notifications", ""},
		{http.MethodGet, "/api/recommendations", "Basic abc"},
		{http.MethodPost, "/api/share", ""},
		{http.MethodGet, "/api/metrics", ""},
	} {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code, tc.target)
		require.JSONEq(t, `{"error":"Authentication required"}`, rec.Body.String())
	}
}

func TestMissingServicesReturn503(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterDeps{Auth: testAuth()})
	for _, target := range []string{"/api/activity", "/api/notifications", "/api/recommendations"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", bearer(t, "user-1"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterDeps{Auth: testAuth()})
	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	req.Header.Set("Authorization", bearer(t, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Contains(t, payload, "sources")
	require.Contains(t, payload, "generated_at")
}
