package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestIssueAndVerifyToken(t *testing.T) {
	tok, err := IssueToken(testSecret, "handheld", time.Hour)
	require.NoError(t, err)

	device, err := VerifyToken(testSecret, tok)
	require.NoError(t, err)
	require.Equal(t, "handheld", device)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	tok, err := IssueToken(testSecret, "handheld", time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken("other-secret", tok)
	require.Error(t, err)
}

func TestVerifyTokenExpired(t *testing.T) {
	tok, err := IssueToken(testSecret, "handheld", -time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(testSecret, tok)
	require.Error(t, err)
}

func newProtectedServer(cfg SecConfig) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("device=" + DeviceFromContext(r.Context())))
	})
	return Middleware(cfg)(inner)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	h := newProtectedServer(SecConfig{Secret: testSecret})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/memory/store", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	h := newProtectedServer(SecConfig{Secret: testSecret})

	tok, err := IssueToken(testSecret, "handheld", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/memory/recent", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "device=handheld", rec.Body.String())
}

func TestMiddlewareRejectsGarbageToken(t *testing.T) {
	h := newProtectedServer(SecConfig{Secret: testSecret})

	req := httptest.NewRequest(http.MethodGet, "/api/memory/recent", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareExemptPaths(t *testing.T) {
	h := newProtectedServer(SecConfig{Secret: testSecret})

	for _, path := range []string{"/api/health", "/healthz", "/readyz", "/metrics", "/openapi.yaml", "/docs/"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}

	// exemption for probes is GET-only
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/health", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareEmptySecretDisablesAuth(t *testing.T) {
	h := newProtectedServer(SecConfig{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/memory/store", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "device=", rec.Body.String())
}

func TestMiddlewareRateLimit(t *testing.T) {
	h := newProtectedServer(SecConfig{RPS: 1, Burst: 2})

	codes := map[int]int{}
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/memory/recent", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[rec.Code]++
	}
	require.Equal(t, 2, codes[http.StatusOK])
	require.Equal(t, 3, codes[http.StatusTooManyRequests])
}

func TestMiddlewareIPWhitelist(t *testing.T) {
	h := newProtectedServer(SecConfig{IPWhitelist: []string{"10.0.0.1"}})

	req := httptest.NewRequest(http.MethodGet, "/api/memory/recent", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/memory/recent", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareCORSPreflight(t *testing.T) {
	h := newProtectedServer(SecConfig{Secret: testSecret, AllowedOrigins: []string{"https://app.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/memory/store", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	// unknown origins get no CORS headers
	req = httptest.NewRequest(http.MethodOptions, "/api/memory/store", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
