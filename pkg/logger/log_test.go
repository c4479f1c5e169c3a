package logger

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeHeadersRedaction(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/memory/recent", nil)
	r.Header.Set("Authorization", "Bearer secret-token")
	r.Header.Set("Cookie", "session=abc")
	r.Header.Set("Accept", "application/json")

	s := SafeHeaders(r)
	require.NotContains(t, s, "secret-token")
	require.NotContains(t, s, "session=abc")
	require.Contains(t, s, "Authorization=<redacted>")
	require.Contains(t, s, "Accept=application/json")
}

func TestInitWithLevel(t *testing.T) {
	ctx := context.Background()

	InitWithLevel("debug")
	require.NotNil(t, Log)
	require.True(t, Log.Enabled(ctx, slog.LevelDebug))

	InitWithLevel("error")
	require.False(t, Log.Enabled(ctx, slog.LevelInfo))
}
