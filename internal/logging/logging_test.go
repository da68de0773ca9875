package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewAddsServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", ServiceName: "livechat"}, &buf)
	logger.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "livechat", line[FieldService])
	assert.Equal(t, "hello", line["message"])
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{}, &buf)

	ctx := WithLogger(context.Background(), logger)
	l := Ctx(ctx)
	l.Info().Msg("scoped")
	assert.Contains(t, buf.String(), "scoped")

	assert.NotPanics(t, func() {
		l := Ctx(context.Background())
		_ = l.Debug()
	})
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{}, &buf)

	var scoped bool
	handler := HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := Ctx(r.Context())
		l.Info().Msg("inside")
		scoped = true
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generates a request id", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", http.NoBody))

		assert.True(t, scoped)
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
		assert.Contains(t, buf.String(), `"status":418`)
		assert.Contains(t, buf.String(), `"path":"/api/users"`)
	})

	t.Run("keeps an incoming request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
		req.Header.Set(HeaderRequestID, "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
		assert.Contains(t, buf.String(), `"request_id":"abc-123"`)
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", ClientIP(req))

	req.Header.Set("X-Real-IP", " 192.168.1.2 ")
	assert.Equal(t, "192.168.1.2", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}
