package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tyrowin/livechat/internal/logging"
)

func TestOriginPolicy(t *testing.T) {
	p := newOriginPolicy([]string{"http://Localhost:8080", "not a url", " https://chat.example "}, logging.Nop())

	assert.True(t, p.allows("http://localhost:8080"))
	assert.True(t, p.allows("HTTPS://CHAT.EXAMPLE"))
	assert.False(t, p.allows("http://evil.example"))
	assert.False(t, p.allows(""))
	assert.False(t, p.allows("localhost:8080"))

	all := newOriginPolicy([]string{"*"}, logging.Nop())
	assert.True(t, all.allows("http://anything.example"))
	assert.True(t, all.allows(""), "the wildcard also admits clients that send no origin")
}

func TestCheckOrigin(t *testing.T) {
	p := newOriginPolicy([]string{"http://localhost:8080"}, logging.Nop())

	r := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	assert.False(t, p.checkOrigin(r))

	r.Header.Set("Origin", "http://localhost:8080")
	assert.True(t, p.checkOrigin(r))
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin is echoed", func(t *testing.T) {
		h := newOriginPolicy([]string{"http://localhost:8080"}, logging.Nop()).cors(next)
		req := httptest.NewRequest(http.MethodGet, "/api/users", http.NoBody)
		req.Header.Set("Origin", "http://localhost:8080")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, HEAD, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("wildcard", func(t *testing.T) {
		h := newOriginPolicy([]string{"*"}, logging.Nop()).cors(next)
		req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
		req.Header.Set("Origin", "http://elsewhere.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin gets no headers", func(t *testing.T) {
		h := newOriginPolicy([]string{"http://localhost:8080"}, logging.Nop()).cors(next)
		req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		h := newOriginPolicy([]string{"*"}, logging.Nop()).cors(next)
		req := httptest.NewRequest(http.MethodOptions, "/api/messages", http.NoBody)
		req.Header.Set("Origin", "http://elsewhere.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
