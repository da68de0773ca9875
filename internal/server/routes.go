package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Tyrowin/livechat/internal/logging"
)

// SetupRoutes registers every endpoint and wraps the mux in request logging.
func SetupRoutes(h *Handlers, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.WebSocket)
	mux.Handle("/health", h.origins.cors(http.HandlerFunc(h.Health)))
	mux.Handle("/api/users", h.origins.cors(http.HandlerFunc(h.Users)))
	mux.Handle("/api/messages", h.origins.cors(http.HandlerFunc(h.Messages)))
	mux.HandleFunc("/test", h.TestPage)
	mux.Handle("/", h.Index())
	return logging.HTTPMiddleware(logger)(mux)
}
