package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Tyrowin/livechat/internal/logging"
)

// CreateServer creates an HTTP server with production timeouts.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartServer listens until the server is shut down. A graceful shutdown is
// not reported as an error.
func StartServer(server *http.Server) error {
	logger := logging.L()
	logger.Info().Str("addr", server.Addr).Msg("server listening")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ShutdownServer stops accepting requests and waits for in-flight ones until
// ctx expires.
func ShutdownServer(ctx context.Context, server *http.Server) error {
	logger := logging.L()
	logger.Info().Msg("shutting down HTTP server")

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}

	logger.Info().Msg("HTTP server shutdown completed")
	return nil
}
