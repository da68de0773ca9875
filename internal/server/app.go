package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Tyrowin/livechat/internal/config"
	"github.com/Tyrowin/livechat/internal/room"
)

// App bundles the wired room, hub and HTTP handler. Run the hub with
// go app.Hub.Run() before serving.
type App struct {
	Engine  *room.Engine
	Hub     *Hub
	Handler http.Handler
}

// NewApp builds the engine and transport from cfg.
func NewApp(cfg config.Config, logger zerolog.Logger) *App {
	cfg = config.Sanitize(cfg)

	engine := room.NewEngine(
		room.WithHistoryLimit(cfg.Room.HistoryLimit),
		room.WithJoinHistory(cfg.Room.JoinHistory),
		room.WithRoomName(cfg.Room.Name),
		room.WithLogger(logger.With().Str("component", "room").Logger()),
	)
	hub := NewHub(engine, logger.With().Str("component", "hub").Logger())
	handlers := NewHandlers(hub, cfg, logger)

	return &App{
		Engine:  engine,
		Hub:     hub,
		Handler: SetupRoutes(handlers, logger),
	}
}
