package main

import (
	"context"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/Tyrowin/livechat/internal/config"
	"github.com/Tyrowin/livechat/internal/logging"
	"github.com/Tyrowin/livechat/internal/server"
)

func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		logger := logging.L()
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(cfg.Log)
	logger := logging.L()

	app := server.NewApp(*cfg, logger)
	go app.Hub.Run()

	httpServer := server.CreateServer(cfg.Port, app.Handler)
	go func() {
		if err := server.StartServer(httpServer); err != nil {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	logger.Info().
		Str("port", cfg.Port).
		Str("room", cfg.Room.Name).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("chat relay started")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"livechat": func(ctx context.Context) error {
				if err := server.ShutdownServer(ctx, httpServer); err != nil {
					return err
				}
				return app.Hub.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info().Int("exit_code", exitCode).Msg("chat relay stopped")
	os.Exit(exitCode)
}
