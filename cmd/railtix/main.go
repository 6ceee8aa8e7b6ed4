package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/kirinyoku/railtix/docs"
	"github.com/kirinyoku/railtix/internal/app"
	"github.com/kirinyoku/railtix/internal/config"
)

// @title Railtix API
// @version 1.0
// @description Train ticket booking: fares, promotions, purchases and seat availability.
// @host localhost:8080
// @BasePath /
func main() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
