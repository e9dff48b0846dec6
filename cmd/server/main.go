package main

import (
	"log/slog"
	"os"
	"strings"

	"bendadvisor/internal/app"
	"bendadvisor/internal/logger"
)

func main() {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	slog.SetDefault(slog.New(logger.New(os.Stdout, env, slog.LevelInfo)))

	application, err := app.New()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
