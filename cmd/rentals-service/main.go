package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/nurpe/rentals/internal/app"
	"github.com/nurpe/rentals/internal/config"
	"github.com/nurpe/rentals/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	application, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init application")
	}
	defer application.Close()

	if err := os.MkdirAll(cfg.Rentals.DocumentsDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Rentals.DocumentsDir).Msg("failed to create documents dir")
	}

	router := application.Router()

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting rentals service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
