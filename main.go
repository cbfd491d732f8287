package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kartbot/internal/bot"
	"kartbot/internal/config"
	"kartbot/internal/store"
)

func main() {

	// A .env file is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Could not load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	db, err := store.Open(cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not connect to postgres")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.InitSchema(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Could not initialise database schema")
	}
	cancel()

	kartbot := bot.New(cfg.BotToken, db, cfg.MaxConcurrentTrials, cfg.ExpiredTrialRetentionDays)
	if err := kartbot.Run(); err != nil {
		log.Fatal().Err(err).Msg("Bot stopped with an error")
	}
}
