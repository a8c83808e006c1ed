package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pageza/smartcooking/backend/config"
	"github.com/pageza/smartcooking/backend/internal/database"
	"github.com/pageza/smartcooking/backend/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.Environment, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if cfg.StoreDriver == config.DriverMongo {
		client, db, err := database.NewMongoClient(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mongo")
		}
		defer client.Disconnect(context.Background())

		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to create indexes")
		}
		log.Info().Str("db", db.Name()).Msg("mongo indexes are up to date")
		return
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Str("driver", cfg.StoreDriver).Msg("migrations completed successfully")
}
