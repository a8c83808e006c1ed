package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pageza/smartcooking/backend/config"
	"github.com/pageza/smartcooking/backend/internal/api"
	"github.com/pageza/smartcooking/backend/internal/database"
	"github.com/pageza/smartcooking/backend/internal/llm"
	"github.com/pageza/smartcooking/backend/internal/logger"
	"github.com/pageza/smartcooking/backend/internal/middleware"
	"github.com/pageza/smartcooking/backend/internal/payments"
	"github.com/pageza/smartcooking/backend/internal/repository"
	"github.com/pageza/smartcooking/backend/internal/router"
	"github.com/pageza/smartcooking/backend/internal/server"
	"github.com/pageza/smartcooking/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	baseLogger := logger.Setup(cfg.Environment, cfg.LogLevel)
	if cfg.EphemeralJWTSecret {
		log.Warn().Msg("JWT_SECRET not set, using a per-process secret; sessions end on restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer closeStore()

	checks := map[string]api.Pinger{"store": store}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		checks["redis"] = api.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	} else {
		log.Warn().Msg("REDIS_URL not set, generation burst limiter disabled")
	}

	generator, err := llm.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.LLMProvider).Msg("failed to create LLM client")
	}
	gateway := payments.NewStripeGateway(cfg.StripeAPIKey, cfg.StripeWebhookSecret)

	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiration)
	usage := service.NewUsageTracker(store.Users, cfg.FreeRecipesLimit)
	authService := service.NewAuthService(store.Users, tokens, usage)
	recipeService := service.NewRecipeService(store, usage, generator, cfg.LLMTimeout)
	paymentService := service.NewPaymentService(store.Payments, gateway, cfg.UnlimitedPrice, cfg.PaymentCurrency, cfg.PaymentTimeout)

	opts := router.Options{
		Logger:        baseLogger,
		CORSOrigins:   cfg.CORSOrigins,
		Authenticator: authService,
		AuthLimiter:   middleware.NewIPRateLimiter(ctx, cfg.AuthRateLimit, cfg.AuthRateBurst),
	}
	if redisClient != nil {
		opts.GenerationLimiter = middleware.NewGenerationRateLimiter(redisClient, cfg.GenerateRateLimit, cfg.GenerateRateWindow)
	}

	engine := router.SetupRouter(router.Handlers{
		Auth:     api.NewAuthHandler(authService),
		Recipes:  api.NewRecipeHandler(recipeService),
		Payments: api.NewPaymentHandler(paymentService),
		Health:   api.NewHealthHandler(checks),
	}, opts)

	log.Info().
		Str("env", string(cfg.Environment)).
		Str("store", cfg.StoreDriver).
		Str("llm", cfg.LLMProvider).
		Msg("starting smart cooking api")

	if err := server.New(cfg.Addr(), engine, cfg.ShutdownTimeout).Run(ctx); err != nil {
		log.Error().Err(err).Msg("server error")
		return
	}
	log.Info().Msg("server stopped")
}

// openStore connects the configured backing store and returns its closer
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, func(), error) {
	if cfg.StoreDriver == config.DriverMongo {
		client, db, err := database.NewMongoClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repository.NewMongoStore(db), disconnect(client), nil
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.StoreDriver == config.DriverSQLite {
		if err := database.RunMigrations(db); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
	}
	return repository.NewGormStore(db), func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}, nil
}

func disconnect(client *mongo.Client) func() {
	return func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to disconnect mongo")
		}
	}
}
