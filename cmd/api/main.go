package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flexfitapp/flexfit-backend/api/routes"
	"github.com/flexfitapp/flexfit-backend/internal/plans"
	"github.com/flexfitapp/flexfit-backend/internal/profiles"
	"github.com/flexfitapp/flexfit-backend/internal/subscriptions"
	stripewebhook "github.com/flexfitapp/flexfit-backend/internal/webhooks/stripe"
	"github.com/flexfitapp/flexfit-backend/internal/workouts"
	"github.com/flexfitapp/flexfit-backend/pkg/config"
	"github.com/flexfitapp/flexfit-backend/pkg/db"
	"github.com/flexfitapp/flexfit-backend/pkg/logger"
	"github.com/flexfitapp/flexfit-backend/pkg/metrics"
	"github.com/flexfitapp/flexfit-backend/pkg/migrate"
	"github.com/flexfitapp/flexfit-backend/pkg/redis"
	"github.com/flexfitapp/flexfit-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to initialize stripe", err)
		os.Exit(1)
	}

	catalog := plans.NewCatalog(cfg.Stripe)
	billingMetrics := metrics.NewBillingMetrics(prometheus.DefaultRegisterer)
	profileRepo := profiles.NewRepository(dbClient.DB())

	profileService, err := profiles.NewService(profiles.ServiceParams{
		Repo:      profileRepo,
		FlagCache: redisClient,
		GateCfg:   cfg.Gate,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:    profileRepo,
		Stripe:  subscriptions.NewStripeClient(stripeClient),
		Catalog: catalog,
		Flags:   profileService,
		AppCfg:  cfg.App,
		GateCfg: cfg.Gate,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Repo:    profileRepo,
		Flags:   profileService,
		Metrics: billingMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	workoutService, err := workouts.NewService(workouts.ServiceParams{
		Model:  workouts.NewOpenAIClient(cfg.OpenAI),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create workout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Cfg:                 cfg,
			Logger:              logg,
			DB:                  dbClient,
			Redis:               redisClient,
			Catalog:             catalog,
			Metrics:             billingMetrics,
			ProfileService:      profileService,
			SubscriptionService: subscriptionService,
			WorkoutService:      workoutService,
			StripeClient:        stripeClient,
			WebhookSvc:          webhookService,
			WebhookGuard:        webhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
