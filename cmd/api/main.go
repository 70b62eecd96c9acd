package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/creatorlane/discount-agent/internal/agent"
	httptransport "github.com/creatorlane/discount-agent/internal/api/http"
	"github.com/creatorlane/discount-agent/internal/api/http/handlers"
	"github.com/creatorlane/discount-agent/internal/auth"
	"github.com/creatorlane/discount-agent/internal/campaign"
	"github.com/creatorlane/discount-agent/internal/config"
	"github.com/creatorlane/discount-agent/internal/events"
	"github.com/creatorlane/discount-agent/internal/llm"
	"github.com/creatorlane/discount-agent/internal/observability"
	"github.com/creatorlane/discount-agent/internal/persistence"
	"github.com/creatorlane/discount-agent/internal/platform"
	"github.com/creatorlane/discount-agent/internal/repository"
	"github.com/creatorlane/discount-agent/internal/service"
	"github.com/creatorlane/discount-agent/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	registry, err := campaign.NewRegistry(cfg.Campaign.CampaignPath, cfg.Campaign.TemplatesPath, logger)
	if err != nil {
		logger.Fatal("failed to load campaign", zap.Error(err))
	}

	memStore := repository.NewMemoryStore()
	var interactions repository.InteractionRepository = memStore
	if pool := pg.PoolHandle(); pool != nil {
		interactions = repository.NewPostgresInteractionRepository(pool)
	}

	var issuances repository.IssuanceRepository = memStore
	switch {
	case pg.PoolHandle() != nil:
		issuances = repository.NewPostgresIssuanceRepository(pg.PoolHandle())
	case redis.Client != nil:
		issuances = repository.NewRedisIssuanceRepository(redis.Client)
	}

	var fallback agent.LLMFallback
	if cfg.LLM.Enabled() {
		fallback = llm.NewClient(llm.Config{
			APIKey:            cfg.LLM.APIKey,
			BaseURL:           cfg.LLM.BaseURL,
			Model:             cfg.LLM.Model,
			MaxAttempts:       cfg.LLM.MaxAttempts,
			PerAttemptTimeout: cfg.LLM.PerAttemptTimeout(),
			TotalBudget:       cfg.LLM.TotalBudget(),
		}, logger)
	} else {
		logger.Warn("LLM_API_KEY not provided; llm detection tier disabled")
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	ledger := service.NewLedger(issuances, logger)

	agentService := service.NewAgentService(service.AgentDependencies{
		Registry:     registry,
		Classifier:   agent.NewClassifier(logger),
		Detector:     agent.NewDetector(fallback, logger),
		Ledger:       ledger,
		Interactions: interactions,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})
	analyticsService := service.NewAnalyticsService(interactions, registry, logger)
	notificationService := service.NewNotificationService(cfg.CRM, dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	tokens := auth.NewTokenManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTLMinutes)
	verifier := platform.NewVerifier(cfg.Webhook)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Agent:     handlers.NewAgentHandler(agentService),
		Webhook:   handlers.NewWebhookHandler(agentService, verifier),
		Analytics: handlers.NewAnalyticsHandler(analyticsService),
		Admin:     handlers.NewAdminHandler(cfg.Admin, tokens, registry, interactions, issuances, metrics, logger),
		Tokens:    tokens,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
