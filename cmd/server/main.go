package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sifan077/graby/config"
	apprepository "github.com/sifan077/graby/internal/app/repository"
	appserver "github.com/sifan077/graby/internal/app/server"
	appservice "github.com/sifan077/graby/internal/app/service"
	"github.com/sifan077/graby/internal/http/middleware"
	"github.com/sifan077/graby/internal/infra/logger"
	infraNATS "github.com/sifan077/graby/internal/infra/nats"
	infraPostgres "github.com/sifan077/graby/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/graby/internal/infra/prometheus"
	infraRazorpay "github.com/sifan077/graby/internal/infra/razorpay"
	infraRedis "github.com/sifan077/graby/internal/infra/redis"
	"go.uber.org/zap"
)

type stores struct {
	links   apprepository.LinkRepository
	credits apprepository.CreditRepository
	clicks  apprepository.ClickLogRepository
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
		Service:     "graby",
	})
	defer func() { _ = logger.Sync() }()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.String("expiration_policy", cfg.Link.ExpirationPolicy),
	)

	var repos stores
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
		if err != nil {
			log.Fatal("Failed to open GORM connection", zap.Error(err))
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
		}
		defer sqlDB.Close()

		if err := infraPostgres.Migrate(ctx, gormDB); err != nil {
			log.Fatal("Failed to run database migrations", zap.Error(err))
		}

		pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			log.Fatal("Failed to connect to Postgres", zap.Error(err))
		}
		defer pool.Close()
		log.Info("Connected to Postgres successfully")

		repos = stores{
			links:   apprepository.NewLinkRepository(gormDB),
			credits: apprepository.NewCreditRepository(pool),
			clicks:  apprepository.NewClickLogRepository(gormDB),
		}
	case config.StoreDriverMemory:
		log.Warn("Using the in-memory store; data is lost on restart")
		memory := apprepository.NewMemoryStore()
		repos = stores{
			links:   memory.Links,
			credits: memory.Credits,
			clicks:  memory.Clicks,
		}
	}

	registry := infraPrometheus.NewRegistry()
	metrics := infraPrometheus.NewMetrics(registry)

	if cfg.Prometheus.Enabled {
		promServer := infraPrometheus.NewServer(cfg.Prometheus, registry)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Prometheus metrics server disabled")
	}

	var clickLogger appservice.ClickLogger = appservice.NewDirectClickLogger(repos.clicks)
	if cfg.NATS.Enabled {
		natsConn, js, err := infraNATS.Connect(cfg.NATS, logger.Named("nats"))
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()

		consumer := appservice.NewClickConsumer(js, logger.Named("clicks"), repos.clicks)
		if err := consumer.Start(ctx); err != nil {
			log.Fatal("Failed to start click consumer", zap.Error(err))
		}
		defer func() { <-consumer.Done() }()

		clickLogger = appservice.NewClickPublisher(js)
		log.Info("Connected to NATS successfully, click logs go through JetStream")
	}

	policy := appservice.OneShotPolicy()
	if cfg.Link.ExpirationPolicy == config.ExpirationTTL {
		policy = appservice.TTLPolicy(cfg.Link.TTL)
	}

	links := appservice.NewLinkService(repos.links, appservice.LinkOptions{Policy: policy})
	credits := appservice.NewCreditService(repos.credits, appservice.CreditOptions{
		SignupBonus: cfg.Credits.SignupBonus,
		Recorder:    metrics,
	})
	redirects := appservice.NewRedirectService(appservice.RedirectDeps{
		Logger:   logger.Named("redirect"),
		Links:    links,
		Credits:  credits,
		Clicks:   clickLogger,
		Recorder: metrics,
	})

	gateway := infraRazorpay.New(cfg.Payment)
	if !gateway.Configured() {
		log.Warn("Razorpay credentials missing, order creation will fail")
	}
	payments := appservice.NewPaymentService(gateway, cfg.Payment.Currency)

	if !policy.OneShot() {
		sweeper := appservice.NewLinkSweeper(logger.Named("sweeper"), links, metrics, cfg.Link.SweepInterval)
		sweeper.Start()
		defer sweeper.Stop()
	}

	deps := appserver.Dependencies{
		Logger:        log,
		Links:         links,
		Credits:       credits,
		Redirects:     redirects,
		Analytics:     appservice.NewAnalyticsService(repos.clicks, logger.Named("analytics")),
		Payments:      payments,
		RequireLinkID: cfg.Link.RequireID,
	}

	if cfg.RateLimit.Enabled {
		redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("Connected to Redis successfully")

		deps.Redis = redisClient
		deps.RateLimit = middleware.RateLimitConfig{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      cfg.RateLimit.Window,
			KeyPrefix:   infraRedis.Key("ratelimit"),
		}
	}

	server := appserver.New(deps)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		serveErr <- server.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("Fiber server exited", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down HTTP server cleanly", zap.Error(err))
	}
}
