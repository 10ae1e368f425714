package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/infra/config"
	"github.com/arklim/social-platform-commerce/internal/infra/database"
	kafkainfra "github.com/arklim/social-platform-commerce/internal/infra/kafka"
	"github.com/arklim/social-platform-commerce/internal/infra/logger"
	redisinfra "github.com/arklim/social-platform-commerce/internal/infra/redis"
	"github.com/arklim/social-platform-commerce/internal/infra/security"
	"github.com/arklim/social-platform-commerce/internal/infra/telemetry"
	postgresrepo "github.com/arklim/social-platform-commerce/internal/repository/postgres"
	redisrepo "github.com/arklim/social-platform-commerce/internal/repository/redis"
	"github.com/arklim/social-platform-commerce/internal/transport/http/middleware"
	"github.com/arklim/social-platform-commerce/internal/transport/http/routes"
	"github.com/arklim/social-platform-commerce/internal/usecase"
)

type Application struct {
	cfg       *config.AppConfig
	engine    *gin.Engine
	logger    *zap.Logger
	pool      *pgxpool.Pool
	redis     *redisinfra.Client
	telemetry *telemetry.Provider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	telemetryProvider, err := telemetry.Attach(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	keyProvider, err := security.NewKeyProvider(cfg.App.Env, cfg.JWT.KeyDirectory)
	if err != nil {
		return nil, fmt.Errorf("init key provider: %w", err)
	}
	jwksManager := security.NewJWTManager(keyProvider)

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	if err := security.ConfigureArgon2(argonCfg); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	tokenGenerator, err := security.NewTokenGenerator(keyProvider, "v1")
	if err != nil {
		return nil, fmt.Errorf("init token generator: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	// Initialize Kafka event publisher
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	passwordValidator := security.DefaultPasswordValidator()
	totpProvider := security.NewTOTPProvider(cfg.Security.TOTPIssuer)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "commerce:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	ipBlockStore := redisrepo.NewIPBlockRepository(redisClient.Client())
	catalogCache := redisrepo.NewCacheRepository(redisClient.Client(), "commerce:cache")

	authService := usecase.NewAuthService(cfg, repos.Users, repos.LoginAttempts, repos.SecurityEvents, repos.Tokens, repos.TOTPDevices, totpProvider, eventPublisher, ipBlockStore, tokenGenerator, keyProvider, log)
	registrationService := usecase.NewRegistrationService(repos.Users, repos.Tokens, repos.SecurityEvents, eventPublisher, passwordValidator, log)
	passwordService := usecase.NewPasswordService(repos.Users, repos.Tokens, repos.SecurityEvents, eventPublisher, passwordValidator, log)
	twoFactorService := usecase.NewTwoFactorService(repos.Users, repos.TOTPDevices, repos.SecurityEvents, totpProvider, eventPublisher, log)
	userService := usecase.NewUserService(repos.Users, repos.SecurityEvents, log)
	catalogService := usecase.NewCatalogService(repos.Categories, repos.Products, eventPublisher, catalogCache, log)
	cartService := usecase.NewCartService(repos.Carts, repos.Products, log)
	orderService := usecase.NewOrderService(cfg, repos.Carts, repos.Products, repos.Orders, repos.Discounts, eventPublisher, log)
	discountService := usecase.NewDiscountService(repos.Discounts, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		IPBlocks:    ipBlockStore,
		JWTManager:  jwksManager,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:         authService,
			Registration: registrationService,
			Passwords:    passwordService,
			TwoFactor:    twoFactorService,
			Users:        userService,
			Catalog:      catalogService,
			Carts:        cartService,
			Orders:       orderService,
			Discounts:    discountService,
		},
	})

	return &Application{
		cfg:       cfg,
		engine:    engine,
		logger:    log,
		pool:      pool,
		redis:     redisClient,
		telemetry: telemetryProvider,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.telemetry.Shutdown(flushCtx); err != nil {
			a.logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting commerce API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
