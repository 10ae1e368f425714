package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/infra/config"
	"github.com/arklim/social-platform-commerce/internal/infra/security"
	"github.com/arklim/social-platform-commerce/internal/transport/http/handlers"
	"github.com/arklim/social-platform-commerce/internal/transport/http/middleware"
	"github.com/arklim/social-platform-commerce/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth         *usecase.AuthService
	Registration *usecase.RegistrationService
	Passwords    *usecase.PasswordService
	TwoFactor    *usecase.TwoFactorService
	Users        *usecase.UserService
	Catalog      *usecase.CatalogService
	Carts        *usecase.CartService
	Orders       *usecase.OrderService
	Discounts    *usecase.DiscountService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	IPBlocks    port.IPBlockStore
	Services    ServiceSet
	JWTManager  *security.JWTManager
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))

	if httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Namespace: "commerce"}); err != nil {
		if deps.Logger != nil {
			deps.Logger.Warn("http metrics disabled", zap.Error(err))
		}
	} else {
		r.Use(httpMetrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Auth)
	staffMiddleware := middleware.RequireStaff()

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jwksHandler := handlers.NewJWKSHandler(deps.JWTManager)
	r.GET("/.well-known/jwks.json", jwksHandler.Keys)

	api := r.Group("/api/v1")
	{
		isDev := deps.Config.App.Env == "development"
		notificationDispatcher := handlers.NewLoggingNotificationDispatcher(deps.Logger)

		authHandler := handlers.NewAuthHandler(deps.Services.Auth, handlers.WithAuthLogger(deps.Logger))
		authHandler.RegisterRoutes(api, buildLoginMiddlewares(deps)...)

		registrationHandler := handlers.NewRegistrationHandler(deps.Services.Registration, notificationDispatcher, isDev, handlers.WithRegistrationLogger(deps.Logger))
		registrationHandler.RegisterRoutes(api, buildRegistrationMiddlewares(deps)...)

		passwordHandler := handlers.NewPasswordHandler(deps.Services.Passwords, notificationDispatcher, isDev, handlers.WithPasswordLogger(deps.Logger))
		passwordHandler.RegisterPublicRoutes(api, buildPasswordResetMiddlewares(deps)...)
		passwordHandler.RegisterProtectedRoutes(api, authMiddleware)

		if deps.Services.TwoFactor != nil {
			twoFactorHandler := handlers.NewTwoFactorHandler(deps.Services.TwoFactor)
			twoFactorHandler.RegisterRoutes(api, authMiddleware)
		}

		userHandler := handlers.NewUserHandler(deps.Services.Users)
		userHandler.RegisterRoutes(api, authMiddleware)

		catalogHandler := handlers.NewCatalogHandler(deps.Services.Catalog)
		catalogHandler.RegisterPublicRoutes(api)
		catalogHandler.RegisterStaffRoutes(api, authMiddleware, staffMiddleware)

		cartHandler := handlers.NewCartHandler(deps.Services.Carts)
		cartHandler.RegisterRoutes(api, authMiddleware)

		orderHandler := handlers.NewOrderHandler(deps.Services.Orders)
		orderHandler.RegisterRoutes(api, authMiddleware)
		orderHandler.RegisterStaffRoutes(api, authMiddleware, staffMiddleware)

		discountHandler := handlers.NewDiscountHandler(deps.Services.Discounts)
		discountHandler.RegisterRoutes(api, authMiddleware)
		discountHandler.RegisterStaffRoutes(api, authMiddleware, staffMiddleware)
	}

	handlers.RegisterSwagger(r)

	return r
}

// buildLoginMiddlewares guards the auth endpoints with the IP block list and
// a sliding-window limit on login attempts per client address.
func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	var chain []gin.HandlerFunc

	if deps.IPBlocks != nil {
		chain = append(chain, middleware.IPBlock(deps.IPBlocks, deps.Logger))
	}

	if deps.RateLimiter == nil || deps.Config == nil {
		return chain
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return chain
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "auth_login_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return append(chain, deps.RateLimiter.RateLimit(rule))
}

// buildRegistrationMiddlewares guards account creation with the IP block list
// and a per-address limit on registration attempts.
func buildRegistrationMiddlewares(deps Dependencies) []gin.HandlerFunc {
	var chain []gin.HandlerFunc

	if deps.IPBlocks != nil {
		chain = append(chain, middleware.IPBlock(deps.IPBlocks, deps.Logger))
	}

	if deps.RateLimiter == nil || deps.Config == nil {
		return chain
	}

	limit := deps.Config.RateLimit.RegisterMaxAttempts
	if limit <= 0 {
		return chain
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Hour
	}

	rule := middleware.RateLimitRule{
		Name:       "auth_register_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return append(chain, deps.RateLimiter.RateLimit(rule))
}

func buildPasswordResetMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.PasswordResetMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Hour
	}

	rule := middleware.RateLimitRule{
		Name:       "password_reset_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
