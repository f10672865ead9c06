package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ballotbox/account-service/internal/api/handler"
	"github.com/ballotbox/account-service/internal/api/middleware"
	"github.com/ballotbox/account-service/internal/core/ports"
	"github.com/ballotbox/account-service/internal/core/service"
	"github.com/ballotbox/account-service/internal/infrastructure/config"
	mongostore "github.com/ballotbox/account-service/internal/infrastructure/db/mongo"
	redisstore "github.com/ballotbox/account-service/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// The notifier is injected so main can choose between direct and queued
// delivery.
func NewRouter(db *mongo.Database, rdb *redis.Client, notifier ports.ResetNotifier, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowCredentials: true,
	}))
	e.Use(echoprometheus.NewMiddleware("account"))

	// --- Dependencies ---
	accountRepo := mongostore.NewAccountRepository(db)
	throttle := redisstore.NewResetThrottle(rdb, cfg.Security.ResetCooldown)
	accountService := service.NewAccountService(
		accountRepo,
		notifier,
		throttle,
		cfg.JWTSecret,
		cfg.Security.SessionTokenTTL,
		service.SecurityConfig{
			MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
			LockDuration:     cfg.Security.LockDuration,
			LockoutTokenTTL:  cfg.Security.LockoutTokenTTL,
			ResetTokenTTL:    cfg.Security.ResetTokenTTL,
			BcryptCost:       cfg.Security.BcryptCost,
			OpTimeout:        cfg.Security.OpTimeout,
		},
		log,
	)
	authHandler := handler.NewAuthHandler(accountService)
	authMiddleware := middleware.Auth(cfg.JWTSecret)

	// --- Routes (paths preserved from the original interface) ---
	e.GET("/", authHandler.Welcome)
	e.POST("/api/signup", authHandler.Signup)
	e.POST("/api/login", authHandler.Login)
	e.POST("/api/forgot-password", authHandler.ForgotPassword)
	e.GET("/reset-password/:token", authHandler.ResetForm)
	e.POST("/api/reset-password/:token", authHandler.ResetPassword)
	e.GET("/api/me", authHandler.Me, authMiddleware)

	// --- Probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)          // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
