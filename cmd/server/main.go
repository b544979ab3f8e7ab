package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	_ "checador/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"checador/internal/auth"
	"checador/internal/cache"
	"checador/internal/config"
	"checador/internal/db"
	"checador/internal/handler"
	"checador/internal/metrics"
	"checador/internal/repository"
	"checador/internal/router"
	"checador/internal/service"
)

// @title Checador API
// @version 1.0
// @description Geofenced daily attendance with JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)
	logger := e.Logger

	if cfg.InsecureSecret() {
		logger.Fatal("JWT_SECRET is unset or uses the placeholder value; set APP_ENV=development to allow it")
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatalf("database init: %v", err)
	}

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables...")
		if err := db.Reset(gormDB); err != nil {
			logger.Warnf("reset tables: %v", err)
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		logger.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logger.Warnf("redis unavailable at %s, continuing without cache: %v", cfg.RedisAddr, err)
	}
	cancel()

	recorder := metrics.New()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	workplaceRepo := repository.NewWorkplaceRepository(gormDB)
	attendanceRepo := repository.NewAttendanceRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, recorder, logger)
	attendanceService := service.NewAttendanceService(
		userRepo,
		workplaceRepo,
		attendanceRepo,
		cacheClient,
		cfg.GeofenceCacheTTL,
		recorder,
		logger,
	)

	router.Register(e, authService, recorder, router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		User:       handler.NewUserHandler(authService),
		Attendance: handler.NewAttendanceHandler(attendanceService),
	})

	logger.Infof("Swagger documentation available at: %s", swaggerURL(cfg))

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server start: %v", err)
	}
}

// swaggerURL returns the UI address; SwaggerHost may already include a scheme.
func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
