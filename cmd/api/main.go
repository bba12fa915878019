// Package main is the entry point for the booking service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trainease/booking-service/internal/config"
	"github.com/trainease/booking-service/internal/events"
	"github.com/trainease/booking-service/internal/handlers"
	"github.com/trainease/booking-service/internal/metrics"
	"github.com/trainease/booking-service/internal/repository"
	"github.com/trainease/booking-service/internal/routes"
	"github.com/trainease/booking-service/internal/service"
	"github.com/trainease/booking-service/pkg/database"
	"github.com/trainease/booking-service/pkg/redis"
)

// @title TrainEase Booking Service API
// @version 1.0
// @description Train ticket reservation backend: users, trains, routes and bookings.
// @host localhost:8081
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	if err := run(); err != nil {
		slog.Error("booking service stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	opts.Level = slog.LevelDebug
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(cfg))

	ctx := context.Background()

	// Initialize database
	db, err := database.Connect(ctx, database.FromConfig(cfg))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	// Initialize Redis
	redisClient, err := redis.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = publisher.Close() }()

	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	trainRepo := repository.NewTrainRepository(db)
	routeRepo := repository.NewRouteRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	tx := repository.NewTransactor(db)

	// Initialize services
	signer, err := service.NewTokenSigner(cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("create token signer: %w", err)
	}
	hasher, err := service.NewPasswordHasher(cfg.PasswordHasher)
	if err != nil {
		return fmt.Errorf("create password hasher: %w", err)
	}
	guard := service.NewGuard(service.DefaultAdminActions())
	sessionService := service.NewSessionService(signer, redisClient, cfg.SessionTTL)
	userService := service.NewUserService(userRepo, tx, hasher, guard, sessionService, cfg.ReservedAdminID)
	policy := service.BookingPolicy{EnforceCapacity: cfg.EnforceRouteCapacity}
	catalogService := service.NewCatalogService(trainRepo, routeRepo, bookingRepo, tx, guard, policy)
	bookingService := service.NewBookingService(bookingRepo, routeRepo, tx, guard, publisher, m, policy)

	if cfg.AdminPassword != "" {
		admin, err := userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
		slog.Info("admin account ready", "id", admin.ID, "username", admin.Username)
	}

	// Initialize handlers
	cookies := handlers.NewCookieHelper(handlers.CookieConfig{
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure || cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	h := routes.Handlers{
		Users:    handlers.NewUserHandler(userService, sessionService, cookies),
		Catalog:  handlers.NewCatalogHandler(catalogService),
		Bookings: handlers.NewBookingHandler(bookingService),
		Health: handlers.NewHealthHandler(
			handlers.HealthCheck{Name: "postgres", Ping: sqlDB.PingContext},
			handlers.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}},
		),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	routes.Setup(router, h, sessionService, cfg, m)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting booking service", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.RabbitMQURL == "" {
		slog.Info("RABBITMQ_URL not set, booking events are discarded")
		return events.NopPublisher{}, nil
	}
	p, err := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	return p, nil
}
