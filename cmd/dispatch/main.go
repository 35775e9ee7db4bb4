package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danisworo/jalur/internal/pkg/config"
	"github.com/danisworo/jalur/internal/pkg/database"
	"github.com/danisworo/jalur/internal/pkg/health"
	"github.com/danisworo/jalur/internal/pkg/logger"
	"github.com/danisworo/jalur/internal/pkg/middleware"
	"github.com/danisworo/jalur/internal/pkg/nats"
	matchrepo "github.com/danisworo/jalur/services/match/repository"
	matchuc "github.com/danisworo/jalur/services/match/usecase"
	paymentgw "github.com/danisworo/jalur/services/payment/gateway"
	paymenthandler "github.com/danisworo/jalur/services/payment/handler"
	paymentrepo "github.com/danisworo/jalur/services/payment/repository"
	paymentuc "github.com/danisworo/jalur/services/payment/usecase"
	"github.com/danisworo/jalur/services/pricing"
	ridesgw "github.com/danisworo/jalur/services/rides/gateway"
	rideshandler "github.com/danisworo/jalur/services/rides/handler"
	ridesrepo "github.com/danisworo/jalur/services/rides/repository"
	ridesuc "github.com/danisworo/jalur/services/rides/usecase"
)

func main() {
	appName := "dispatch-service"
	configPath := "config/dispatch.env"
	configs := config.InitConfig(configPath)

	zapLogger, err := logger.InitFromConfig(configs)
	if err != nil {
		log.Fatalf("Failed to create Zap logger: %v", err)
	}
	defer zapLogger.Close()
	logger.SetGlobalLogger(zapLogger)

	logger.Info("Starting application",
		logger.String("app", appName),
		logger.String("version", configs.App.Version),
		logger.String("environment", configs.App.Environment))

	// Infrastructure clients
	postgresClient, err := database.NewPostgresClient(configs.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
	}
	defer postgresClient.Close()

	redisClient, err := database.NewRedisClient(configs.Redis)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", logger.Err(err))
	}
	defer redisClient.Close()

	natsClient, err := nats.NewClient(configs.NATS.URL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to NATS", logger.Err(err))
	}
	defer natsClient.Close()

	// Repositories
	driverPool := matchrepo.NewDriverPoolRepository(redisClient)
	rideRepo := ridesrepo.NewRideRepository(postgresClient.GetDB())
	txnRepo := paymentrepo.NewTransactionRepository(postgresClient.GetDB())
	rateLimiter := paymentrepo.NewRateLimitRepository(redisClient,
		configs.Payment.RateLimitAttempts, configs.Payment.RateLimitWindowSec)

	// Gateways
	rideGW := ridesgw.NewRideGW(natsClient)
	paymentGW := paymentgw.NewPaymentGW(natsClient)
	stripeProvider := paymentgw.NewStripeProvider(configs.Payment.StripeAPIKey)

	// Usecases
	calculator := pricing.NewCalculator(configs.Pricing)
	matcher := matchuc.NewMatchUC(configs.Match, driverPool)
	rideUC := ridesuc.NewRideUC(configs.Pricing, rideRepo, rideGW, matcher, driverPool, calculator)
	paymentUC := paymentuc.NewPaymentUC(configs.Payment, txnRepo, rateLimiter, stripeProvider, paymentGW, rideRepo)

	// Handlers
	rideHandler := rideshandler.NewHandler(configs, rideUC, driverPool, natsClient)
	paymentHandler := paymenthandler.NewHandler(configs, paymentUC)

	if err := rideHandler.InitNATSConsumers(); err != nil {
		zapLogger.Fatal("Failed to initialize NATS consumers", logger.Err(err))
	}
	defer rideHandler.Close()

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())

	health.RegisterHealthEndpoints(e, appName)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	rideHandler.RegisterRoutes(e)
	paymentHandler.RegisterRoutes(e)

	e.Server.ReadTimeout = time.Duration(configs.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(configs.Server.WriteTimeout) * time.Second

	go func() {
		addr := fmt.Sprintf("%s:%d", configs.Server.Host, configs.Server.Port)
		logger.Info("HTTP server listening", logger.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", logger.Err(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownTimeout := time.Duration(configs.Server.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", logger.Err(err))
	}
}
