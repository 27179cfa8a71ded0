package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/hartfieldkennels/kennel-backend/api/routes"
	"github.com/hartfieldkennels/kennel-backend/internal/alerts"
	"github.com/hartfieldkennels/kennel-backend/internal/auth"
	"github.com/hartfieldkennels/kennel-backend/internal/intake"
	"github.com/hartfieldkennels/kennel-backend/internal/ledger"
	"github.com/hartfieldkennels/kennel-backend/internal/notify"
	"github.com/hartfieldkennels/kennel-backend/internal/puppies"
	"github.com/hartfieldkennels/kennel-backend/internal/reservations"
	"github.com/hartfieldkennels/kennel-backend/internal/webhooks"
	"github.com/hartfieldkennels/kennel-backend/internal/webhooks/paypalhook"
	"github.com/hartfieldkennels/kennel-backend/internal/webhooks/stripehook"
	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	"github.com/hartfieldkennels/kennel-backend/pkg/db"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
	"github.com/hartfieldkennels/kennel-backend/pkg/metrics"
	"github.com/hartfieldkennels/kennel-backend/pkg/migrate"
	"github.com/hartfieldkennels/kennel-backend/pkg/paypal"
	"github.com/hartfieldkennels/kennel-backend/pkg/redis"
	"github.com/hartfieldkennels/kennel-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

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

	if err := cfg.ValidateGateways(); err != nil {
		logg.Error(context.Background(), "invalid gateway configuration", err)
		os.Exit(1)
	}

	closers := []func() error{}
	defer func() {
		var closeErr error
		for i := len(closers) - 1; i >= 0; i-- {
			closeErr = multierr.Append(closeErr, closers[i]())
		}
		if closeErr != nil {
			logg.Error(context.Background(), "error closing clients", closeErr)
		}
	}()

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	closers = append(closers, redisClient.Close)

	paypalClient, err := paypal.NewClient(context.Background(), cfg.PayPal, nil, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap paypal client", err)
		os.Exit(1)
	}
	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhookMetrics(registry)
	intakeMetrics := metrics.NewIntakeMetrics(registry)

	gormDB := dbClient.DB()
	puppyRepo := puppies.NewRepository(gormDB)
	reservationRepo := reservations.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)

	webhookService := webhooks.NewService(
		dbClient,
		ledgerRepo,
		reservationRepo,
		puppyRepo,
		notify.NewQueue(),
		alerts.NewLogSink(logg),
		logg,
		webhookMetrics,
		cfg.FeatureFlags.RelistOnRefund,
	)
	intakeService := intake.NewService(
		dbClient,
		puppyRepo,
		reservationRepo,
		paypalClient,
		cfg.Deposit,
		cfg.PayPal,
		logg,
		intakeMetrics,
	)
	authService := auth.NewService(auth.NewRepository(gormDB), cfg.JWT, logg)
	reservationService := reservations.NewService(dbClient, reservationRepo, puppyRepo, logg, cfg.FeatureFlags.RelistOnRefund)

	router := routes.NewRouter(routes.Deps{
		Config:             cfg,
		Logger:             logg,
		Database:           dbClient,
		Redis:              redisClient,
		AuthService:        authService,
		IntakeService:      intakeService,
		ReservationService: reservationService,
		PayPalAdapter:      paypalhook.NewAdapter(paypalClient),
		StripeAdapter:      stripehook.NewAdapter(stripeClient),
		WebhookService:     webhookService,
		WebhookMetrics:     webhookMetrics,
		MetricsGatherer:    registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
