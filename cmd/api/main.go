package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/clinic-api/internal/api/router"
	"github.com/clinicdesk/clinic-api/internal/appointments"
	"github.com/clinicdesk/clinic-api/internal/availability"
	appconfig "github.com/clinicdesk/clinic-api/internal/config"
	"github.com/clinicdesk/clinic-api/internal/notify"
	"github.com/clinicdesk/clinic-api/internal/observability/metrics"
	"github.com/clinicdesk/clinic-api/internal/realtime"
	"github.com/clinicdesk/clinic-api/internal/schedule"
	"github.com/clinicdesk/clinic-api/pkg/logging"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-api server", "env", cfg.Env, "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Error("invalid clinic timezone", "tz", cfg.ClinicTimezone, "error", err)
		os.Exit(1)
	}

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it the change bus is a no-op and the
	// availability cache is skipped.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, continuing without it", "error", err)
			rdb = nil
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	schedMetrics := metrics.NewSchedulingMetrics(registry)

	var bus notify.Publisher = notify.NopPublisher{}
	var redisBus *notify.RedisBus
	if rdb != nil {
		redisBus = notify.NewRedisBus(rdb, logger)
		bus = redisBus
	}

	policy, err := availability.NewPolicy(cfg.WeekdayOpen, cfg.WeekdayClose, cfg.SaturdayOpen, cfg.SaturdayClose)
	if err != nil {
		logger.Error("invalid clinic hours", "error", err)
		os.Exit(1)
	}

	availRepo := availability.NewRepository(pool)
	var availStore availability.Store = availRepo
	if rdb != nil && cfg.AvailabilityCache {
		availStore = availability.NewCache(availRepo, rdb, cfg.AvailabilityCached, logger)
	}
	availService := availability.NewService(availStore, policy, logger)
	availHandler := availability.NewHandler(availService, logger)

	apptRepo := appointments.NewRepository(pool)
	engine := schedule.NewEngine(availService, apptRepo, loc, logger, schedMetrics)
	scheduleHandler := schedule.NewHandler(engine, schedule.HandlerConfig{
		DefaultDurationMins: cfg.DefaultDurationMins,
		DefaultHorizonDays:  cfg.DefaultHorizonDays,
		MaxHorizonDays:      cfg.MaxHorizonDays,
	}, logger)

	bookingService := appointments.NewBookingService(apptRepo, bus, logger, schedMetrics)
	apptService := appointments.NewService(apptRepo, bus, logger, schedMetrics)
	apptHandler := appointments.NewHandler(bookingService, apptService, loc, 0, logger)

	hub := realtime.NewHub(logger)
	realtimeHandler := realtime.NewHandler(hub, nil, logger)

	if redisBus != nil {
		go hub.Run(ctx, redisBus)

		if notifier := buildNotifier(ctx, cfg, logger); notifier != nil {
			go notifier.Run(ctx, redisBus)
		}
	}

	r := router.New(&router.Config{
		Logger:              logger,
		AvailabilityHandler: availHandler,
		ScheduleHandler:     scheduleHandler,
		AppointmentsHandler: apptHandler,
		RealtimeHandler:     realtimeHandler,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		PortalJWTSecret:     cfg.PortalJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildNotifier wires the email notifier; it returns nil when email or the
// contact directory is not configured.
func buildNotifier(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *notify.Notifier {
	directory := notify.NewHTTPDirectory(cfg.IdentityAPIURL, nil, logger)
	if directory == nil {
		return nil
	}

	var sender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			sender = s
		}
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Warn("failed to load AWS config, email disabled", "error", err)
			return nil
		}
		if s := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			sender = s
		}
	}
	if sender == nil {
		return nil
	}
	return notify.NewNotifier(sender, directory, logger)
}
