package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nordview/invoicer/internal"
	"github.com/nordview/invoicer/internal/alert"
	"github.com/nordview/invoicer/internal/archive"
	"github.com/nordview/invoicer/internal/counter"
	"github.com/nordview/invoicer/internal/email"
	"github.com/nordview/invoicer/internal/handler"
	"github.com/nordview/invoicer/internal/middleware"
	"github.com/nordview/invoicer/internal/pipeline"
	"github.com/nordview/invoicer/internal/render"
	"github.com/nordview/invoicer/internal/router"
	"github.com/nordview/invoicer/internal/storage"
	"github.com/nordview/invoicer/internal/telemetry"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Load the company and client roster
	roster, err := internal.LoadRoster(cfg.RosterPath)
	if err != nil {
		return fmt.Errorf("roster load failed: %w", err)
	}
	logger.Info("Roster loaded", "company", roster.Company.Name, "clients", len(roster.Clients))

	// Initialize the durable invoice counter
	var store counter.Store
	switch cfg.Counter.Provider {
	case "postgres":
		logger.Info("Connecting to database...")
		pool, err := pgxpool.New(ctx, cfg.Counter.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		store, err = counter.NewPostgresStore(ctx, pool)
		if err != nil {
			return fmt.Errorf("failed to initialize postgres counter: %w", err)
		}
		logger.Info("Postgres counter initialized")
	default:
		store, err = counter.NewFileStore(cfg.Counter.FilePath)
		if err != nil {
			return fmt.Errorf("failed to initialize file counter: %w", err)
		}
		logger.Info("File counter initialized", "path", cfg.Counter.FilePath)
	}
	alloc := counter.NewAllocator(store, logger)

	// Initialize the archive backend
	objects, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	archiver := archive.NewArchiver(objects, cfg.ArtifactPrefix)

	// Initialize the email sender
	var sender email.Sender
	switch cfg.Email.Provider {
	case "postmark":
		sender = email.NewPostmarkSender(cfg.Email.PostmarkToken)
		logger.Info("Postmark sender initialized")
	default:
		sender = email.NewSMTPSender(&email.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     int(cfg.Email.SMTPPort),
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.From,
		}, logger)
		logger.Info("SMTP sender initialized", "host", cfg.Email.SMTPHost)
	}
	mailer := email.NewService(sender, cfg.Email.From, cfg.Email.FromName, cfg.ArtifactPrefix)
	notifier := alert.NewEmailNotifier(sender, cfg.Email.From, cfg.Alert.To)

	// Renderer and metrics
	renderer := render.NewPDFRenderer(roster.Company)
	metrics := telemetry.NewMetrics("invoicer", prometheus.DefaultRegisterer)

	runner := pipeline.NewRunner(
		roster,
		alloc,
		renderer,
		mailer,
		archiver,
		notifier,
		logger,
		pipeline.Options{
			StepTimeout: time.Duration(cfg.StepTimeoutSeconds) * time.Second,
			Metrics:     metrics,
		},
	)

	// HTTP surface
	httpMetrics := middleware.NewHTTPMetrics("invoicer", prometheus.DefaultRegisterer)
	r := router.New(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		httpMetrics.Middleware,
	)

	runHandler := handler.NewRunHandler(runner, cfg.SchedulerToken, logger, metrics)
	r.Post("/run", runHandler.Trigger)
	r.Get("/healthz", handler.Health)
	r.Handle(http.MethodGet, "/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting invoicer server", "address", addr, "env", cfg.Env)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
