// Command runonce executes a single invoice run from the command line,
// bypassing the HTTP trigger. Useful for local testing and for manual
// reruns after a fixed configuration.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordview/invoicer/internal"
	"github.com/nordview/invoicer/internal/alert"
	"github.com/nordview/invoicer/internal/archive"
	"github.com/nordview/invoicer/internal/counter"
	"github.com/nordview/invoicer/internal/email"
	"github.com/nordview/invoicer/internal/pipeline"
	"github.com/nordview/invoicer/internal/render"
	"github.com/nordview/invoicer/internal/storage"
)

func run() error {
	ctx := context.Background()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	roster, err := internal.LoadRoster(cfg.RosterPath)
	if err != nil {
		return fmt.Errorf("roster load failed: %w", err)
	}

	var store counter.Store
	switch cfg.Counter.Provider {
	case "postgres":
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
	default:
		store, err = counter.NewFileStore(cfg.Counter.FilePath)
		if err != nil {
			return fmt.Errorf("failed to initialize file counter: %w", err)
		}
	}

	objects, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	var sender email.Sender
	switch cfg.Email.Provider {
	case "postmark":
		sender = email.NewPostmarkSender(cfg.Email.PostmarkToken)
	default:
		sender = email.NewSMTPSender(&email.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     int(cfg.Email.SMTPPort),
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.From,
		}, logger)
	}

	runner := pipeline.NewRunner(
		roster,
		counter.NewAllocator(store, logger),
		render.NewPDFRenderer(roster.Company),
		email.NewService(sender, cfg.Email.From, cfg.Email.FromName, cfg.ArtifactPrefix),
		archive.NewArchiver(objects, cfg.ArtifactPrefix),
		alert.NewEmailNotifier(sender, cfg.Email.From, cfg.Alert.To),
		logger,
		pipeline.Options{StepTimeout: time.Duration(cfg.StepTimeoutSeconds) * time.Second},
	)

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("run finished",
		"range", report.Range.String(),
		"sent", report.Sent,
		"send_failed", report.SendFailed,
		"render_failed", report.RenderFailed,
	)
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
