package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tvnotifier/internal/clock"
	"tvnotifier/internal/config"
	"tvnotifier/internal/infrastructure/mail"
	"tvnotifier/internal/infrastructure/scheduler"
	"tvnotifier/internal/infrastructure/storage"
	"tvnotifier/internal/infrastructure/streaming"
	"tvnotifier/internal/infrastructure/tvmaze"
	"tvnotifier/internal/logging"
	"tvnotifier/internal/ports"
	"tvnotifier/internal/usecase"
)

// Mode selects how a run executes: console-only output and/or daemon loop.
type Mode struct {
	// NoMail prints the plain-text digest to stdout instead of delivering.
	NoMail bool
	// Daemon keeps the process alive, re-running the digest every 24h.
	Daemon bool
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	mode   Mode
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger, mode Mode) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	return &Application{cfg: cfg, logger: baseLogger, mode: mode}
}

// Run opens the database session, wires adapters, and executes the digest
// pipeline (once by default, or on a daily ticker in daemon mode).
func (a *Application) Run(ctx context.Context) error {
	if err := a.validate(); err != nil {
		return err
	}

	db, err := storage.Open(ctx, a.cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	// One outbound client shared by both fetch lanes.
	httpc := &http.Client{Timeout: 20 * time.Second}

	clk := clock.System{}
	loc := a.cfg.Digest.Location()

	var notifier ports.Notifier
	if !a.mode.NoMail {
		notifier = mail.NewNotifier(a.cfg.SMTP)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Repository:   storage.NewPostgresRepository(db),
		Episodes:     tvmaze.NewClient(a.cfg.TVMaze.BaseURL, httpc, clk, loc),
		Availability: streaming.NewClient(a.cfg.Streaming.BaseURL, a.cfg.Streaming.APIKey, a.cfg.Streaming.Country, httpc),
		Notifier:     notifier,
		Clock:        clk,
		Logger:       a.logger.With("component", "pipeline"),
		Options: usecase.Options{
			MaxConcurrent:  a.cfg.Pipeline.MaxConcurrent,
			FailFast:       a.cfg.Pipeline.FailFast,
			FutureDays:     a.cfg.Digest.FutureDays,
			MoviePlatforms: a.cfg.Digest.MoviePlatforms,
			SiteURL:        a.cfg.Digest.SiteURL,
			Location:       loc,
		},
	})

	if !a.mode.Daemon {
		return pipeline.Run(ctx)
	}

	sched := usecase.NewScheduler(
		scheduler.NewTickerScheduler(24*time.Hour),
		pipeline,
		a.logger.With("component", "scheduler"),
	)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()
	return sched.Stop(context.Background())
}

// validate rejects incomplete configuration before any fetch begins.
func (a *Application) validate() error {
	if a.cfg.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if !a.mode.NoMail {
		if a.cfg.SMTP.Host == "" || a.cfg.SMTP.From == "" {
			return fmt.Errorf("smtp host and from address are required for delivery")
		}
	}
	return nil
}
