package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maksim/feather/internal/backup"
	"github.com/maksim/feather/internal/config"
	httpcontroller "github.com/maksim/feather/internal/controller/http"
	analyticsdao "github.com/maksim/feather/internal/domain/analytics/dao"
	analyticsservice "github.com/maksim/feather/internal/domain/analytics/service"
	"github.com/maksim/feather/internal/domain/message/classifier"
	messagepolicy "github.com/maksim/feather/internal/domain/message/policy"
	messageservice "github.com/maksim/feather/internal/domain/message/service"
	"github.com/maksim/feather/internal/domain/schedule/planner"
	schedulepolicy "github.com/maksim/feather/internal/domain/schedule/policy"
	scheduleservice "github.com/maksim/feather/internal/domain/schedule/service"
	"github.com/maksim/feather/internal/httpx/upstream/openai"
	"github.com/maksim/feather/internal/httpx/upstream/twitter"
	"github.com/maksim/feather/internal/scheduler"
	"github.com/maksim/feather/internal/storage"
	"github.com/maksim/feather/internal/store"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	// Domain policies (interfaces for HTTP handlers)
	schedulePolicy *schedulepolicy.Policy
	messagePolicy  *messagepolicy.Policy
	analytics      *analyticsservice.Service
	analyticsDB    *analyticsdao.SQLite

	// Periodic loops
	loops []*scheduler.Loop
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(30 * time.Second))

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	if err := app.initDomains(ctx); err != nil {
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	app.registerRoutes()

	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// initDomains initializes the durable store, upstream clients, domain
// layers, and the periodic loops
func (a *App) initDomains(ctx context.Context) error {
	clock := scheduler.SystemClock()

	fileStore, err := store.NewFileStore(a.cfg.Store.Dir)
	if err != nil {
		return fmt.Errorf("initializing file store: %w", err)
	}

	// Upstream clients
	twitterClient := twitter.New(
		a.cfg.Twitter.BearerToken,
		a.cfg.Twitter.BotUserID,
		twitter.WithBaseURL(a.cfg.Twitter.BaseURL),
	)

	openaiClient := openai.New(
		a.cfg.OpenAI.APIKey,
		openai.WithBaseURL(a.cfg.OpenAI.BaseURL),
		openai.WithModel(a.cfg.OpenAI.Model),
	)
	generator := openai.NewGenerator(openaiClient, openai.GeneratorConfig{
		Language:      a.cfg.Content.Language,
		Themes:        a.cfg.Content.ThemeList(),
		HashtagCount:  a.cfg.Content.HashtagCount,
		MaxPostLength: a.cfg.Content.MaxPostLength,
		MaxTokens:     a.cfg.OpenAI.MaxTokens,
		Temperature:   a.cfg.OpenAI.Temperature,
	})

	// Analytics
	var scheduleTracker schedulepolicy.Tracker
	var messageTracker messagepolicy.Tracker
	if a.cfg.Analytics.Enabled {
		db, err := analyticsdao.NewSQLite(a.cfg.Analytics.DBPath)
		if err != nil {
			return fmt.Errorf("initializing analytics: %w", err)
		}
		a.analyticsDB = db
		a.analytics = analyticsservice.New(db, a.logger)
		scheduleTracker = a.analytics
		messageTracker = a.analytics
	}

	// Post scheduler domain
	scheduleSvc, err := scheduleservice.New(fileStore)
	if err != nil {
		return fmt.Errorf("initializing schedule service: %w", err)
	}

	slots := planner.ComputeSlots(a.cfg.Posting.Hour, a.cfg.Posting.Minute, a.cfg.Posting.MaxPostsPerDay)
	a.schedulePolicy = schedulepolicy.New(
		scheduleSvc,
		generator,
		twitterClient,
		scheduleTracker,
		clock,
		a.logger,
		slots,
		a.cfg.Posting.MaxPostsPerDay,
	)

	// Message dispatcher domain
	messageSvc, err := messageservice.New(fileStore)
	if err != nil {
		return fmt.Errorf("initializing message service: %w", err)
	}

	cls := classifier.New(a.cfg.Content.Language, a.cfg.Content.BlacklistWords())
	a.messagePolicy = messagepolicy.New(
		messageSvc,
		cls,
		generator,
		twitterClient,
		messageTracker,
		clock,
		a.logger,
		a.cfg.Responses.DelayMin,
		a.cfg.Responses.DelayMax,
	)

	// Periodic loops
	if a.cfg.Posting.Enabled {
		a.loops = append(a.loops,
			scheduler.New("post-scheduler", a.schedulePolicy, a.cfg.Posting.TickInterval, a.logger))
	}
	if a.cfg.Responses.Enabled {
		a.loops = append(a.loops,
			scheduler.New("message-dispatcher", a.messagePolicy, a.cfg.Responses.CheckInterval, a.logger))
	}
	if a.cfg.Backup.Enabled {
		s3, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:        a.cfg.Backup.S3Endpoint,
			AccessKeyID:     a.cfg.Backup.S3AccessKeyID,
			SecretAccessKey: a.cfg.Backup.S3SecretAccessKey,
			Bucket:          a.cfg.Backup.S3Bucket,
			Region:          a.cfg.Backup.S3Region,
		})
		if err != nil {
			return fmt.Errorf("initializing backup storage: %w", err)
		}
		proc := backup.New(fileStore.Dir(), s3, a.logger)
		a.loops = append(a.loops,
			scheduler.New("backup", proc, a.cfg.Backup.Interval, a.logger))
	}

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	// API v1
	a.router.Route("/api/v1", func(r chi.Router) {
		scheduleHandler := httpcontroller.NewScheduleHandler(a.schedulePolicy)
		scheduleHandler.RegisterRoutes(r)

		messageHandler := httpcontroller.NewMessageHandler(a.messagePolicy)
		messageHandler.RegisterRoutes(r)

		if a.analytics != nil {
			analyticsHandler := httpcontroller.NewAnalyticsHandler(a.analytics)
			analyticsHandler.RegisterRoutes(r)
		}
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler handles readiness check requests
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	for _, loop := range a.loops {
		loop.Start(ctx)
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Stop loops; each waits for its in-flight iteration
	for _, loop := range a.loops {
		loop.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	if a.analyticsDB != nil {
		if err := a.analyticsDB.Close(); err != nil {
			a.logger.Error("closing analytics db failed", "error", err)
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
