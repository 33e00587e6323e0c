// Sparring - Customer Service Agent Training Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/sparringbot/sparring/internal/api"
	"github.com/sparringbot/sparring/internal/catalog"
	"github.com/sparringbot/sparring/internal/config"
	"github.com/sparringbot/sparring/internal/dialogue"
	"github.com/sparringbot/sparring/internal/identity"
	"github.com/sparringbot/sparring/internal/llm"
	"github.com/sparringbot/sparring/internal/middleware"
	"github.com/sparringbot/sparring/internal/recording"
	"github.com/sparringbot/sparring/internal/scoring"
	"github.com/sparringbot/sparring/internal/store"
	"github.com/sparringbot/sparring/internal/trainer"
	"github.com/sparringbot/sparring/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	templates := catalog.New(cfg.TemplatesPath)

	recordings, err := recording.NewStore(cfg.RecordingsDir)
	if err != nil {
		slog.Error("Failed to initialize recording store", "error", err)
		os.Exit(1)
	}

	// OpenAI client is optional; without a key the trainer falls back to
	// canned replies and lexical scoring. The interface stays nil when
	// disabled so the services take their fallback paths.
	var client llm.Client
	if openAI := llm.NewOpenAI(cfg.OpenAI); openAI != nil {
		client = openAI
		slog.Info("OpenAI client initialized", "model", cfg.OpenAI.Model)
	} else {
		slog.Info("AI features disabled (OPENAI_API_KEY not set), using fallback dialogue and scoring")
	}

	// Initialize services.
	generator := dialogue.NewService(client)
	scorer := scoring.NewService(client)
	registry := trainer.NewRegistry()
	orch := trainer.NewOrchestrator(repo, registry, generator, scorer, templates)

	// Initialize handlers.
	wsHandler := trainer.NewWebSocketHandler(orch, cfg.FrontendURL, cfg.IsDevelopment())
	sessionHandler := api.NewSessionHandler(repo)
	templateHandler := api.NewTemplateHandler(templates)
	recordingHandler := api.NewRecordingHandler(recordings, repo, cfg.MaxRecordingBytes)
	healthHandler := api.NewHealthHandler(repo)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	corsOrigins := []string{cfg.FrontendURL}
	if cfg.IsDevelopment() {
		corsOrigins = []string{"*"}
	}
	r.Use(middleware.CORS(corsOrigins))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	healthHandler.RegisterRoutes(r)
	sessionHandler.RegisterRoutes(r)
	templateHandler.RegisterRoutes(r)
	recordingHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/session", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket sessions are long-lived
		IdleTimeout:  120 * time.Second,
	}

	// Start abandoned-session janitor.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trainer.StartJanitor(ctx, repo, cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
