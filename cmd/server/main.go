// Health monitor - patient journal and AI guidance server
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/maksymlunov/Strangers-2025/internal/agent"
	"github.com/maksymlunov/Strangers-2025/internal/api"
	"github.com/maksymlunov/Strangers-2025/internal/config"
	"github.com/maksymlunov/Strangers-2025/internal/llm"
	"github.com/maksymlunov/Strangers-2025/internal/middleware"
	"github.com/maksymlunov/Strangers-2025/internal/patient"
	"github.com/maksymlunov/Strangers-2025/internal/report"
	"github.com/maksymlunov/Strangers-2025/internal/store"
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

	slog.Info("Starting health monitor", "port", cfg.Port, "storage", cfg.StorageDriver)

	// Initialize dependencies.
	repo, err := openRepository(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Storage health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Storage connected")

	session, err := patient.Restore(context.Background(), repo)
	if err != nil {
		slog.Error("Failed to restore the patient journal", "error", err)
		os.Exit(1)
	}

	audit, err := agent.NewConversationLogger(agent.ConversationLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := audit.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	factory := &llm.Factory{
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		OpenAIModel:      cfg.OpenAIModel,
		Temperature:      cfg.LLMTemperature,
		YandexOAuthToken: cfg.YandexOAuthToken,
		YandexFolderID:   cfg.YandexFolderID,
	}
	client, err := factory.CreateClient(cfg.LLMProvider)
	if err != nil {
		slog.Error("Failed to initialize model client", "error", err)
		os.Exit(1)
	}
	slog.Info("Model client ready", "provider", cfg.LLMProvider)

	// Initialize services.
	assembler := agent.NewPromptAssembler(session, cfg.ChatWindowLimit, cfg.DeviceSummaryLimit, cfg.PromptMaxBytes)
	svc := agent.NewService(client, session, assembler, cfg.LLMTimeout, audit)

	renderer, err := report.NewHTMLRenderer()
	if err != nil {
		slog.Error("Failed to initialize report renderer", "error", err)
		os.Exit(1)
	}
	compiler := report.NewCompiler(session, svc, cfg.ReportChatLimit)

	// Initialize handlers.
	handler := api.NewHandler(svc, session, compiler, renderer)
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := api.NewTelemetryWSHandler(session.Telemetry, telemetryOrigin(cfg.AllowedOrigins))

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Public routes.
	healthHandler.RegisterHealth(r)
	handler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/telemetry", wsHandler.ServeHTTP)

	// Create server.
	// Note: the telemetry stream holds connections open (no WriteTimeout).
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

// openRepository picks the storage backend from the configured driver.
func openRepository(cfg *config.Config) (store.Repository, error) {
	switch cfg.StorageDriver {
	case "sqlite":
		return store.NewSQLite(cfg.DBPath)
	case "postgres":
		return store.NewPostgres(cfg.DatabaseURL)
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.StorageDriver)
	}
}

// telemetryOrigin reduces the CORS origin list to the single origin the
// WebSocket handshake checks against.
func telemetryOrigin(origins []string) string {
	for _, o := range origins {
		if o == "*" {
			return "*"
		}
	}
	if len(origins) > 0 {
		return origins[0]
	}
	return "*"
}
