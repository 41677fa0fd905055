// Package api provides HTTP handlers for the health monitor API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maksymlunov/Strangers-2025/internal/agent"
	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/patient"
	"github.com/maksymlunov/Strangers-2025/internal/report"
	"github.com/maksymlunov/Strangers-2025/internal/store"
)

// Handler provides the patient-facing REST endpoints.
type Handler struct {
	svc      *agent.Service
	session  *patient.Session
	compiler *report.Compiler
	renderer report.Renderer
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(svc *agent.Service, session *patient.Session, compiler *report.Compiler, renderer report.Renderer) *Handler {
	return &Handler{
		svc:      svc,
		session:  session,
		compiler: compiler,
		renderer: renderer,
	}
}

// RegisterRoutes registers the API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/symptoms", h.ReportSymptom)
		r.Get("/symptoms", h.ListSymptoms)
		r.Post("/chat", h.Chat)
		r.Get("/chat/context", h.ChatContext)
		r.Post("/devices", h.RegisterDevice)
		r.Get("/devices", h.ListDevices)
		r.Post("/devices/data", h.AddDeviceData)
		r.Get("/devices/data", h.DeviceData)
		r.Get("/analysis", h.AnalyzeRisk)
		r.Get("/report", h.DoctorReport)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the domain error taxonomy onto HTTP status codes.
// Validation and state errors carry their message to the caller; storage
// and unknown errors stay generic.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var stateErr *domain.InvalidStateError
	var externalErr *domain.ExternalServiceError
	var storageErr *domain.StorageError

	switch {
	case errors.As(err, &validationErr):
		Error(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &stateErr):
		Error(w, http.StatusConflict, stateErr.Error())
	case errors.As(err, &externalErr):
		slog.Error("External service failure", "error", err, "service", externalErr.Service)
		Error(w, http.StatusBadGateway, "model service unavailable")
	case errors.As(err, &storageErr):
		slog.Error("Storage failure", "error", err)
		Error(w, http.StatusInternalServerError, "storage failure")
	default:
		slog.Error("Unhandled error", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "invalid JSON"}
	}
	return nil
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo store.Repository
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository) *HealthHandler {
	return &HealthHandler{repo: repo}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]interface{}{
		"status": "healthy",
		"checks": map[string]string{"api": "ok"},
	}
	statusCode := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		status["checks"].(map[string]string)["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		status["checks"].(map[string]string)["database"] = "ok"
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}
