package api

import (
	"log/slog"
	"net/http"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
)

// Placeholder rows keep the analysis endpoint's array contract when the
// model produced nothing usable.
const (
	analysisNoFindings = "Analysis unavailable or unclear"
	analysisFailed     = "Analysis failed"
)

// AnalyzeRisk runs the risk analysis over the current patient context and
// returns one to five assessments.
func (h *Handler) AnalyzeRisk(w http.ResponseWriter, r *http.Request) {
	list, outcome := h.svc.AnalyzeRisk(r.Context())
	switch outcome {
	case domain.RiskNoFindings:
		list = []domain.RiskAssessment{{Disease: analysisNoFindings, Risk: 0}}
	case domain.RiskDegraded:
		slog.Warn("Risk analysis degraded, returning placeholder")
		list = []domain.RiskAssessment{{Disease: analysisFailed, Risk: 0}}
	}
	JSON(w, http.StatusOK, list)
}

// DoctorReport compiles the report document and streams the rendered file
// as a download.
func (h *Handler) DoctorReport(w http.ResponseWriter, r *http.Request) {
	doc := h.compiler.Compile(r.Context())
	body, contentType, err := h.renderer.Render(doc)
	if err != nil {
		slog.Error("Report rendering failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="doctor_report.html"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Warn("Failed to write report response", "error", err)
	}
}
