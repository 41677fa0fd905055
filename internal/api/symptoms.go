package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
)

type symptomRequest struct {
	Message  string `json:"message"`
	BodyPart string `json:"body_part"`
}

// ReportSymptom stores a new complaint and returns the entry with its
// generated advice. Reporting resets the chat to the new complaint.
func (h *Handler) ReportSymptom(w http.ResponseWriter, r *http.Request) {
	var req symptomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	entry, err := h.svc.ReportSymptom(r.Context(), req.Message, req.BodyPart)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.Info("Symptom reported", "id", entry.ID, "body_part", entry.BodyPart)
	JSON(w, http.StatusCreated, entry)
}

// ListSymptoms returns the journal in insertion order.
func (h *Handler) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	entries := h.session.Ledger.All()
	if entries == nil {
		entries = []domain.SymptomEntry{}
	}
	JSON(w, http.StatusOK, entries)
}

type chatTurn struct {
	Role     string    `json:"role"`
	Message  string    `json:"message"`
	BodyPart string    `json:"body_part,omitempty"`
	SentAt   time.Time `json:"sent_at,omitempty"`
}

type chatRequest struct {
	Messages []chatTurn `json:"messages"`
}

type chatResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// Chat answers the newest user turn in the request and returns the updated
// window. Clients may send their whole local transcript; the server keeps
// its own and only reads the latest user message.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	var latest *chatTurn
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if strings.EqualFold(req.Messages[i].Role, string(domain.RoleUser)) {
			latest = &req.Messages[i]
			break
		}
	}
	if latest == nil {
		writeDomainError(w, &domain.ValidationError{Field: "messages", Reason: "no user message found"})
		return
	}

	window, err := h.svc.Chat(r.Context(), latest.Message, latest.SentAt)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if window == nil {
		window = []domain.ChatMessage{}
	}
	JSON(w, http.StatusOK, chatResponse{Messages: window})
}

type chatContextResponse struct {
	BodyPart  string               `json:"body_part"`
	Complaint *domain.SymptomEntry `json:"complaint,omitempty"`
	Messages  []domain.ChatMessage `json:"messages"`
}

// ChatContext returns the active conversation: its body part, the complaint
// that opened it and the window so far. With no active conversation the
// body part is empty and messages is an empty list, never null.
func (h *Handler) ChatContext(w http.ResponseWriter, r *http.Request) {
	part, window, _ := h.session.Conv.Snapshot()

	resp := chatContextResponse{
		BodyPart: string(part),
		Messages: []domain.ChatMessage{},
	}
	if len(window) > 0 {
		resp.Messages = window
	}
	if part != "" {
		if entry, ok := h.session.Ledger.Latest(); ok {
			resp.Complaint = &entry
		}
	}
	JSON(w, http.StatusOK, resp)
}
