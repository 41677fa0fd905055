package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/patient"
)

// TelemetryWSHandler ingests device recordings over a WebSocket. A wearable
// holds one connection open and pushes readings as JSON frames; every frame
// is answered with an ack frame.
type TelemetryWSHandler struct {
	telemetry     *patient.TelemetryStore
	allowedOrigin string
}

// NewTelemetryWSHandler creates a telemetry stream handler.
func NewTelemetryWSHandler(telemetry *patient.TelemetryStore, allowedOrigin string) *TelemetryWSHandler {
	return &TelemetryWSHandler{telemetry: telemetry, allowedOrigin: allowedOrigin}
}

// telemetryFrame is one pushed recording.
type telemetryFrame struct {
	Device     string             `json:"device"`
	RecordedAt time.Time          `json:"recorded_at"`
	Metrics    map[string]float64 `json:"metrics"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *TelemetryWSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept telemetry WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close telemetry websocket", "error", closeErr)
		}
	}()

	slog.Info("Telemetry stream connected", "ip", r.RemoteAddr)

	ctx := r.Context()
	for {
		_, frame, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("Telemetry stream closed by client")
			} else {
				slog.Warn("Telemetry read error", "error", err)
			}
			return
		}
		h.handleFrame(ctx, ws, frame)
	}
}

func (h *TelemetryWSHandler) handleFrame(ctx context.Context, ws *websocket.Conn, frame []byte) {
	var msg telemetryFrame
	if err := json.Unmarshal(frame, &msg); err != nil {
		h.ack(ws, map[string]string{"status": "error", "error": "malformed frame"})
		return
	}

	session, err := buildDeviceSession(msg.Device, msg.RecordedAt, msg.Metrics)
	if err == nil {
		err = h.telemetry.AddSession(ctx, session)
	}
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			h.ack(ws, map[string]string{"status": "error", "error": validationErr.Error()})
			return
		}
		slog.Error("Telemetry ingest failed", "error", err, "device", msg.Device)
		h.ack(ws, map[string]string{"status": "error", "error": "storage failure"})
		return
	}

	h.ack(ws, map[string]string{"status": "ok", "device": string(session.Device)})
}

func (h *TelemetryWSHandler) ack(ws *websocket.Conn, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Debug("Failed to marshal telemetry ack", "error", err)
		return
	}
	if err := ws.Write(context.Background(), websocket.MessageText, data); err != nil {
		slog.Debug("Failed to send telemetry ack", "error", err)
	}
}

func (h *TelemetryWSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" || origin == h.allowedOrigin {
		return true
	}
	slog.Warn("Telemetry origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}
