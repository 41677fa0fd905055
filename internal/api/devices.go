package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
)

type deviceRequest struct {
	Name string `json:"name"`
}

// RegisterDevice adds a device to the registry and returns the full device
// list. Registering the same device twice is a no-op.
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	kind, ok := domain.ParseDeviceKind(req.Name)
	if !ok {
		writeDomainError(w, &domain.ValidationError{
			Field:  "name",
			Reason: fmt.Sprintf("unknown device %q", req.Name),
		})
		return
	}

	if err := h.session.Telemetry.Register(r.Context(), kind); err != nil {
		writeDomainError(w, err)
		return
	}

	slog.Info("Device registered", "device", kind)
	JSON(w, http.StatusOK, h.deviceNames())
}

// ListDevices returns the registered device names in registration order.
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.deviceNames())
}

func (h *Handler) deviceNames() []string {
	kinds := h.session.Telemetry.Devices()
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, string(kind))
	}
	return names
}

type deviceDataRequest struct {
	Device     string             `json:"device"`
	RecordedAt time.Time          `json:"recorded_at"`
	Metrics    map[string]float64 `json:"metrics"`
}

// AddDeviceData ingests one recording over REST.
func (h *Handler) AddDeviceData(w http.ResponseWriter, r *http.Request) {
	var req deviceDataRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	session, err := buildDeviceSession(req.Device, req.RecordedAt, req.Metrics)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.session.Telemetry.AddSession(r.Context(), session); err != nil {
		writeDomainError(w, err)
		return
	}

	JSON(w, http.StatusCreated, session)
}

// DeviceData returns every recording grouped by device. Registered devices
// with no recordings map to empty lists.
func (h *Handler) DeviceData(w http.ResponseWriter, r *http.Request) {
	out := make(map[string][]domain.DeviceSession)
	for _, kind := range h.session.Telemetry.Devices() {
		sessions := h.session.Telemetry.Sessions(kind)
		if sessions == nil {
			sessions = []domain.DeviceSession{}
		}
		out[string(kind)] = sessions
	}
	JSON(w, http.StatusOK, out)
}

// buildDeviceSession validates and normalizes one incoming recording. A
// zero timestamp is stamped with the current time.
func buildDeviceSession(device string, recordedAt time.Time, metrics map[string]float64) (domain.DeviceSession, error) {
	kind, ok := domain.ParseDeviceKind(device)
	if !ok {
		return domain.DeviceSession{}, &domain.ValidationError{
			Field:  "device",
			Reason: fmt.Sprintf("unknown device %q", device),
		}
	}
	if len(metrics) == 0 {
		return domain.DeviceSession{}, &domain.ValidationError{Field: "metrics", Reason: "must not be empty"}
	}
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	return domain.DeviceSession{
		Device:     kind,
		RecordedAt: recordedAt.UTC(),
		Metrics:    metrics,
	}, nil
}
