// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
)

// Snapshot is the persisted patient journal loaded at startup. Slices keep
// insertion order; Sessions keeps per-device arrival order.
type Snapshot struct {
	Symptoms   []domain.SymptomEntry
	Devices    []domain.DeviceKind
	Sessions   map[domain.DeviceKind][]domain.DeviceSession
	ActivePart domain.BodyPart // empty while no conversation is active
	Window     []domain.ChatMessage
}

// Repository persists the patient journal. Every write is atomic: a failed
// call never leaves a partial record behind.
type Repository interface {
	// Load reads the full journal for startup hydration.
	Load(ctx context.Context) (*Snapshot, error)

	// AppendSymptom stores one immutable symptom entry.
	AppendSymptom(ctx context.Context, entry domain.SymptomEntry) error

	// RegisterDevice records a device kind. Registering the same kind
	// twice is a no-op.
	RegisterDevice(ctx context.Context, kind domain.DeviceKind) error

	// AppendDeviceSession stores one device recording in arrival order.
	AppendDeviceSession(ctx context.Context, session domain.DeviceSession) error

	// AppendChatMessage adds one message to the persisted chat window.
	AppendChatMessage(ctx context.Context, msg domain.ChatMessage) error

	// SaveWindow replaces the active body part and the whole chat window
	// in one atomic write. It backs the conversation reset.
	SaveWindow(ctx context.Context, part domain.BodyPart, window []domain.ChatMessage) error

	// Ping verifies connectivity and returns an error if the backend is
	// unreachable.
	Ping(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error
}
