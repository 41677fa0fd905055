package patient

import (
	"context"
	"fmt"
	"sync"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/store"
)

// TelemetryStore holds per-device session recordings in arrival order. It
// never reorders or deduplicates entries; consumers decide what recency
// means for them.
type TelemetryStore struct {
	mu       sync.RWMutex
	repo     store.Repository
	order    []domain.DeviceKind
	sessions map[domain.DeviceKind][]domain.DeviceSession
}

// NewTelemetryStore creates an empty telemetry store over the given
// repository.
func NewTelemetryStore(repo store.Repository) *TelemetryStore {
	return &TelemetryStore{
		repo:     repo,
		sessions: make(map[domain.DeviceKind][]domain.DeviceSession),
	}
}

// Register adds a device kind. Registering the same kind twice is a no-op.
func (t *TelemetryStore) Register(ctx context.Context, kind domain.DeviceKind) error {
	if !kind.IsValid() {
		return &domain.ValidationError{
			Field:  "device",
			Reason: fmt.Sprintf("unknown device %q", kind),
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.registerLocked(ctx, kind)
}

func (t *TelemetryStore) registerLocked(ctx context.Context, kind domain.DeviceKind) error {
	if _, ok := t.sessions[kind]; ok {
		return nil
	}
	if err := t.repo.RegisterDevice(ctx, kind); err != nil {
		return &domain.StorageError{Op: "register device", Err: err}
	}
	t.sessions[kind] = nil
	t.order = append(t.order, kind)
	return nil
}

// AddSession appends one recording. A session from a known device kind that
// was never registered registers it first; devices start pushing data before
// anyone touches the registration endpoint.
func (t *TelemetryStore) AddSession(ctx context.Context, session domain.DeviceSession) error {
	if !session.Device.IsValid() {
		return &domain.ValidationError{
			Field:  "device",
			Reason: fmt.Sprintf("unknown device %q", session.Device),
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.registerLocked(ctx, session.Device); err != nil {
		return err
	}
	if err := t.repo.AppendDeviceSession(ctx, session); err != nil {
		return &domain.StorageError{Op: "append device session", Err: err}
	}
	t.sessions[session.Device] = append(t.sessions[session.Device], session)
	return nil
}

// Devices returns the registered device kinds in registration order.
func (t *TelemetryStore) Devices() []domain.DeviceKind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.DeviceKind(nil), t.order...)
}

// Sessions returns a copy of one device's recordings in arrival order.
func (t *TelemetryStore) Sessions(kind domain.DeviceKind) []domain.DeviceSession {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.DeviceSession(nil), t.sessions[kind]...)
}

// All returns every registered device's recordings in arrival order, keyed
// by device kind.
func (t *TelemetryStore) All() map[domain.DeviceKind][]domain.DeviceSession {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[domain.DeviceKind][]domain.DeviceSession, len(t.sessions))
	for kind, sessions := range t.sessions {
		out[kind] = append([]domain.DeviceSession(nil), sessions...)
	}
	return out
}

// Recent returns up to n of the most recent recordings per registered
// device, oldest first, in registration order.
func (t *TelemetryStore) Recent(n int) []DeviceDigest {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]DeviceDigest, 0, len(t.order))
	for _, kind := range t.order {
		sessions := t.sessions[kind]
		if len(sessions) > n {
			sessions = sessions[len(sessions)-n:]
		}
		out = append(out, DeviceDigest{
			Device:   kind,
			Sessions: append([]domain.DeviceSession(nil), sessions...),
		})
	}
	return out
}

// DeviceDigest pairs a device with a slice of its recordings, preserving
// registration order where a map would lose it.
type DeviceDigest struct {
	Device   domain.DeviceKind
	Sessions []domain.DeviceSession
}

func (t *TelemetryStore) restore(order []domain.DeviceKind, sessions map[domain.DeviceKind][]domain.DeviceSession) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.order = append([]domain.DeviceKind(nil), order...)
	t.sessions = make(map[domain.DeviceKind][]domain.DeviceSession, len(sessions))
	for _, kind := range order {
		t.sessions[kind] = append([]domain.DeviceSession(nil), sessions[kind]...)
	}
	// Recordings can exist for kinds that never hit the register endpoint
	// on an older journal; fold them into the order so nothing is dropped.
	for kind, recs := range sessions {
		if _, ok := t.sessions[kind]; !ok {
			t.order = append(t.order, kind)
			t.sessions[kind] = append([]domain.DeviceSession(nil), recs...)
		}
	}
}
