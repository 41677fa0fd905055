// Package patient holds the mutable patient state: the symptom ledger, the
// active conversation window and the device telemetry store. Each store
// serializes its own mutations, so callers never coordinate locks across
// them.
package patient

import (
	"context"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/store"
)

// Session aggregates the three per-patient stores over one repository.
// Supporting several patients later means keying Sessions by patient ID;
// nothing in the stores assumes a singleton.
type Session struct {
	Ledger    *SymptomLedger
	Conv      *Conversation
	Telemetry *TelemetryStore
}

// NewSession assembles an empty session over the given repository.
func NewSession(repo store.Repository) *Session {
	return &Session{
		Ledger:    NewSymptomLedger(repo),
		Conv:      NewConversation(repo),
		Telemetry: NewTelemetryStore(repo),
	}
}

// Restore hydrates a session from the persisted journal.
func Restore(ctx context.Context, repo store.Repository) (*Session, error) {
	snap, err := repo.Load(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "load journal", Err: err}
	}

	s := NewSession(repo)
	s.Ledger.restore(snap.Symptoms)
	s.Conv.restore(snap.ActivePart, snap.Window)
	s.Telemetry.restore(snap.Devices, snap.Sessions)
	return s, nil
}
