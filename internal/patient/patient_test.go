package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/store"
)

var errBackendDown = errors.New("backend down")

// flakyRepo wraps a working repository and fails selected operations, for
// checking that storage failures leave the in-memory state untouched.
type flakyRepo struct {
	store.Repository
	failAppendSymptom bool
	failAppendChat    bool
	failSaveWindow    bool
	failRegister      bool
	failAppendSession bool
}

func (f *flakyRepo) AppendSymptom(ctx context.Context, entry domain.SymptomEntry) error {
	if f.failAppendSymptom {
		return errBackendDown
	}
	return f.Repository.AppendSymptom(ctx, entry)
}

func (f *flakyRepo) AppendChatMessage(ctx context.Context, msg domain.ChatMessage) error {
	if f.failAppendChat {
		return errBackendDown
	}
	return f.Repository.AppendChatMessage(ctx, msg)
}

func (f *flakyRepo) SaveWindow(ctx context.Context, part domain.BodyPart, window []domain.ChatMessage) error {
	if f.failSaveWindow {
		return errBackendDown
	}
	return f.Repository.SaveWindow(ctx, part, window)
}

func (f *flakyRepo) RegisterDevice(ctx context.Context, kind domain.DeviceKind) error {
	if f.failRegister {
		return errBackendDown
	}
	return f.Repository.RegisterDevice(ctx, kind)
}

func (f *flakyRepo) AppendDeviceSession(ctx context.Context, session domain.DeviceSession) error {
	if f.failAppendSession {
		return errBackendDown
	}
	return f.Repository.AppendDeviceSession(ctx, session)
}

func newTestSession() *Session {
	return NewSession(store.NewMemory())
}

func entryAt(id string, part domain.BodyPart, at time.Time) domain.SymptomEntry {
	return domain.SymptomEntry{
		ID:         id,
		Message:    "test complaint " + id,
		BodyPart:   part,
		ReportedAt: at,
	}
}

func TestRestoreHydratesFromRepository(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()
	base := time.Unix(1756000000, 0).UTC()

	first := NewSession(repo)
	if err := first.Ledger.Append(ctx, entryAt("sym-1", domain.BodyPartKnee, base)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := first.Conv.Reset(ctx, domain.BodyPartKnee); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := first.Conv.AppendUser(ctx, "it clicks when I walk", base.Add(time.Minute)); err != nil {
		t.Fatalf("AppendUser() error = %v", err)
	}
	if err := first.Telemetry.AddSession(ctx, domain.DeviceSession{
		Device:     domain.DeviceSmartwatch,
		RecordedAt: base,
		Metrics:    map[string]float64{"heart_rate": 80},
	}); err != nil {
		t.Fatalf("AddSession() error = %v", err)
	}

	restored, err := Restore(ctx, repo)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if got := restored.Ledger.All(); len(got) != 1 || got[0].ID != "sym-1" {
		t.Errorf("restored ledger = %+v, want the single appended entry", got)
	}
	part, active := restored.Conv.Active()
	if !active || part != domain.BodyPartKnee {
		t.Errorf("restored conversation active = %v %q, want Knee", active, part)
	}
	if got := restored.Conv.Window(); len(got) != 1 || got[0].Message != "it clicks when I walk" {
		t.Errorf("restored window = %+v, want the single user turn", got)
	}
	if got := restored.Telemetry.Devices(); len(got) != 1 || got[0] != domain.DeviceSmartwatch {
		t.Errorf("restored devices = %v, want [Smartwatch]", got)
	}
}
