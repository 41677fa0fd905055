package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/store"
)

func sessionAt(kind domain.DeviceKind, at time.Time, hr float64) domain.DeviceSession {
	return domain.DeviceSession{
		Device:     kind,
		RecordedAt: at,
		Metrics:    map[string]float64{"heart_rate": hr},
	}
}

func TestTelemetryRegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	tel := NewTelemetryStore(store.NewMemory())

	if err := tel.Register(ctx, domain.DeviceSmartScale); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := tel.Register(ctx, domain.DeviceSmartScale); err != nil {
		t.Fatalf("Register() second call error = %v", err)
	}

	if got := tel.Devices(); len(got) != 1 {
		t.Errorf("Devices() = %v, want a single SmartScale", got)
	}
}

func TestTelemetryRejectsUnknownDevice(t *testing.T) {
	ctx := context.Background()
	tel := NewTelemetryStore(store.NewMemory())

	err := tel.Register(ctx, domain.DeviceKind("Thermometer"))
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Register() error = %v, want ValidationError", err)
	}

	err = tel.AddSession(ctx, sessionAt(domain.DeviceKind("Thermometer"), time.Now(), 0))
	if !errors.As(err, &vErr) {
		t.Fatalf("AddSession() error = %v, want ValidationError", err)
	}
	if len(tel.Devices()) != 0 {
		t.Error("unknown device ended up registered")
	}
}

func TestTelemetryAutoRegistersOnFirstSession(t *testing.T) {
	ctx := context.Background()
	tel := NewTelemetryStore(store.NewMemory())

	if err := tel.AddSession(ctx, sessionAt(domain.DeviceFitnessBand, time.Now(), 64)); err != nil {
		t.Fatalf("AddSession() error = %v", err)
	}

	devices := tel.Devices()
	if len(devices) != 1 || devices[0] != domain.DeviceFitnessBand {
		t.Errorf("Devices() = %v, want [FitnessBand]", devices)
	}
	if got := tel.Sessions(domain.DeviceFitnessBand); len(got) != 1 {
		t.Errorf("Sessions() = %d recordings, want 1", len(got))
	}
}

func TestTelemetryPreservesArrivalOrder(t *testing.T) {
	ctx := context.Background()
	tel := NewTelemetryStore(store.NewMemory())
	base := time.Unix(1756000000, 0).UTC()

	// Recordings arrive with shuffled timestamps; the store must keep
	// arrival order and never sort or deduplicate.
	arrivals := []time.Time{base.Add(2 * time.Hour), base, base.Add(time.Hour), base}
	for i, at := range arrivals {
		if err := tel.AddSession(ctx, sessionAt(domain.DeviceSmartwatch, at, float64(60+i))); err != nil {
			t.Fatalf("AddSession(%d) error = %v", i, err)
		}
	}

	got := tel.Sessions(domain.DeviceSmartwatch)
	if len(got) != len(arrivals) {
		t.Fatalf("Sessions() = %d recordings, want %d", len(got), len(arrivals))
	}
	for i, at := range arrivals {
		if !got[i].RecordedAt.Equal(at) {
			t.Errorf("recording %d at %v, want %v (arrival order broken)", i, got[i].RecordedAt, at)
		}
	}
}

func TestTelemetryRecentLimitsPerDevice(t *testing.T) {
	ctx := context.Background()
	tel := NewTelemetryStore(store.NewMemory())
	base := time.Unix(1756000000, 0).UTC()

	for i := 0; i < 5; i++ {
		if err := tel.AddSession(ctx, sessionAt(domain.DeviceSmartwatch, base.Add(time.Duration(i)*time.Minute), float64(60+i))); err != nil {
			t.Fatalf("AddSession() error = %v", err)
		}
	}
	if err := tel.Register(ctx, domain.DeviceSmartScale); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	digests := tel.Recent(3)
	if len(digests) != 2 {
		t.Fatalf("Recent() covered %d devices, want 2", len(digests))
	}
	if digests[0].Device != domain.DeviceSmartwatch || len(digests[0].Sessions) != 3 {
		t.Errorf("smartwatch digest = %d sessions, want the 3 most recent", len(digests[0].Sessions))
	}
	if got := digests[0].Sessions[0].Metrics["heart_rate"]; got != 62 {
		t.Errorf("oldest kept recording heart_rate = %v, want 62", got)
	}
	if digests[1].Device != domain.DeviceSmartScale || len(digests[1].Sessions) != 0 {
		t.Errorf("smart scale digest = %+v, want registered device with no recordings", digests[1])
	}
}

func TestTelemetryStorageFailureLeavesMemoryUntouched(t *testing.T) {
	ctx := context.Background()
	repo := &flakyRepo{Repository: store.NewMemory(), failAppendSession: true}
	tel := NewTelemetryStore(repo)

	err := tel.AddSession(ctx, sessionAt(domain.DeviceSmartwatch, time.Now(), 70))
	var sErr *domain.StorageError
	if !errors.As(err, &sErr) {
		t.Fatalf("AddSession() error = %v, want StorageError", err)
	}
	// Registration succeeded before the session write failed, so the device
	// exists but carries no recordings.
	if got := tel.Sessions(domain.DeviceSmartwatch); len(got) != 0 {
		t.Errorf("Sessions() = %d recordings despite storage failure, want 0", len(got))
	}
}
