package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/store"
)

func TestLedgerKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	ledger := NewSymptomLedger(store.NewMemory())
	base := time.Unix(1756000000, 0).UTC()

	// Deliberately append out of timestamp order; the ledger must not sort.
	if err := ledger.Append(ctx, entryAt("sym-late", domain.BodyPartHead, base.Add(time.Hour))); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := ledger.Append(ctx, entryAt("sym-early", domain.BodyPartKnee, base)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	all := ledger.All()
	if len(all) != 2 {
		t.Fatalf("All() returned %d entries, want 2", len(all))
	}
	if all[0].ID != "sym-late" || all[1].ID != "sym-early" {
		t.Errorf("entries reordered: got %q, %q", all[0].ID, all[1].ID)
	}

	latest, ok := ledger.Latest()
	if !ok || latest.ID != "sym-early" {
		t.Errorf("Latest() = %q %v, want sym-early", latest.ID, ok)
	}
}

func TestLedgerRejectsEmptyMessage(t *testing.T) {
	ctx := context.Background()
	ledger := NewSymptomLedger(store.NewMemory())

	entry := entryAt("sym-1", domain.BodyPartHead, time.Now())
	entry.Message = "   "

	err := ledger.Append(ctx, entry)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Append() error = %v, want ValidationError", err)
	}
	if len(ledger.All()) != 0 {
		t.Error("rejected entry was stored")
	}
}

func TestLedgerRejectsUnknownBodyPart(t *testing.T) {
	ctx := context.Background()
	ledger := NewSymptomLedger(store.NewMemory())

	entry := entryAt("sym-1", domain.BodyPart("Elbow"), time.Now())

	err := ledger.Append(ctx, entry)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Append() error = %v, want ValidationError", err)
	}
	if vErr.Field != "body_part" {
		t.Errorf("ValidationError.Field = %q, want body_part", vErr.Field)
	}
}

func TestLedgerStorageFailureLeavesMemoryUntouched(t *testing.T) {
	ctx := context.Background()
	repo := &flakyRepo{Repository: store.NewMemory(), failAppendSymptom: true}
	ledger := NewSymptomLedger(repo)

	err := ledger.Append(ctx, entryAt("sym-1", domain.BodyPartHead, time.Now()))
	var sErr *domain.StorageError
	if !errors.As(err, &sErr) {
		t.Fatalf("Append() error = %v, want StorageError", err)
	}
	if len(ledger.All()) != 0 {
		t.Error("entry appeared in memory despite storage failure")
	}

	// The same entry must succeed once the backend recovers.
	repo.failAppendSymptom = false
	if err := ledger.Append(ctx, entryAt("sym-1", domain.BodyPartHead, time.Now())); err != nil {
		t.Fatalf("Append() after recovery error = %v", err)
	}
	if len(ledger.All()) != 1 {
		t.Error("entry missing after recovered append")
	}
}

func TestLedgerRecentLimitsAndCopies(t *testing.T) {
	ctx := context.Background()
	ledger := NewSymptomLedger(store.NewMemory())
	base := time.Unix(1756000000, 0).UTC()

	for _, id := range []string{"a", "b", "c", "d"} {
		if err := ledger.Append(ctx, entryAt(id, domain.BodyPartBack, base)); err != nil {
			t.Fatalf("Append(%s) error = %v", id, err)
		}
	}

	recent := ledger.Recent(2)
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "d" {
		t.Errorf("Recent(2) = %v, want [c d]", recent)
	}

	recent[0].Message = "mutated"
	if ledger.All()[2].Message == "mutated" {
		t.Error("Recent() returned a slice sharing backing storage with the ledger")
	}
}
