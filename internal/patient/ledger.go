package patient

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/store"
)

// SymptomLedger is the append-only record of reported complaints and the
// advice generated for them. Entries are never edited or removed.
type SymptomLedger struct {
	mu      sync.RWMutex
	repo    store.Repository
	entries []domain.SymptomEntry
}

// NewSymptomLedger creates an empty ledger over the given repository.
func NewSymptomLedger(repo store.Repository) *SymptomLedger {
	return &SymptomLedger{repo: repo}
}

// Append validates and stores one entry. The repository write happens
// first, so a storage failure leaves the in-memory ledger untouched.
func (l *SymptomLedger) Append(ctx context.Context, entry domain.SymptomEntry) error {
	if strings.TrimSpace(entry.Message) == "" {
		return &domain.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if !entry.BodyPart.IsValid() {
		return &domain.ValidationError{
			Field:  "body_part",
			Reason: fmt.Sprintf("unknown body part %q", entry.BodyPart),
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.repo.AppendSymptom(ctx, entry); err != nil {
		return &domain.StorageError{Op: "append symptom", Err: err}
	}
	l.entries = append(l.entries, entry)
	return nil
}

// All returns a copy of the entries in insertion order.
func (l *SymptomLedger) All() []domain.SymptomEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.SymptomEntry(nil), l.entries...)
}

// Latest returns the most recently appended entry.
func (l *SymptomLedger) Latest() (domain.SymptomEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return domain.SymptomEntry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Recent returns a copy of up to n of the most recent entries, newest last.
func (l *SymptomLedger) Recent(n int) []domain.SymptomEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n >= len(l.entries) {
		return append([]domain.SymptomEntry(nil), l.entries...)
	}
	return append([]domain.SymptomEntry(nil), l.entries[len(l.entries)-n:]...)
}

func (l *SymptomLedger) restore(entries []domain.SymptomEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]domain.SymptomEntry(nil), entries...)
}
