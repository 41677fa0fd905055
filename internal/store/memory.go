package store

import (
	"context"
	"sync"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
)

// MemoryStore implements Repository entirely in process memory. It backs
// tests and local development where durability does not matter.
type MemoryStore struct {
	mu         sync.RWMutex
	symptoms   []domain.SymptomEntry
	devices    []domain.DeviceKind
	sessions   map[domain.DeviceKind][]domain.DeviceSession
	activePart domain.BodyPart
	window     []domain.ChatMessage
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[domain.DeviceKind][]domain.DeviceSession)}
}

// Load reads the full journal for startup hydration.
func (s *MemoryStore) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Symptoms:   append([]domain.SymptomEntry(nil), s.symptoms...),
		Devices:    append([]domain.DeviceKind(nil), s.devices...),
		Sessions:   make(map[domain.DeviceKind][]domain.DeviceSession, len(s.sessions)),
		ActivePart: s.activePart,
		Window:     append([]domain.ChatMessage(nil), s.window...),
	}
	for kind, sessions := range s.sessions {
		snap.Sessions[kind] = append([]domain.DeviceSession(nil), sessions...)
	}
	return snap, nil
}

// AppendSymptom stores one immutable symptom entry.
func (s *MemoryStore) AppendSymptom(ctx context.Context, entry domain.SymptomEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symptoms = append(s.symptoms, entry)
	return nil
}

// RegisterDevice records a device kind, ignoring duplicates.
func (s *MemoryStore) RegisterDevice(ctx context.Context, kind domain.DeviceKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[kind]; ok {
		return nil
	}
	s.sessions[kind] = nil
	s.devices = append(s.devices, kind)
	return nil
}

// AppendDeviceSession stores one device recording.
func (s *MemoryStore) AppendDeviceSession(ctx context.Context, session domain.DeviceSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Device] = append(s.sessions[session.Device], session)
	return nil
}

// AppendChatMessage adds one message to the persisted chat window.
func (s *MemoryStore) AppendChatMessage(ctx context.Context, msg domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = append(s.window, msg)
	return nil
}

// SaveWindow replaces the active body part and the whole chat window.
func (s *MemoryStore) SaveWindow(ctx context.Context, part domain.BodyPart, window []domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activePart = part
	s.window = append([]domain.ChatMessage(nil), window...)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
