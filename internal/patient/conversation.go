package patient

import (
	"context"
	"sync"
	"time"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/store"
)

// Conversation is the patient's active chat context. It is idle until the
// first symptom arrives and active for exactly one body part afterwards.
// Reporting a new symptom resets it unconditionally, even for the body part
// that is already active.
type Conversation struct {
	mu     sync.RWMutex
	repo   store.Repository
	active domain.BodyPart // empty while idle
	window []domain.ChatMessage
	gen    uint64
}

// NewConversation creates an idle conversation over the given repository.
func NewConversation(repo store.Repository) *Conversation {
	return &Conversation{repo: repo}
}

// Active returns the current body part, or false while the conversation is
// idle.
func (c *Conversation) Active() (domain.BodyPart, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active, c.active != ""
}

// Window returns a copy of the current message window.
func (c *Conversation) Window() []domain.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.ChatMessage(nil), c.window...)
}

// Snapshot returns the active part, a window copy and the generation in one
// consistent read.
func (c *Conversation) Snapshot() (domain.BodyPart, []domain.ChatMessage, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active, append([]domain.ChatMessage(nil), c.window...), c.gen
}

// Reset activates part and wipes the window. It returns the new generation
// so in-flight model calls can detect that they raced with the reset.
func (c *Conversation) Reset(ctx context.Context, part domain.BodyPart) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.repo.SaveWindow(ctx, part, nil); err != nil {
		return 0, &domain.StorageError{Op: "reset conversation", Err: err}
	}
	c.active = part
	c.window = nil
	c.gen++
	return c.gen, nil
}

// AppendUser adds the patient's message and returns the generation the
// append landed in. It fails while the conversation is idle.
func (c *Conversation) AppendUser(ctx context.Context, message string, at time.Time) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == "" {
		return 0, &domain.InvalidStateError{Op: "chat", Hint: "report a symptom first"}
	}

	msg := domain.ChatMessage{
		Role:     domain.RoleUser,
		Message:  message,
		BodyPart: c.active,
		SentAt:   at,
	}
	if err := c.repo.AppendChatMessage(ctx, msg); err != nil {
		return 0, &domain.StorageError{Op: "append chat message", Err: err}
	}
	c.window = append(c.window, msg)
	return c.gen, nil
}

// AppendAssistant adds the model reply produced for generation gen. A reply
// that raced with a reset is dropped, so a fresh window never inherits turns
// from the previous complaint. The boolean reports whether the reply landed.
func (c *Conversation) AppendAssistant(ctx context.Context, gen uint64, message string, at time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == "" || gen != c.gen {
		return false, nil
	}

	msg := domain.ChatMessage{
		Role:     domain.RoleAssistant,
		Message:  message,
		BodyPart: c.active,
		SentAt:   at,
	}
	if err := c.repo.AppendChatMessage(ctx, msg); err != nil {
		return false, &domain.StorageError{Op: "append chat message", Err: err}
	}
	c.window = append(c.window, msg)
	return true, nil
}

func (c *Conversation) restore(part domain.BodyPart, window []domain.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = part
	c.window = append([]domain.ChatMessage(nil), window...)
}
