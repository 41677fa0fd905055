package domain

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single message in the active conversation window. The
// window belongs to the current complaint and is wiped wholesale whenever a
// new symptom is reported.
type ChatMessage struct {
	Role     Role      `json:"role"`
	Message  string    `json:"message"`
	BodyPart BodyPart  `json:"body_part,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}
