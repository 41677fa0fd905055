package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Conversation log event types.
const (
	EventSymptomReported = "symptom_reported"
	EventChatUser        = "chat_user_message"
	EventChatAssistant   = "chat_assistant_message"
	EventRiskDegraded    = "risk_degraded"
)

// ConversationLogEvent is one NDJSON line in the conversation audit log.
type ConversationLogEvent struct {
	Timestamp time.Time `json:"ts"`
	EventType string    `json:"event_type"`
	BodyPart  string    `json:"body_part,omitempty"`
	Role      string    `json:"role,omitempty"`
	Content   string    `json:"content,omitempty"`
	Model     string    `json:"model,omitempty"`
	Tokens    int       `json:"tokens,omitempty"`
}

// ConversationLogConfig controls the audit log.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// ConversationLogger records conversation events for later review. Log must
// never block a request path; implementations queue or drop.
type ConversationLogger interface {
	Log(event ConversationLogEvent)
	Close() error
}

// noopConversationLogger is used when audit logging is disabled.
type noopConversationLogger struct{}

func (noopConversationLogger) Log(ConversationLogEvent) {}
func (noopConversationLogger) Close() error             { return nil }

// fileConversationLogger appends events to one NDJSON file per day through
// a single writer goroutine.
type fileConversationLogger struct {
	dir    string
	logger *slog.Logger
	queue  chan ConversationLogEvent
	done   chan struct{}
	once   sync.Once
}

// NewConversationLogger creates the audit logger described by cfg. With
// logging disabled it returns a no-op implementation.
func NewConversationLogger(cfg ConversationLogConfig, logger *slog.Logger) (ConversationLogger, error) {
	if !cfg.Enabled {
		return noopConversationLogger{}, nil
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create conversation log directory: %w", err)
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}

	l := &fileConversationLogger{
		dir:    cfg.Dir,
		logger: logger,
		queue:  make(chan ConversationLogEvent, queueSize),
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Log queues an event, stamping it if the caller did not. A full queue
// drops the event rather than stall the request.
func (l *fileConversationLogger) Log(event ConversationLogEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case l.queue <- event:
	default:
		l.logger.Warn("conversation log queue full, dropping event", "event_type", event.EventType)
	}
}

// Close drains the queue and stops the writer.
func (l *fileConversationLogger) Close() error {
	l.once.Do(func() {
		close(l.queue)
		<-l.done
	})
	return nil
}

func (l *fileConversationLogger) run() {
	defer close(l.done)
	for event := range l.queue {
		if err := l.write(event); err != nil {
			l.logger.Warn("failed to write conversation log event", "error", err)
		}
	}
}

func (l *fileConversationLogger) write(event ConversationLogEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	path := filepath.Join(l.dir, "conversation-"+event.Timestamp.UTC().Format("2006-01-02")+".ndjson")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			l.logger.Warn("failed to close conversation log file", "error", closeErr)
		}
	}()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}
