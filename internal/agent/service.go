package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/llm"
	"github.com/maksymlunov/Strangers-2025/internal/patient"
)

// summaryHistoryLimit caps how many journal entries the report summary call
// sees.
const summaryHistoryLimit = 5

// Service runs every model-backed operation. It owns the timeout and retry
// discipline, so the stores never wait on the network.
type Service struct {
	client    llm.Client
	session   *patient.Session
	assembler *PromptAssembler
	timeout   time.Duration
	audit     ConversationLogger
	now       func() time.Time
}

// NewService wires the orchestrator. A nil audit logger disables auditing.
func NewService(client llm.Client, session *patient.Session, assembler *PromptAssembler, timeout time.Duration, audit ConversationLogger) *Service {
	if audit == nil {
		audit = noopConversationLogger{}
	}
	return &Service{
		client:    client,
		session:   session,
		assembler: assembler,
		timeout:   timeout,
		audit:     audit,
		now:       time.Now,
	}
}

// ReportSymptom validates the complaint, asks the advice model for a short
// recommendation and stores the entry. The advice call degrades to fixed
// fallback text instead of blocking the append, and the conversation window
// resets to the new body part either way, even when it matches the previous
// one.
func (s *Service) ReportSymptom(ctx context.Context, message, bodyPart string) (domain.SymptomEntry, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return domain.SymptomEntry{}, &domain.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	part, ok := domain.ParseBodyPart(bodyPart)
	if !ok {
		return domain.SymptomEntry{}, &domain.ValidationError{
			Field:  "body_part",
			Reason: fmt.Sprintf("unknown body part %q", bodyPart),
		}
	}

	entry := domain.SymptomEntry{
		ID:         uuid.NewString(),
		Message:    trimmed,
		BodyPart:   part,
		ReportedAt: s.now().UTC(),
	}

	advice, err := s.generateAdvice(ctx, entry)
	if err != nil {
		slog.Warn("Advice generation failed, storing fallback", "body_part", part, "error", err)
		advice = adviceFallback
	}
	entry.Advice = advice

	if err := s.session.Ledger.Append(ctx, entry); err != nil {
		return domain.SymptomEntry{}, err
	}
	if _, err := s.session.Conv.Reset(ctx, part); err != nil {
		return domain.SymptomEntry{}, err
	}

	s.audit.Log(ConversationLogEvent{
		EventType: EventSymptomReported,
		BodyPart:  string(part),
		Role:      string(domain.RoleUser),
		Content:   trimmed,
	})
	return entry, nil
}

func (s *Service) generateAdvice(ctx context.Context, entry domain.SymptomEntry) (string, error) {
	resp, err := s.completeWithRetry(ctx, adviceMessages(s.assembler.AssembleForComplaint(entry)))
	if err != nil {
		return "", &domain.ExternalServiceError{Service: "advice model", Err: err}
	}
	advice := strings.TrimSpace(resp.Content)
	if advice == "" {
		return "", &domain.ExternalServiceError{Service: "advice model", Err: errors.New("empty completion")}
	}
	return advice, nil
}

// Chat appends the user's turn, asks the chat model for a reply bounded by
// the assembled context and returns the updated window. The turn always
// gets an answer: a model failure yields fixed fallback text. A reply that
// raced with a conversation reset is dropped and the fresh window is
// returned instead.
func (s *Service) Chat(ctx context.Context, message string, at time.Time) ([]domain.ChatMessage, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil, &domain.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if at.IsZero() {
		at = s.now()
	}

	gen, err := s.session.Conv.AppendUser(ctx, trimmed, at.UTC())
	if err != nil {
		return nil, err
	}
	part, _ := s.session.Conv.Active()
	s.audit.Log(ConversationLogEvent{
		EventType: EventChatUser,
		BodyPart:  string(part),
		Role:      string(domain.RoleUser),
		Content:   trimmed,
	})

	reply := chatFallback
	var model string
	var tokens int
	resp, err := s.completeWithRetry(ctx, chatMessages(s.assembler.Assemble(), trimmed))
	if err != nil {
		slog.Warn("Chat completion failed, replying with fallback", "error", err)
	} else if content := strings.TrimSpace(resp.Content); content != "" {
		reply = content
		model = resp.Model
		tokens = resp.TotalTokens
	}

	landed, err := s.session.Conv.AppendAssistant(ctx, gen, reply, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if landed {
		s.audit.Log(ConversationLogEvent{
			EventType: EventChatAssistant,
			BodyPart:  string(part),
			Role:      string(domain.RoleAssistant),
			Content:   reply,
			Model:     model,
			Tokens:    tokens,
		})
	} else {
		slog.Info("Conversation reset while reply was in flight, dropping it")
	}

	return s.session.Conv.Window(), nil
}

// AnalyzeRisk runs the risk model over the assembled context and returns
// validated assessments. Transport failures retry once, a malformed reply
// retries once with a corrective instruction, and a second malformed reply
// degrades to an empty flagged result instead of failing the request.
func (s *Service) AnalyzeRisk(ctx context.Context) ([]domain.RiskAssessment, domain.RiskOutcome) {
	payload := s.assembler.Assemble()

	resp, err := s.completeWithRetry(ctx, riskMessages(payload, false))
	if err != nil {
		slog.Warn("Risk model unreachable", "error", err)
		s.logDegraded("model unreachable")
		return nil, domain.RiskDegraded
	}

	list, parseErr := parseRiskList(resp.Content)
	if parseErr != nil {
		slog.Warn("Risk output unparsable, retrying with corrective instruction", "error", parseErr)
		retry, err := s.complete(ctx, riskMessages(payload, true))
		if err != nil {
			s.logDegraded("corrective retry unreachable")
			return nil, domain.RiskDegraded
		}
		list, parseErr = parseRiskList(retry.Content)
		if parseErr != nil {
			slog.Warn("Risk output unparsable after corrective retry", "error", parseErr)
			s.logDegraded("output unparsable twice")
			return nil, domain.RiskDegraded
		}
	}

	if len(list) == 0 {
		return nil, domain.RiskNoFindings
	}
	return list, domain.RiskEvaluated
}

func (s *Service) logDegraded(reason string) {
	part, _ := s.session.Conv.Active()
	s.audit.Log(ConversationLogEvent{
		EventType: EventRiskDegraded,
		BodyPart:  string(part),
		Content:   reason,
	})
}

// Summarize produces the narrative overview for the doctor report.
func (s *Service) Summarize(ctx context.Context) (string, error) {
	payload := s.assembler.Assemble()

	kinds := s.session.Telemetry.Devices()
	devices := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		devices = append(devices, string(kind))
	}

	recent := s.session.Ledger.Recent(summaryHistoryLimit)
	history := make([]ComplaintDigest, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		history = append(history, complaintDigest(recent[i]))
	}

	resp, err := s.completeWithRetry(ctx, summaryMessages(payload, devices, history))
	if err != nil {
		return "", &domain.ExternalServiceError{Service: "summary model", Err: err}
	}
	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return "", &domain.ExternalServiceError{Service: "summary model", Err: errors.New("empty completion")}
	}
	return summary, nil
}

func (s *Service) complete(ctx context.Context, messages []llm.Message) (llm.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Generate(callCtx, messages)
}

// completeWithRetry absorbs one transient failure before giving up.
func (s *Service) completeWithRetry(ctx context.Context, messages []llm.Message) (llm.Response, error) {
	resp, err := s.complete(ctx, messages)
	if err == nil {
		return resp, nil
	}
	slog.Warn("Model call failed, retrying once", "error", err)
	return s.complete(ctx, messages)
}
