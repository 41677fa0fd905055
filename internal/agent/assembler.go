// Package agent orchestrates the model-backed operations: symptom advice,
// the symptom chat, risk analysis and the report summary.
package agent

import (
	"encoding/json"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/patient"
)

// noDataNote marks an absent source in an assembled payload. The model is
// told explicitly instead of the section silently disappearing.
const noDataNote = "no data available"

const promptTimeLayout = "2006-01-02 15:04"

// Payload is the bounded, multi-source context sent with every model call.
type Payload struct {
	Complaint   ComplaintDigest `json:"current_complaint"`
	RecentChat  []ChatLine      `json:"recent_chat,omitempty"`
	ChatNote    string          `json:"recent_chat_note,omitempty"`
	Devices     []DeviceSummary `json:"device_summary,omitempty"`
	DevicesNote string          `json:"device_summary_note,omitempty"`
}

// ComplaintDigest mirrors the active symptom entry, or carries a note when
// nothing has been reported yet.
type ComplaintDigest struct {
	Note       string `json:"note,omitempty"`
	Message    string `json:"message,omitempty"`
	BodyPart   string `json:"body_part,omitempty"`
	Advice     string `json:"advice,omitempty"`
	ReportedAt string `json:"reported_at,omitempty"`
}

// ChatLine is one window message trimmed for prompting.
type ChatLine struct {
	Role    string `json:"role"`
	Message string `json:"message"`
	SentAt  string `json:"sent_at"`
}

// DeviceSummary carries the most recent recordings of one device.
type DeviceSummary struct {
	Device   string        `json:"device"`
	Sessions []SessionLine `json:"sessions"`
}

// SessionLine is one device recording flattened for prompting.
type SessionLine struct {
	RecordedAt string `json:"recorded_at"`
	Readings   string `json:"readings"`
}

// PromptAssembler builds bounded payloads from the patient session. The
// per-source limits cap volume up front; maxBytes caps the marshaled
// payload as a whole.
type PromptAssembler struct {
	session     *patient.Session
	chatLimit   int
	deviceLimit int
	maxBytes    int
}

// NewPromptAssembler creates an assembler over the given session.
func NewPromptAssembler(session *patient.Session, chatLimit, deviceLimit, maxBytes int) *PromptAssembler {
	return &PromptAssembler{
		session:     session,
		chatLimit:   chatLimit,
		deviceLimit: deviceLimit,
		maxBytes:    maxBytes,
	}
}

// Assemble builds the payload for chat, risk analysis and summary calls:
// the active complaint, the last chatLimit window messages and the
// deviceLimit most recent recordings per device.
func (a *PromptAssembler) Assemble() Payload {
	digest := ComplaintDigest{Note: noDataNote}
	if entry, ok := a.session.Ledger.Latest(); ok {
		digest = complaintDigest(entry)
	}
	return a.bound(a.build(digest, true))
}

// AssembleForComplaint builds the payload for the advice call that runs
// while a new complaint is being stored: the incoming entry stands in as
// the active symptom and the chat window is skipped because it is about to
// be reset.
func (a *PromptAssembler) AssembleForComplaint(entry domain.SymptomEntry) Payload {
	return a.bound(a.build(complaintDigest(entry), false))
}

func (a *PromptAssembler) build(digest ComplaintDigest, includeChat bool) Payload {
	payload := Payload{Complaint: digest}

	if includeChat {
		window := a.session.Conv.Window()
		if len(window) > a.chatLimit {
			window = window[len(window)-a.chatLimit:]
		}
		for _, msg := range window {
			payload.RecentChat = append(payload.RecentChat, ChatLine{
				Role:    string(msg.Role),
				Message: msg.Message,
				SentAt:  msg.SentAt.UTC().Format(promptTimeLayout),
			})
		}
	}
	if len(payload.RecentChat) == 0 {
		payload.ChatNote = noDataNote
	}

	for _, dev := range a.session.Telemetry.Recent(a.deviceLimit) {
		summary := DeviceSummary{Device: string(dev.Device)}
		for _, rec := range dev.Sessions {
			summary.Sessions = append(summary.Sessions, SessionLine{
				RecordedAt: rec.RecordedAt.UTC().Format(promptTimeLayout),
				Readings:   rec.MetricsSummary(),
			})
		}
		payload.Devices = append(payload.Devices, summary)
	}
	if len(payload.Devices) == 0 {
		payload.DevicesNote = noDataNote
	}

	return payload
}

// bound drops data until the marshaled payload fits maxBytes: oldest chat
// lines first, then device recordings, then whole devices. The complaint is
// never dropped.
func (a *PromptAssembler) bound(payload Payload) Payload {
	if a.maxBytes <= 0 {
		return payload
	}
	for payloadSize(payload) > a.maxBytes {
		switch {
		case len(payload.RecentChat) > 0:
			payload.RecentChat = payload.RecentChat[1:]
			if len(payload.RecentChat) == 0 {
				payload.ChatNote = noDataNote
			}
		case trimDevices(&payload):
		default:
			return payload
		}
	}
	return payload
}

// trimDevices removes the oldest recording of the fullest device, dropping
// a device entirely once it has nothing left. It returns false when there
// is nothing left to trim.
func trimDevices(payload *Payload) bool {
	fullest := -1
	for i, dev := range payload.Devices {
		if fullest == -1 || len(dev.Sessions) > len(payload.Devices[fullest].Sessions) {
			fullest = i
		}
	}
	if fullest == -1 {
		return false
	}
	if dev := &payload.Devices[fullest]; len(dev.Sessions) > 1 {
		dev.Sessions = dev.Sessions[1:]
		return true
	}
	payload.Devices = append(payload.Devices[:fullest], payload.Devices[fullest+1:]...)
	if len(payload.Devices) == 0 {
		payload.DevicesNote = noDataNote
	}
	return true
}

func complaintDigest(entry domain.SymptomEntry) ComplaintDigest {
	return ComplaintDigest{
		Message:    entry.Message,
		BodyPart:   string(entry.BodyPart),
		Advice:     entry.Advice,
		ReportedAt: entry.ReportedAt.UTC().Format(promptTimeLayout),
	}
}

// promptJSON renders a prompt payload the way the templates embed it.
// Payload values marshal from plain strings, so failures are not reachable;
// the fallback keeps the prompt well-formed regardless.
func promptJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func payloadSize(payload Payload) int {
	return len(promptJSON(payload))
}
