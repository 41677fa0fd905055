// Package report compiles the patient stores into the doctor report: a
// fixed-order document structure handed to a renderer. The compiler owns
// what the report says, the renderer owns how it looks.
package report

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/patient"
)

const reportTitle = "Patient Report"

// summaryFallback replaces the narrative when the summary model is
// unavailable. The report itself always renders.
const summaryFallback = "Automated summary could not be generated."

const reportDisclaimer = "Note: This report is generated by an automated system and is not a substitute for professional medical evaluation or diagnosis."

// Empty-state placeholders. Sections are never omitted, they render these
// instead.
const (
	placeholderNoSymptoms = "No symptom history recorded yet."
	placeholderNoDevices  = "No devices registered."
	placeholderNoReadings = "No data recorded."
	placeholderNoChat     = "No chat conversation recorded for this problem."
)

// Summarizer produces the narrative overview paragraph.
type Summarizer interface {
	Summarize(ctx context.Context) (string, error)
}

// Document is the compiled report: five sections in fixed order, each
// present even when its store is empty. ID identifies one compiled report
// so a doctor can reference the exact document they were handed.
type Document struct {
	ID          string
	Title       string
	GeneratedAt time.Time
	Summary     string
	Symptoms    SymptomSection
	Telemetry   TelemetrySection
	Chat        ChatSection
	Disclaimers []string
}

// SymptomSection lists the full journal in insertion order.
type SymptomSection struct {
	Entries     []domain.SymptomEntry
	Placeholder string
}

// TelemetrySection holds one table per registered device, in registration
// order.
type TelemetrySection struct {
	Tables      []DeviceTable
	Placeholder string
}

type DeviceTable struct {
	Device      domain.DeviceKind
	Rows        []DeviceRow
	Placeholder string
}

type DeviceRow struct {
	RecordedAt time.Time
	Readings   string
}

// ChatSection carries the tail of the active conversation window.
type ChatSection struct {
	Messages    []domain.ChatMessage
	Placeholder string
}

// Compiler reads the patient stores and assembles Documents.
type Compiler struct {
	session    *patient.Session
	summarizer Summarizer
	chatLimit  int
	now        func() time.Time
}

// NewCompiler creates a compiler. chatLimit caps how many window messages
// the chat section shows.
func NewCompiler(session *patient.Session, summarizer Summarizer, chatLimit int) *Compiler {
	return &Compiler{
		session:    session,
		summarizer: summarizer,
		chatLimit:  chatLimit,
		now:        time.Now,
	}
}

// Compile assembles the document. A summary failure degrades to fallback
// text instead of failing the report.
func (c *Compiler) Compile(ctx context.Context) Document {
	summary, err := c.summarizer.Summarize(ctx)
	if err != nil {
		slog.Warn("Report summary unavailable, using fallback", "error", err)
	}
	if summary = strings.TrimSpace(summary); summary == "" {
		summary = summaryFallback
	}

	doc := Document{
		ID:          uuid.NewString(),
		Title:       reportTitle,
		GeneratedAt: c.now().UTC(),
		Summary:     summary,
		Disclaimers: []string{reportDisclaimer},
	}

	if entries := c.session.Ledger.All(); len(entries) == 0 {
		doc.Symptoms.Placeholder = placeholderNoSymptoms
	} else {
		doc.Symptoms.Entries = entries
	}

	devices := c.session.Telemetry.Devices()
	if len(devices) == 0 {
		doc.Telemetry.Placeholder = placeholderNoDevices
	}
	for _, kind := range devices {
		table := DeviceTable{Device: kind}
		sessions := c.session.Telemetry.Sessions(kind)
		if len(sessions) == 0 {
			table.Placeholder = placeholderNoReadings
		}
		for _, s := range sessions {
			table.Rows = append(table.Rows, DeviceRow{
				RecordedAt: s.RecordedAt,
				Readings:   s.MetricsSummary(),
			})
		}
		doc.Telemetry.Tables = append(doc.Telemetry.Tables, table)
	}

	window := c.session.Conv.Window()
	if c.chatLimit > 0 && len(window) > c.chatLimit {
		window = window[len(window)-c.chatLimit:]
	}
	if len(window) == 0 {
		doc.Chat.Placeholder = placeholderNoChat
	} else {
		doc.Chat.Messages = window
	}

	return doc
}
