package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/patient"
	"github.com/maksymlunov/Strangers-2025/internal/store"
)

func openTelemetryStream(t *testing.T) (context.Context, *websocket.Conn, *patient.Session) {
	t.Helper()

	session := patient.NewSession(store.NewMemory())
	srv := httptest.NewServer(NewTelemetryWSHandler(session.Telemetry, ""))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	ws, _, err := websocket.Dial(ctx, srv.URL, nil)
	if err != nil {
		t.Fatalf("failed to dial telemetry stream: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close(websocket.StatusNormalClosure, "test done") })
	return ctx, ws, session
}

func sendFrame(t *testing.T, ctx context.Context, ws *websocket.Conn, frame string) map[string]string {
	t.Helper()

	if err := ws.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}
	_, data, err := ws.Read(ctx)
	if err != nil {
		t.Fatalf("failed to read ack: %v", err)
	}
	var ack map[string]string
	if err := json.Unmarshal(data, &ack); err != nil {
		t.Fatalf("failed to decode ack %q: %v", data, err)
	}
	return ack
}

func TestTelemetryStreamStoresFrames(t *testing.T) {
	t.Parallel()

	ctx, ws, session := openTelemetryStream(t)

	ack := sendFrame(t, ctx, ws,
		`{"device": "Smartwatch", "recorded_at": "2025-03-09T08:00:00Z", "metrics": {"heart_rate": 71}}`)
	if ack["status"] != "ok" || ack["device"] != "Smartwatch" {
		t.Fatalf("unexpected ack: %v", ack)
	}

	// The timestamp is optional; the server stamps missing ones.
	ack = sendFrame(t, ctx, ws, `{"device": "smartwatch", "metrics": {"heart_rate": 74}}`)
	if ack["status"] != "ok" {
		t.Fatalf("unexpected ack: %v", ack)
	}

	sessions := session.Telemetry.Sessions(domain.DeviceSmartwatch)
	if len(sessions) != 2 {
		t.Fatalf("expected 2 stored recordings, got %+v", sessions)
	}
	if sessions[0].Metrics["heart_rate"] != 71 {
		t.Fatalf("unexpected first recording: %+v", sessions[0])
	}
	if sessions[1].RecordedAt.IsZero() {
		t.Fatal("expected the second recording to be stamped")
	}
	if devices := session.Telemetry.Devices(); len(devices) != 1 || devices[0] != domain.DeviceSmartwatch {
		t.Fatalf("expected the smartwatch to be registered, got %v", devices)
	}
}

func TestTelemetryStreamRejectsBadFrames(t *testing.T) {
	t.Parallel()

	ctx, ws, session := openTelemetryStream(t)

	ack := sendFrame(t, ctx, ws, `{not json`)
	if ack["status"] != "error" || ack["error"] != "malformed frame" {
		t.Fatalf("unexpected ack: %v", ack)
	}

	ack = sendFrame(t, ctx, ws, `{"device": "Toaster", "metrics": {"heat": 9000}}`)
	if ack["status"] != "error" || !strings.Contains(ack["error"], "device") {
		t.Fatalf("unexpected ack: %v", ack)
	}

	// Bad frames must not kill the stream.
	ack = sendFrame(t, ctx, ws, `{"device": "SmartScale", "metrics": {"weight_kg": 81.4}}`)
	if ack["status"] != "ok" {
		t.Fatalf("unexpected ack: %v", ack)
	}

	if devices := session.Telemetry.Devices(); len(devices) != 1 || devices[0] != domain.DeviceSmartScale {
		t.Fatalf("expected only the scale to be registered, got %v", devices)
	}
}

func TestTelemetryStreamRejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	session := patient.NewSession(store.NewMemory())
	srv := httptest.NewServer(NewTelemetryWSHandler(session.Telemetry, "https://app.example.com"))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws, _, err := websocket.Dial(ctx, srv.URL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"https://evil.example.com"}},
	})
	if err == nil {
		ws.Close(websocket.StatusNormalClosure, "unexpected")
		t.Fatal("expected the dial to be rejected")
	}
}
