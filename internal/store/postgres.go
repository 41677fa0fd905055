package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	_ "github.com/lib/pq"
)

// PostgresStore implements Repository using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a new PostgreSQL-backed repository from a connection
// URL.
func NewPostgres(databaseURL string) (Repository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS symptoms (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		message TEXT NOT NULL,
		body_part TEXT NOT NULL,
		reported_at BIGINT NOT NULL,
		advice TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS devices (
		seq BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		registered_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS device_sessions (
		seq BIGSERIAL PRIMARY KEY,
		device TEXT NOT NULL,
		recorded_at BIGINT NOT NULL,
		metrics_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_device_sessions_device ON device_sessions(device, seq);

	CREATE TABLE IF NOT EXISTS conversation (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		body_part TEXT NOT NULL DEFAULT '',
		updated_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		seq BIGSERIAL PRIMARY KEY,
		role TEXT NOT NULL,
		message TEXT NOT NULL,
		body_part TEXT NOT NULL DEFAULT '',
		sent_at BIGINT NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load reads the full journal for startup hydration.
func (s *PostgresStore) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Sessions: make(map[domain.DeviceKind][]domain.DeviceSession)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message, body_part, reported_at, advice FROM symptoms ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query symptoms: %w", err)
	}
	defer closeRows(rows, "symptoms")
	for rows.Next() {
		var entry domain.SymptomEntry
		var reportedAt int64
		if err := rows.Scan(&entry.ID, &entry.Message, &entry.BodyPart, &reportedAt, &entry.Advice); err != nil {
			return nil, fmt.Errorf("scan symptom row: %w", err)
		}
		entry.ReportedAt = time.Unix(reportedAt, 0).UTC()
		snap.Symptoms = append(snap.Symptoms, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symptoms: %w", err)
	}

	devRows, err := s.db.QueryContext(ctx, `SELECT name FROM devices ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer closeRows(devRows, "devices")
	for devRows.Next() {
		var name string
		if err := devRows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan device row: %w", err)
		}
		kind := domain.DeviceKind(name)
		snap.Devices = append(snap.Devices, kind)
		snap.Sessions[kind] = nil
	}
	if err := devRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}

	sessRows, err := s.db.QueryContext(ctx,
		`SELECT device, recorded_at, metrics_json FROM device_sessions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query device sessions: %w", err)
	}
	defer closeRows(sessRows, "device sessions")
	for sessRows.Next() {
		var device, metricsJSON string
		var recordedAt int64
		if err := sessRows.Scan(&device, &recordedAt, &metricsJSON); err != nil {
			return nil, fmt.Errorf("scan device session row: %w", err)
		}
		session := domain.DeviceSession{
			Device:     domain.DeviceKind(device),
			RecordedAt: time.Unix(recordedAt, 0).UTC(),
		}
		if err := json.Unmarshal([]byte(metricsJSON), &session.Metrics); err != nil {
			return nil, fmt.Errorf("decode session metrics: %w", err)
		}
		snap.Sessions[session.Device] = append(snap.Sessions[session.Device], session)
	}
	if err := sessRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate device sessions: %w", err)
	}

	var part string
	err = s.db.QueryRowContext(ctx, `SELECT body_part FROM conversation WHERE id = 1`).Scan(&part)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}
	snap.ActivePart = domain.BodyPart(part)

	msgRows, err := s.db.QueryContext(ctx,
		`SELECT role, message, body_part, sent_at FROM chat_messages ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer closeRows(msgRows, "chat messages")
	for msgRows.Next() {
		var msg domain.ChatMessage
		var sentAt int64
		if err := msgRows.Scan(&msg.Role, &msg.Message, &msg.BodyPart, &sentAt); err != nil {
			return nil, fmt.Errorf("scan chat message row: %w", err)
		}
		msg.SentAt = time.Unix(sentAt, 0).UTC()
		snap.Window = append(snap.Window, msg)
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	return snap, nil
}

// AppendSymptom stores one immutable symptom entry.
func (s *PostgresStore) AppendSymptom(ctx context.Context, entry domain.SymptomEntry) error {
	query := `INSERT INTO symptoms (id, message, body_part, reported_at, advice) VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.Message, string(entry.BodyPart), entry.ReportedAt.Unix(), entry.Advice)
	if err != nil {
		return fmt.Errorf("insert symptom: %w", err)
	}
	return nil
}

// RegisterDevice records a device kind, ignoring duplicates.
func (s *PostgresStore) RegisterDevice(ctx context.Context, kind domain.DeviceKind) error {
	query := `INSERT INTO devices (name, registered_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, string(kind), time.Now().Unix()); err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

// AppendDeviceSession stores one device recording.
func (s *PostgresStore) AppendDeviceSession(ctx context.Context, session domain.DeviceSession) error {
	metricsJSON, err := json.Marshal(session.Metrics)
	if err != nil {
		return fmt.Errorf("encode session metrics: %w", err)
	}
	query := `INSERT INTO device_sessions (device, recorded_at, metrics_json) VALUES ($1, $2, $3)`
	_, err = s.db.ExecContext(ctx, query,
		string(session.Device), session.RecordedAt.Unix(), string(metricsJSON))
	if err != nil {
		return fmt.Errorf("insert device session: %w", err)
	}
	return nil
}

// AppendChatMessage adds one message to the persisted chat window.
func (s *PostgresStore) AppendChatMessage(ctx context.Context, msg domain.ChatMessage) error {
	query := `INSERT INTO chat_messages (role, message, body_part, sent_at) VALUES ($1, $2, $3, $4)`
	_, err := s.db.ExecContext(ctx, query,
		string(msg.Role), msg.Message, string(msg.BodyPart), msg.SentAt.Unix())
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// SaveWindow replaces the active body part and the chat window in one
// transaction.
func (s *PostgresStore) SaveWindow(ctx context.Context, part domain.BodyPart, window []domain.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin window transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			slog.Warn("failed to roll back window transaction", "error", rbErr)
		}
	}()

	upsert := `
		INSERT INTO conversation (id, body_part, updated_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			body_part = EXCLUDED.body_part,
			updated_at = EXCLUDED.updated_at`
	if _, err := tx.ExecContext(ctx, upsert, string(part), time.Now().Unix()); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages`); err != nil {
		return fmt.Errorf("clear chat messages: %w", err)
	}
	for _, msg := range window {
		insert := `INSERT INTO chat_messages (role, message, body_part, sent_at) VALUES ($1, $2, $3, $4)`
		if _, err := tx.ExecContext(ctx, insert,
			string(msg.Role), msg.Message, string(msg.BodyPart), msg.SentAt.Unix()); err != nil {
			return fmt.Errorf("insert window message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit window transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
