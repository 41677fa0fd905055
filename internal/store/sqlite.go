package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS symptoms (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		message TEXT NOT NULL,
		body_part TEXT NOT NULL,
		reported_at INTEGER NOT NULL,
		advice TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS devices (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		registered_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS device_sessions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		device TEXT NOT NULL,
		recorded_at INTEGER NOT NULL,
		metrics_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_device_sessions_device ON device_sessions(device, seq);

	CREATE TABLE IF NOT EXISTS conversation (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		body_part TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		role TEXT NOT NULL,
		message TEXT NOT NULL,
		body_part TEXT NOT NULL DEFAULT '',
		sent_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load reads the full journal for startup hydration.
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Sessions: make(map[domain.DeviceKind][]domain.DeviceSession)}

	symptoms, err := s.loadSymptoms(ctx)
	if err != nil {
		return nil, err
	}
	snap.Symptoms = symptoms

	if err := s.loadDevices(ctx, snap); err != nil {
		return nil, err
	}

	part, window, err := s.loadConversation(ctx)
	if err != nil {
		return nil, err
	}
	snap.ActivePart = part
	snap.Window = window

	return snap, nil
}

func (s *SQLiteStore) loadSymptoms(ctx context.Context) ([]domain.SymptomEntry, error) {
	query := `SELECT id, message, body_part, reported_at, advice FROM symptoms ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query symptoms: %w", err)
	}
	defer closeRows(rows, "symptoms")

	var entries []domain.SymptomEntry
	for rows.Next() {
		var entry domain.SymptomEntry
		var reportedAt int64
		if err := rows.Scan(&entry.ID, &entry.Message, &entry.BodyPart, &reportedAt, &entry.Advice); err != nil {
			return nil, fmt.Errorf("scan symptom row: %w", err)
		}
		entry.ReportedAt = time.Unix(reportedAt, 0).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symptoms: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) loadDevices(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM devices ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("query devices: %w", err)
	}
	defer closeRows(rows, "devices")

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan device row: %w", err)
		}
		kind := domain.DeviceKind(name)
		snap.Devices = append(snap.Devices, kind)
		snap.Sessions[kind] = nil
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate devices: %w", err)
	}

	sessRows, err := s.db.QueryContext(ctx,
		`SELECT device, recorded_at, metrics_json FROM device_sessions ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("query device sessions: %w", err)
	}
	defer closeRows(sessRows, "device sessions")

	for sessRows.Next() {
		var device, metricsJSON string
		var recordedAt int64
		if err := sessRows.Scan(&device, &recordedAt, &metricsJSON); err != nil {
			return fmt.Errorf("scan device session row: %w", err)
		}
		session := domain.DeviceSession{
			Device:     domain.DeviceKind(device),
			RecordedAt: time.Unix(recordedAt, 0).UTC(),
		}
		if err := json.Unmarshal([]byte(metricsJSON), &session.Metrics); err != nil {
			return fmt.Errorf("decode session metrics: %w", err)
		}
		snap.Sessions[session.Device] = append(snap.Sessions[session.Device], session)
	}
	if err := sessRows.Err(); err != nil {
		return fmt.Errorf("iterate device sessions: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadConversation(ctx context.Context) (domain.BodyPart, []domain.ChatMessage, error) {
	var part string
	err := s.db.QueryRowContext(ctx, `SELECT body_part FROM conversation WHERE id = 1`).Scan(&part)
	if err == sql.ErrNoRows {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("scan conversation row: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, message, body_part, sent_at FROM chat_messages ORDER BY seq`)
	if err != nil {
		return "", nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer closeRows(rows, "chat messages")

	var window []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		var sentAt int64
		if err := rows.Scan(&msg.Role, &msg.Message, &msg.BodyPart, &sentAt); err != nil {
			return "", nil, fmt.Errorf("scan chat message row: %w", err)
		}
		msg.SentAt = time.Unix(sentAt, 0).UTC()
		window = append(window, msg)
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return domain.BodyPart(part), window, nil
}

// AppendSymptom stores one immutable symptom entry.
func (s *SQLiteStore) AppendSymptom(ctx context.Context, entry domain.SymptomEntry) error {
	query := `INSERT INTO symptoms (id, message, body_part, reported_at, advice) VALUES (?, ?, ?, ?, ?)`
	err := s.execRetry(ctx, query,
		entry.ID, entry.Message, string(entry.BodyPart), entry.ReportedAt.Unix(), entry.Advice)
	if err != nil {
		return fmt.Errorf("insert symptom: %w", err)
	}
	return nil
}

// RegisterDevice records a device kind, ignoring duplicates.
func (s *SQLiteStore) RegisterDevice(ctx context.Context, kind domain.DeviceKind) error {
	query := `INSERT INTO devices (name, registered_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`
	if err := s.execRetry(ctx, query, string(kind), time.Now().Unix()); err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

// AppendDeviceSession stores one device recording.
func (s *SQLiteStore) AppendDeviceSession(ctx context.Context, session domain.DeviceSession) error {
	metricsJSON, err := json.Marshal(session.Metrics)
	if err != nil {
		return fmt.Errorf("encode session metrics: %w", err)
	}
	query := `INSERT INTO device_sessions (device, recorded_at, metrics_json) VALUES (?, ?, ?)`
	err = s.execRetry(ctx, query,
		string(session.Device), session.RecordedAt.Unix(), string(metricsJSON))
	if err != nil {
		return fmt.Errorf("insert device session: %w", err)
	}
	return nil
}

// AppendChatMessage adds one message to the persisted chat window.
func (s *SQLiteStore) AppendChatMessage(ctx context.Context, msg domain.ChatMessage) error {
	query := `INSERT INTO chat_messages (role, message, body_part, sent_at) VALUES (?, ?, ?, ?)`
	err := s.execRetry(ctx, query,
		string(msg.Role), msg.Message, string(msg.BodyPart), msg.SentAt.Unix())
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// execRetry runs a single write statement, retrying briefly when another
// connection holds the write lock.
func (s *SQLiteStore) execRetry(ctx context.Context, query string, args ...interface{}) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}
		_, err = s.db.ExecContext(ctx, query, args...)
		if err == nil || !shared.IsSQLiteConflict(err) {
			return err
		}
	}
	return err
}

// SaveWindow replaces the active body part and the chat window in one
// transaction.
func (s *SQLiteStore) SaveWindow(ctx context.Context, part domain.BodyPart, window []domain.ChatMessage) error {
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
		INSERT INTO conversation (id, body_part, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			body_part = excluded.body_part,
			updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, upsert, string(part), time.Now().Unix()); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages`); err != nil {
		return fmt.Errorf("clear chat messages: %w", err)
	}
	for _, msg := range window {
		insert := `INSERT INTO chat_messages (role, message, body_part, sent_at) VALUES (?, ?, ?, ?)`
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
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "query", what, "error", err)
	}
}
