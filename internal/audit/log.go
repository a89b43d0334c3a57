package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const defaultAuditPath = "audit/events.db"

// EnvDBPath overrides the audit database location.
const EnvDBPath = "PERFSCORE_AUDIT_DB"

// Event is one stored audit entry.
type Event struct {
	ID      int64           `json:"id"`
	TS      time.Time       `json:"ts"`
	RunID   string          `json:"run_id"`
	Actor   string          `json:"actor"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Logger writes audit events for one CLI run. Every event it writes
// carries the same run id.
type Logger struct {
	DBPath string
	RunID  string
}

// NewLogger returns a Logger bound to dbPath with a fresh run id.
func NewLogger(dbPath string) *Logger {
	return &Logger{DBPath: dbPath, RunID: uuid.NewString()}
}

// LogEvent appends an event. payload is stored as JSON.
func (l *Logger) LogEvent(actor, eventType string, payload any) error {
	var dbPath, runID string
	if l != nil {
		dbPath, runID = l.DBPath, l.RunID
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	resolved, err := resolveDBPath(dbPath)
	if err != nil {
		return err
	}
	return writeEvent(resolved, runID, actor, eventType, payload)
}

// Recent returns the newest events, newest first.
func (l *Logger) Recent(ctx context.Context, limit int) ([]Event, error) {
	var dbPath string
	if l != nil {
		dbPath = l.DBPath
	}
	if limit <= 0 {
		limit = 20
	}
	resolved, err := resolveDBPath(dbPath)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", resolved)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := ensureSchema(db); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT id, ts, run_id, actor, type, payload_json FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Event
	for rows.Next() {
		var (
			ev      Event
			ts      string
			payload string
		)
		if err := rows.Scan(&ev.ID, &ts, &ev.RunID, &ev.Actor, &ev.Type, &payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if ev.TS, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse audit ts %q: %w", ts, err)
		}
		ev.Payload = json.RawMessage(payload)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit events: %w", err)
	}
	return out, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts DATETIME NOT NULL,
			run_id TEXT NOT NULL,
			actor TEXT NOT NULL,
			type TEXT NOT NULL,
			payload_json TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

func resolveDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		dbPath = os.Getenv(EnvDBPath)
	}
	if dbPath == "" {
		dbPath = defaultAuditPath
	}
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("resolve audit db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure audit db dir: %w", err)
	}
	return absPath, nil
}

func writeEvent(dbPath, runID, actor, eventType string, payload any) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open audit db: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := ensureSchema(db); err != nil {
		return err
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = db.Exec(
		"INSERT INTO events (ts, run_id, actor, type, payload_json) VALUES (?, ?, ?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339Nano),
		runID,
		actor,
		eventType,
		string(payloadJSON),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
