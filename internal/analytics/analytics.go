package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"hour-estimator-backend/internal/db"
)

// Event names.
const (
	EventTaskCreated   = "task_created"
	EventTaskUpdated   = "task_updated"
	EventTaskDeleted   = "task_deleted"
	EventTasksExported = "tasks_exported"
)

// Envelope is what we store with every event.
type Envelope struct {
	TeamID       string
	SessionID    string
	Platform     string
	AppVersion   string
	DeviceLocale string
}

// FromRequest extracts event envelope fields from request headers.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "ios", "android", "web":
	default:
		platform = "unknown"
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	return Envelope{
		SessionID:    strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:     platform,
		AppVersion:   strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale: locale,
	}
}

// SourceEventKeyFromRequest returns the client idempotency key, if any.
func SourceEventKeyFromRequest(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get("Idempotency-Key")); k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

// Logger writes events; a failed write is logged and never surfaces to the
// caller's flow.
type Logger struct {
	db  *db.DB
	log *slog.Logger
	now func() time.Time
}

func NewLogger(d *db.DB, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{db: d, log: logger, now: time.Now}
}

// Log inserts one event. Duplicate non-empty source keys are ignored.
// Callers pass sanitized props only, never raw task text.
func (l *Logger) Log(ctx context.Context, env Envelope, eventName string, props any, sourceEventKey string) {
	if l == nil || eventName == "" {
		return
	}

	b, err := json.Marshal(props)
	if err != nil {
		l.log.Warn("analytics: marshal props", "event", eventName, "error", err)
		return
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO analytics_events (
			id, event_name, event_time,
			team_id, session_id,
			platform, app_version, device_locale,
			source_event_key, properties
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_event_key) DO NOTHING
	`, uuid.NewString(), eventName, db.FormatTime(l.now()),
		nullIfEmpty(env.TeamID), nullIfEmpty(env.SessionID),
		env.Platform, nullIfEmpty(env.AppVersion), nullIfEmpty(env.DeviceLocale),
		nullIfEmpty(sourceEventKey), string(b),
	)
	if err != nil {
		l.log.Warn("analytics: insert event", "event", eventName, "error", err)
	}
}

// LogRequest is Log with the envelope and source key taken from r.
func (l *Logger) LogRequest(r *http.Request, teamID, sessionID, eventName string, props any) {
	env := FromRequest(r)
	env.TeamID = teamID
	if sessionID != "" {
		env.SessionID = sessionID
	}
	l.Log(r.Context(), env, eventName, props, SourceEventKeyFromRequest(r))
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
