package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Entry is one audit record in activity_logs.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	Message   string          `json:"message"`
	Actor     string          `json:"actor"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Logger writes audit entries. LogAdminActivity is fire-and-forget:
// a storage failure is logged and swallowed so it can never abort the
// operation being audited.
type Logger struct{ db *sql.DB }

func NewLogger(db *sql.DB) *Logger { return &Logger{db: db} }

func (l *Logger) LogAdminActivity(ctx context.Context, message, actor string, metadata map[string]interface{}) {
	var meta []byte
	if len(metadata) > 0 {
		meta, _ = json.Marshal(metadata)
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, message, actor, metadata)
		VALUES ($1,$2,$3,$4)`,
		uuid.New(), message, actor, nullable(meta))
	if err != nil {
		log.Printf("[activity] failed to record %q by %s: %v", message, actor, err)
	}
}

// ListRecent returns the newest entries, most recent first.
func (l *Logger) ListRecent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, message, actor, metadata, created_at
		FROM activity_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var meta []byte
		if err := rows.Scan(&e.ID, &e.Message, &e.Actor, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			e.Metadata = meta
		}
		entries = append(entries, e)
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return entries, rows.Err()
}

func nullable(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

// Handler exposes the audit trail read-only.
type Handler struct{ logger *Logger }

func NewHandler(logger *Logger) *Handler { return &Handler{logger: logger} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/activity", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.logger.ListRecent(r.Context(), limit)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(entries)
}
