package tasks

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hour-estimator-backend/internal/analytics"
	"hour-estimator-backend/internal/auth"
)

type Handlers struct {
	Store  *Store
	Events *analytics.Logger
	Log    *slog.Logger
}

func NewHandlers(store *Store, events *analytics.Logger, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{Store: store, Events: events, Log: logger}
}

// teamFromPath reads and validates {teamId}; it writes the 400 itself.
func teamFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	teamID := strings.TrimSpace(r.PathValue("teamId"))
	if !ValidTeamID(teamID) {
		http.Error(w, "invalid team id", http.StatusBadRequest)
		return "", false
	}
	return teamID, true
}

func (h *Handlers) EnsureTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := teamFromPath(w, r)
	if !ok {
		return
	}

	if err := h.Store.EnsureTeamExists(r.Context(), teamID); err != nil {
		h.Log.Error("ensure team", "team_id", teamID, "error", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": teamID})
}

func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	teamID, ok := teamFromPath(w, r)
	if !ok {
		return
	}

	result, err := h.Store.GetTasks(r.Context(), teamID)
	if err != nil {
		h.Log.Error("get tasks", "team_id", teamID, "error", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	teamID, ok := teamFromPath(w, r)
	if !ok {
		return
	}

	var body TaskInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	id, err := h.Store.AddTask(r.Context(), teamID, body)
	if err != nil {
		h.writeStoreError(w, teamID, "add task", err)
		return
	}

	sid, _ := auth.SessionIDFromContext(r.Context())
	h.Events.LogRequest(r, teamID, sid, analytics.EventTaskCreated, map[string]any{
		"task_id":     id,
		"hours":       body.EstimatedHours,
		"status":      body.Status,
		"has_context": body.Context != nil && strings.TrimSpace(*body.Context) != "",
		"has_azure":   body.AzureID != nil && strings.TrimSpace(*body.AzureID) != "",
	})

	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	teamID, ok := teamFromPath(w, r)
	if !ok {
		return
	}
	taskID := r.PathValue("taskId")

	var body TaskInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := h.Store.UpdateTask(r.Context(), teamID, taskID, body); err != nil {
		h.writeStoreError(w, teamID, "update task", err)
		return
	}

	sid, _ := auth.SessionIDFromContext(r.Context())
	h.Events.LogRequest(r, teamID, sid, analytics.EventTaskUpdated, map[string]any{
		"task_id": taskID,
		"hours":   body.EstimatedHours,
		"status":  body.Status,
	})

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	teamID, ok := teamFromPath(w, r)
	if !ok {
		return
	}
	taskID := r.PathValue("taskId")

	if err := h.Store.DeleteTask(r.Context(), teamID, taskID); err != nil {
		h.writeStoreError(w, teamID, "delete task", err)
		return
	}

	sid, _ := auth.SessionIDFromContext(r.Context())
	h.Events.LogRequest(r, teamID, sid, analytics.EventTaskDeleted, map[string]any{
		"task_id": taskID,
	})

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handlers) writeStoreError(w http.ResponseWriter, teamID, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidTask), errors.Is(err, ErrInvalidTeamID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrTaskNotFound):
		http.Error(w, "task not found", http.StatusNotFound)
	default:
		h.Log.Error(op, "team_id", teamID, "error", err)
		http.Error(w, "db error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
