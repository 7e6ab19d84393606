package export

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"hour-estimator-backend/internal/analytics"
	"hour-estimator-backend/internal/auth"
	"hour-estimator-backend/internal/tasks"
)

// TaskLoader is the part of the task store the download needs.
type TaskLoader interface {
	GetTasks(ctx context.Context, teamID string) ([]tasks.Task, error)
}

var errNothingToExport = errors.New("nothing to export")

// Handler serves GET /teams/{teamId}/export. Requests for the same team that
// overlap share a single rendering.
type Handler struct {
	tasks    TaskLoader
	exporter *Exporter
	events   *analytics.Logger
	log      *slog.Logger
	group    singleflight.Group
}

func NewHandler(loader TaskLoader, exporter *Exporter, events *analytics.Logger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{tasks: loader, exporter: exporter, events: events, log: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	teamID := strings.TrimSpace(r.PathValue("teamId"))
	if !tasks.ValidTeamID(teamID) {
		http.Error(w, "invalid team id", http.StatusBadRequest)
		return
	}

	// a cancelled first caller must not fail the requests sharing its result
	ctx := context.WithoutCancel(r.Context())

	v, err, shared := h.group.Do(teamID, func() (any, error) {
		list, err := h.tasks.GetTasks(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, errNothingToExport
		}
		f, err := h.exporter.Render(list, teamID)
		if err != nil {
			return nil, err
		}
		return f, nil
	})

	var exportErr *ExportError
	switch {
	case errors.Is(err, errNothingToExport):
		http.Error(w, "no tasks to export", http.StatusUnprocessableEntity)
		return
	case errors.As(err, &exportErr):
		http.Error(w, "export failed, try again", http.StatusInternalServerError)
		return
	case err != nil:
		h.log.Error("load tasks for export", "team_id", teamID, "error", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	f := v.(File)
	if err := h.exporter.Deliver(r.Context(), f, ResponseSink{W: w}); err != nil {
		// logged by the exporter; headers may already be on the wire
		return
	}

	sid, _ := auth.SessionIDFromContext(r.Context())
	h.events.LogRequest(r, teamID, sid, analytics.EventTasksExported, map[string]any{
		"file":        f.Name,
		"task_count":  f.Summary.TaskCount,
		"total_hours": f.Summary.TotalHours,
		"shared":      shared,
	})
}
