// Package export turns a team's task list into the "Estimativas de Horas"
// spreadsheet.
//
// An export samples the clock once, lays the whole worksheet out as a
// Report, serialises it and only then hands the finished file to a Sink.
// The exporter keeps no state between calls.
package export

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"hour-estimator-backend/internal/tasks"
)

// File is a finished workbook ready to be saved.
type File struct {
	TeamID  string
	Name    string
	Data    []byte
	Summary Summary
}

type Exporter struct {
	clock     Clock
	loc       *time.Location
	log       *slog.Logger
	serialize func(Report) ([]byte, error)
}

type Option func(*Exporter)

func WithClock(c Clock) Option {
	return func(e *Exporter) { e.clock = c }
}

// WithLocation sets the zone used for every rendered date and the file name.
func WithLocation(loc *time.Location) Option {
	return func(e *Exporter) { e.loc = loc }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) { e.log = l }
}

func New(opts ...Option) *Exporter {
	e := &Exporter{
		clock:     SystemClock,
		loc:       time.Local,
		log:       slog.Default(),
		serialize: writeWorkbook,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e
}

// FileName builds HourEstimator_<team>_<YYYY-MM-DD>_<HHMMSS>.xlsx.
func FileName(teamID string, t time.Time) string {
	return "HourEstimator_" + teamID + "_" + t.Format("2006-01-02") + "_" + t.Format("150405") + ".xlsx"
}

// Render builds the workbook for list without saving it.
func (e *Exporter) Render(list []tasks.Task, teamID string) (File, error) {
	if strings.TrimSpace(teamID) == "" {
		return File{}, e.fail(teamID, "render", errEmptyTeamID)
	}

	now := e.clock.Now().In(e.loc)
	rep := BuildReport(list, teamID, now, e.loc)

	data, err := e.serialize(rep)
	if err != nil {
		return File{}, e.fail(teamID, "serialize", err)
	}

	return File{
		TeamID:  teamID,
		Name:    FileName(teamID, now),
		Data:    data,
		Summary: rep.Summary,
	}, nil
}

// Export renders the workbook and saves it through sink. The sink is not
// called unless rendering succeeded.
func (e *Exporter) Export(ctx context.Context, list []tasks.Task, teamID string, sink Sink) (File, error) {
	f, err := e.Render(list, teamID)
	if err != nil {
		return File{}, err
	}
	if err := e.Deliver(ctx, f, sink); err != nil {
		return File{}, err
	}
	return f, nil
}

// Deliver saves an already rendered workbook through sink.
func (e *Exporter) Deliver(ctx context.Context, f File, sink Sink) error {
	if err := sink.Save(ctx, f); err != nil {
		return e.fail(f.TeamID, "save", err)
	}

	e.log.Info("workbook exported",
		"file", f.Name,
		"team_id", f.TeamID,
		"tasks", f.Summary.TaskCount,
		"total_hours", f.Summary.TotalHours,
	)
	return nil
}

func (e *Exporter) fail(teamID, op string, err error) error {
	e.log.Error("export failed", "team_id", teamID, "op", op, "error", err)
	return &ExportError{TeamID: teamID, Op: op, Err: err}
}
