package tasks

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

type Status string

const (
	StatusPlanned    Status = "planejada"
	StatusInProgress Status = "em-andamento"
	StatusPending    Status = "pendente"
	StatusDone       Status = "concluida"
	StatusCancelled  Status = "cancelada"
)

var statusLabels = map[Status]string{
	StatusPlanned:    "Planejada",
	StatusInProgress: "Em Andamento",
	StatusPending:    "Pendente (Aguardando definições)",
	StatusDone:       "Concluída",
	StatusCancelled:  "Cancelada",
}

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human-readable name of s. Unknown values read as "Planejada".
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return statusLabels[StatusPlanned]
}

type Task struct {
	ID             string     `json:"id,omitempty"`
	AzureID        *string    `json:"idDaTarefaAzure"`
	Title          string     `json:"tituloDaTarefa"`
	Context        *string    `json:"contexto"`
	Owner          string     `json:"responsavel"`
	EstimatedHours float64    `json:"horasEstimadas"`
	Status         Status     `json:"status"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

// TaskInput is the client-writable part of a Task.
type TaskInput struct {
	AzureID        *string `json:"idDaTarefaAzure"`
	Title          string  `json:"tituloDaTarefa"`
	Context        *string `json:"contexto"`
	Owner          string  `json:"responsavel"`
	EstimatedHours float64 `json:"horasEstimadas"`
	Status         Status  `json:"status"`
}

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidTask   = errors.New("invalid task")
	ErrInvalidTeamID = errors.New("invalid team id")
)

// Normalize trims the text fields, turns blank optional fields into nil and
// defaults an empty status to planejada.
func (in TaskInput) Normalize() (TaskInput, error) {
	out := TaskInput{
		AzureID:        trimOptional(in.AzureID),
		Title:          strings.TrimSpace(in.Title),
		Context:        trimOptional(in.Context),
		Owner:          strings.TrimSpace(in.Owner),
		EstimatedHours: in.EstimatedHours,
		Status:         Status(strings.TrimSpace(string(in.Status))),
	}

	if out.Status == "" {
		out.Status = StatusPlanned
	}

	switch {
	case out.Title == "":
		return TaskInput{}, fmt.Errorf("%w: tituloDaTarefa is required", ErrInvalidTask)
	case out.Owner == "":
		return TaskInput{}, fmt.Errorf("%w: responsavel is required", ErrInvalidTask)
	case !(out.EstimatedHours > 0):
		return TaskInput{}, fmt.Errorf("%w: horasEstimadas must be greater than zero", ErrInvalidTask)
	case !hundredths(out.EstimatedHours):
		return TaskInput{}, fmt.Errorf("%w: horasEstimadas allows at most two decimal places", ErrInvalidTask)
	case !out.Status.Valid():
		return TaskInput{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, out.Status)
	}

	return out, nil
}

// hundredths reports whether h has at most two decimal places. The workbook
// prints hours rounded to the hundredth.
func hundredths(h float64) bool {
	c := h * 100
	return math.Abs(c-math.Round(c)) < 1e-6
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

var teamIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidTeamID mirrors the client rule: at least three characters of
// letters, digits, '-' or '_'.
func ValidTeamID(teamID string) bool {
	id := strings.TrimSpace(teamID)
	return len(id) >= 3 && teamIDPattern.MatchString(id)
}
