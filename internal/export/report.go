package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hour-estimator-backend/internal/tasks"
)

const (
	reportTitle    = "RELATÓRIO DE ESTIMATIVA DE HORAS - HOURESTIMATOR"
	noContextLabel = "Não informado"
	notAvailable   = "N/A"
	totalsLabel    = "TOTAL GERAL:"
)

// Columns is the fixed column order of the task table.
var Columns = [...]string{
	"Nº",
	"ID Azure DevOps",
	"Título da Tarefa",
	"Contexto/Módulo",
	"Responsável",
	"Status",
	"Horas Estimadas",
	"Data de Criação",
}

type RowKind int

const (
	RowBlank RowKind = iota
	RowTitle
	RowText
	RowTableHeader
	RowTask
	RowTotals
)

// Row is one worksheet row. A nil cell is left empty.
type Row struct {
	Kind  RowKind
	Cells []any
}

type ContextHours struct {
	Context string
	Hours   float64
}

type StatusCount struct {
	Label string
	Count int
}

// Summary holds the aggregates of one export. The slices keep the order in
// which each key was first seen in the input.
type Summary struct {
	TaskCount      int
	TotalHours     float64
	AverageHours   float64
	HoursByContext []ContextHours
	CountByStatus  []StatusCount
}

// Report is the complete, ordered content of the worksheet.
type Report struct {
	TeamID      string
	GeneratedAt time.Time
	Summary     Summary
	Rows        []Row
}

// TableHeaderIndex returns the 0-based index of the column header row.
func (r Report) TableHeaderIndex() int {
	for i, row := range r.Rows {
		if row.Kind == RowTableHeader {
			return i
		}
	}
	return -1
}

// Summarize computes the aggregates over list in a single pass.
func Summarize(list []tasks.Task) Summary {
	s := Summary{TaskCount: len(list)}

	contextIdx := map[string]int{}
	statusIdx := map[string]int{}

	for _, t := range list {
		s.TotalHours += t.EstimatedHours

		c := contextLabel(t)
		if i, ok := contextIdx[c]; ok {
			s.HoursByContext[i].Hours += t.EstimatedHours
		} else {
			contextIdx[c] = len(s.HoursByContext)
			s.HoursByContext = append(s.HoursByContext, ContextHours{Context: c, Hours: t.EstimatedHours})
		}

		l := t.Status.Label()
		if i, ok := statusIdx[l]; ok {
			s.CountByStatus[i].Count++
		} else {
			statusIdx[l] = len(s.CountByStatus)
			s.CountByStatus = append(s.CountByStatus, StatusCount{Label: l, Count: 1})
		}
	}

	if s.TaskCount > 0 {
		s.AverageHours = s.TotalHours / float64(s.TaskCount)
	}
	return s
}

// BuildReport lays out the header block, the task table and the totals row.
// now is the generation instant; dates are rendered in loc.
func BuildReport(list []tasks.Task, teamID string, now time.Time, loc *time.Location) Report {
	if loc == nil {
		loc = time.Local
	}
	sum := Summarize(list)

	rows := make([]Row, 0, len(list)+len(sum.HoursByContext)+len(sum.CountByStatus)+16)
	text := func(s string) { rows = append(rows, Row{Kind: RowText, Cells: []any{s}}) }
	blank := func() { rows = append(rows, Row{Kind: RowBlank}) }

	rows = append(rows, Row{Kind: RowTitle, Cells: []any{reportTitle}})
	blank()
	text("EQUIPE: " + strings.ToUpper(teamID))
	text("DATA DE GERAÇÃO: " + longDateTime(now.In(loc)))
	text("TOTAL DE TAREFAS: " + strconv.Itoa(sum.TaskCount))
	text("TOTAL DE HORAS ESTIMADAS: " + formatHours(sum.TotalHours) + "h")
	text("MÉDIA POR TAREFA: " + formatAverage(sum.AverageHours) + "h")
	blank()
	text("DISTRIBUIÇÃO POR CONTEXTO/MÓDULO:")
	for _, c := range sum.HoursByContext {
		text(fmt.Sprintf("• %s: %sh", c.Context, formatHours(c.Hours)))
	}
	blank()
	text("DISTRIBUIÇÃO POR STATUS:")
	for _, st := range sum.CountByStatus {
		text(fmt.Sprintf("• %s: %d %s", st.Label, st.Count, pluralTasks(st.Count)))
	}
	blank()
	text("DETALHAMENTO DAS TAREFAS")
	blank()

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	rows = append(rows, Row{Kind: RowTableHeader, Cells: header})

	for i, t := range list {
		rows = append(rows, Row{Kind: RowTask, Cells: taskCells(i+1, t, loc)})
	}

	blank()
	rows = append(rows, Row{Kind: RowTotals, Cells: []any{nil, nil, nil, totalsLabel, formatHours(sum.TotalHours) + "h"}})

	return Report{
		TeamID:      teamID,
		GeneratedAt: now,
		Summary:     sum,
		Rows:        rows,
	}
}

func taskCells(seq int, t tasks.Task, loc *time.Location) []any {
	azure := notAvailable
	if t.AzureID != nil && *t.AzureID != "" {
		azure = *t.AzureID
	}
	created := notAvailable
	if t.CreatedAt != nil && !t.CreatedAt.IsZero() {
		created = shortDate(t.CreatedAt.In(loc))
	}

	return []any{
		seq,
		azure,
		t.Title,
		contextLabel(t),
		t.Owner,
		t.Status.Label(),
		formatHours(t.EstimatedHours) + "h",
		created,
	}
}

func contextLabel(t tasks.Task) string {
	if t.Context == nil || strings.TrimSpace(*t.Context) == "" {
		return noContextLabel
	}
	return *t.Context
}
