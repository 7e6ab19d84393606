package export

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

var ptWeekdays = [...]string{
	"domingo", "segunda-feira", "terça-feira", "quarta-feira",
	"quinta-feira", "sexta-feira", "sábado",
}

var ptMonths = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// longDateTime renders t the way pt-BR browsers print a long date with
// time, e.g. "quarta-feira, 15 de outubro de 2025 às 14:30".
func longDateTime(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d às %02d:%02d",
		ptWeekdays[t.Weekday()], t.Day(), ptMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// shortDate renders DD/MM/YYYY.
func shortDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// formatHours prints hours without trailing zeros ("8", "2.5"). Values are
// rounded to two decimals first so float sums do not leak noise such as
// 0.30000000000000004.
func formatHours(h float64) string {
	return strconv.FormatFloat(math.Round(h*100)/100, 'f', -1, 64)
}

// formatAverage prints exactly one decimal place.
func formatAverage(h float64) string {
	return strconv.FormatFloat(h, 'f', 1, 64)
}

func pluralTasks(n int) string {
	if n == 1 {
		return "tarefa"
	}
	return "tarefas"
}
