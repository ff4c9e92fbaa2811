package service

import (
	"fmt"
	"strconv"
	"time"

	"todolist/internal/model"
)

// Listing and report views use different vocabularies: listings are shown to
// users in Russian, the CSV report keeps the English labels and an
// invariant timestamp.
const (
	labelListingDone    = "Готова"
	labelListingNotDone = "Не готова"
	labelReportDone     = "Done"
	labelReportNotDone  = "Not Done"

	invariantLayout = "01/02/2006 15:04:05"

	previewLength = 5
)

var genitiveMonths = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// TaskView is a row of the open task listing.
type TaskView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsDone      string `json:"isDone"`
	Priority    string `json:"priority"`
	Created     string `json:"created"`
}

// CompletedTaskView is a row of today's completed list.
type CompletedTaskView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TaskReportRow is a line of the end-of-day CSV report.
type TaskReportRow struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsDone      string `json:"isDone"`
	Priority    string `json:"priority"`
	Created     string `json:"created"`
}

func (TaskReportRow) Header() []string {
	return []string{"Id", "Name", "Description", "IsDone", "Priority", "Created"}
}

func (r TaskReportRow) Values() []string {
	return []string{strconv.FormatUint(uint64(r.ID), 10), r.Name, r.Description, r.IsDone, r.Priority, r.Created}
}

func newTaskView(task model.Task, loc *time.Location) TaskView {
	label := labelListingNotDone
	if task.IsDone {
		label = labelListingDone
	}
	return TaskView{
		ID:          task.ID,
		Name:        task.Name,
		Description: task.Description,
		IsDone:      label,
		Priority:    task.Priority.DisplayName(),
		Created:     LongDate(task.CreatedAt.In(loc)),
	}
}

func newCompletedTaskView(task model.Task) CompletedTaskView {
	return CompletedTaskView{
		ID:          task.ID,
		Name:        task.Name,
		Description: truncate(task.Description, previewLength),
	}
}

func newTaskReportRow(task model.Task, loc *time.Location) TaskReportRow {
	label := labelReportNotDone
	if task.IsDone {
		label = labelReportDone
	}
	return TaskReportRow{
		ID:          task.ID,
		Name:        task.Name,
		Description: truncate(task.Description, previewLength),
		IsDone:      label,
		Priority:    task.Priority.String(),
		Created:     task.CreatedAt.In(loc).Format(invariantLayout),
	}
}

// LongDate renders t as a Russian long date, e.g. "15 октября 2026 г.".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d г.", t.Day(), genitiveMonths[t.Month()-1], t.Year())
}

// ReportFileName is the download name of the report generated at t.
func ReportFileName(t time.Time) string {
	return fmt.Sprintf("Статистика за %s.csv", LongDate(t))
}

// truncate keeps at most n characters of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
