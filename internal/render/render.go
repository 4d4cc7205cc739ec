// Package render formats tasks, attachments and users for the terminal.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"taskflow/internal/controllers"
	"taskflow/internal/models"
)

var (
	colorBorder = lipgloss.Color("#16858E")
	colorMuted  = lipgloss.Color("#2C4A54")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Width(12)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	statusStyles = map[models.TaskStatus]lipgloss.Style{
		models.StatusTodo:       lipgloss.NewStyle().Foreground(lipgloss.Color("#A0A0A0")),
		models.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F")),
		models.StatusDone:       lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7")),
	}
	priorityStyles = map[models.TaskPriority]lipgloss.Style{
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#1D9DA0")),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F")),
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")).Bold(true),
	}
)

// StatusLabel is the human form of a status ("in_progress" becomes
// "In Progress").
func StatusLabel(s models.TaskStatus) string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func statusBadge(s models.TaskStatus) string {
	return statusStyles[s].Render(StatusLabel(s))
}

func priorityBadge(p models.TaskPriority) string {
	if p == "" {
		return mutedStyle.Render("-")
	}
	return priorityStyles[p].Render(string(p))
}

func date(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(controllers.DateLayout)
}

func userName(u *models.User) string {
	if u == nil {
		return "Unassigned"
	}
	return u.Username
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// TaskTable renders the task list, or the empty-state message.
func TaskTable(items []models.TaskListItem) string {
	if len(items) == 0 {
		return mutedStyle.Render(controllers.EmptyMessage)
	}
	t := newTable("ID", "TITLE", "STATUS", "PRIORITY", "DUE", "ASSIGNEE")
	for _, it := range items {
		t.Row(
			strconv.FormatInt(it.ID, 10),
			it.Title,
			statusBadge(it.Status),
			priorityBadge(it.Priority),
			date(it.DueDate),
			userName(it.Assignee),
		)
	}
	return t.String()
}

// TaskDetail renders one task with its attachments.
func TaskDetail(t *models.Task) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("#%d %s", t.ID, t.Title)))
	b.WriteString("\n\n")

	field := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	field("Status", statusBadge(t.Status))
	field("Priority", priorityBadge(t.Priority))
	field("Due", date(t.DueDate))
	field("Creator", t.Creator.Username)
	field("Assignee", userName(t.Assignee))
	field("Created", t.CreatedAt.Format(time.DateTime))
	field("Updated", t.UpdatedAt.Format(time.DateTime))
	if t.Description != nil && *t.Description != "" {
		b.WriteString("\n")
		b.WriteString(*t.Description)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(AttachmentTable(t.Attachments))
	return b.String()
}

func AttachmentTable(list []models.Attachment) string {
	if len(list) == 0 {
		return mutedStyle.Render("No attachments.")
	}
	t := newTable("ID", "FILENAME", "SIZE", "UPLOADED")
	for _, a := range list {
		t.Row(
			strconv.FormatInt(a.ID, 10),
			a.Filename,
			controllers.FormatFileSize(a.FileSize),
			a.UploadedAt.Format(time.DateTime),
		)
	}
	return t.String()
}

func UserTable(users []models.User) string {
	t := newTable("ID", "USERNAME", "EMAIL", "ACTIVE")
	for _, u := range users {
		t.Row(strconv.FormatInt(u.ID, 10), u.Username, u.Email, strconv.FormatBool(u.IsActive))
	}
	return t.String()
}

// UploadSummary reports a multi-file upload.
func UploadSummary(res controllers.UploadResult) string {
	var b strings.Builder
	for _, a := range res.Uploaded {
		fmt.Fprintf(&b, "uploaded  %s (%s)\n", a.Filename, controllers.FormatFileSize(a.FileSize))
	}
	for _, f := range res.Failed {
		fmt.Fprintf(&b, "failed    %s: %v\n", f.Name, f.Err)
	}
	for _, name := range res.Skipped {
		fmt.Fprintf(&b, "skipped   %s\n", name)
	}
	return b.String()
}
