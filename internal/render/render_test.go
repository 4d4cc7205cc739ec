package render

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskflow/internal/controllers"
	"taskflow/internal/models"
)

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "In Progress", StatusLabel(models.StatusInProgress))
	assert.Equal(t, "Todo", StatusLabel(models.StatusTodo))
}

func TestTaskTable(t *testing.T) {
	assert.Contains(t, TaskTable(nil), "No tasks yet. Create your first task!")

	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	out := TaskTable([]models.TaskListItem{
		{ID: 1, Title: "Write docs", Status: models.StatusTodo, Priority: models.PriorityHigh, DueDate: &due},
		{ID: 2, Title: "Review", Status: models.StatusDone, Assignee: &models.User{Username: "bob"}},
	})
	for _, want := range []string{"Write docs", "2024-03-15", "Unassigned", "Review", "bob", "Done"} {
		assert.Contains(t, out, want)
	}
}

func TestTaskDetail(t *testing.T) {
	desc := "long text"
	out := TaskDetail(&models.Task{
		ID:          4,
		Title:       "Plan",
		Description: &desc,
		Status:      models.StatusInProgress,
		Creator:     models.User{Username: "alice"},
		Attachments: []models.Attachment{{ID: 9, Filename: "plan.pdf", FileSize: 1536}},
	})
	for _, want := range []string{"#4 Plan", "In Progress", "alice", "long text", "plan.pdf", "1.5 KB"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, TaskDetail(&models.Task{ID: 1}), "No attachments.")
}

func TestUploadSummary(t *testing.T) {
	out := UploadSummary(controllers.UploadResult{
		Uploaded: []models.Attachment{{Filename: "a.txt", FileSize: 1024}},
		Failed:   []controllers.FailedUpload{{Name: "b.txt", Err: errors.New("too large")}},
		Skipped:  []string{"c.txt"},
	})
	assert.Contains(t, out, "a.txt (1 KB)")
	assert.Contains(t, out, "b.txt: too large")
	assert.Contains(t, out, "skipped   c.txt")
}
