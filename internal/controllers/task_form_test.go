package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/cache"
	"taskflow/internal/models"
)

func TestCreate_TitleOnlySendsOnlyTitle(t *testing.T) {
	api := newFakeAPI()
	c := cache.New()
	f := NewTaskForm(api, c)
	f.SetTitle("Write docs")

	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, api.created, 1)

	b, err := json.Marshal(api.created[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Write docs"}`, string(b))
	assert.True(t, f.Closed())
}

func TestCreate_DueDateIsUTCMidnight(t *testing.T) {
	api := newFakeAPI()
	f := NewTaskForm(api, cache.New())
	f.SetTitle("Ship")
	require.NoError(t, f.SetDueDate("2024-03-15"))
	require.NoError(t, f.SetPriority(models.PriorityHigh))
	uid := int64(2)
	f.SetAssignee(&uid)

	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	b, err := json.Marshal(api.created[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Ship","priority":"high","due_date":"2024-03-15T00:00:00Z","assignee_id":2}`, string(b))
}

func TestCreate_Validation(t *testing.T) {
	f := NewTaskForm(newFakeAPI(), cache.New())
	f.SetTitle("   ")
	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, ErrTitleRequired)
	assert.ErrorIs(t, f.Err(), ErrTitleRequired)
	assert.False(t, f.Closed())

	assert.Error(t, f.SetDueDate("15/03/2024"))
	assert.Error(t, f.SetPriority("urgent"))
	assert.ErrorIs(t, f.SetStatus(models.StatusDone), ErrNotLoaded)
}

func TestCreate_RefreshesEveryTaskList(t *testing.T) {
	api := newFakeAPI()
	c := cache.New()
	ctx := context.Background()

	all := NewTaskList(api, c, &answer{})
	todo := NewTaskList(api, c, &answer{})
	st := models.StatusTodo
	require.NoError(t, todo.SetStatusFilter(&st))
	_, err := all.Load(ctx)
	require.NoError(t, err)
	_, err = todo.Load(ctx)
	require.NoError(t, err)
	require.True(t, all.Empty())

	f := all.Create()
	f.SetTitle("new")
	_, err = f.Submit(ctx)
	require.NoError(t, err)

	items, err := all.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	items, err = todo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 4, api.count("ListTasks"))
}

func TestEdit_LoadsAndSendsStatus(t *testing.T) {
	api := newFakeAPI()
	c := cache.New()
	ctx := context.Background()
	desc := "details"
	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	task := api.add(models.Task{Title: "old", Description: &desc, Priority: models.PriorityLow, DueDate: &due})

	f := NewEditForm(api, c, task.ID)
	assert.False(t, f.Loaded())
	_, err := f.Attachments()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = f.Submit(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, f.Load(ctx))
	assert.True(t, f.Loaded())
	d := f.Draft()
	assert.Equal(t, "old", d.Title)
	assert.Equal(t, "details", d.Description)
	assert.Equal(t, "2024-03-15", d.DueDate)
	assert.Equal(t, models.StatusTodo, d.Status)

	f.SetTitle("new")
	require.NoError(t, f.SetStatus(models.StatusDone))
	updated, err := f.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, updated.Status)

	b, err := json.Marshal(api.updated[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"new","description":"details","status":"done","priority":"low","due_date":"2024-03-15T00:00:00Z"}`, string(b))
}

func TestEdit_UpdateRefreshesTaskKey(t *testing.T) {
	api := newFakeAPI()
	c := cache.New()
	ctx := context.Background()
	task := api.add(models.Task{Title: "a"})

	f, err := OpenEdit(ctx, api, c, task.ID)
	require.NoError(t, err)
	f.SetTitle("b")
	_, err = f.Submit(ctx)
	require.NoError(t, err)

	again, err := OpenEdit(ctx, api, c, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", again.Draft().Title)
	assert.Equal(t, 2, api.count("GetTask"))
}

func TestEdit_LoadFailureKeepsFormOpen(t *testing.T) {
	f, err := OpenEdit(context.Background(), newFakeAPI(), cache.New(), 99)
	require.Error(t, err)
	assert.False(t, f.Loaded())
	assert.Error(t, f.Err())
	assert.False(t, f.Closed())
}

func TestSubmit_RefusedWhileInFlight(t *testing.T) {
	api := newFakeAPI()
	api.block = make(chan struct{})
	f := NewTaskForm(api, cache.New())
	f.SetTitle("slow")

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, f.Submitting, time.Second, time.Millisecond)

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(api.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.count("CreateTask"))

	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestUsers_Cached(t *testing.T) {
	api := newFakeAPI()
	f := NewTaskForm(api, cache.New())
	for i := 0; i < 3; i++ {
		users, err := f.Users(context.Background())
		require.NoError(t, err)
		assert.Len(t, users, 2)
	}
	assert.Equal(t, 1, api.count("ListUsers"))
}

// hookHandler passes every log record to fn.
type hookHandler struct{ fn func(slog.Record) }

func (h hookHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h hookHandler) Handle(_ context.Context, r slog.Record) error {
	h.fn(r)
	return nil
}
func (h hookHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h hookHandler) WithGroup(string) slog.Handler      { return h }

func TestSubmit_InvalidatesBeforeClosing(t *testing.T) {
	api := newFakeAPI()
	var (
		f    *TaskForm
		seen [][2]bool
	)
	c := cache.New(cache.WithLogger(slog.New(hookHandler{func(r slog.Record) {
		if r.Message == "[cache][invalidate]" {
			seen = append(seen, [2]bool{f.Closed(), f.Submitting()})
		}
	}})))

	f = NewTaskForm(api, c)
	f.SetTitle("ordered")
	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	// while the keys went stale the form was still open and submitting
	assert.Equal(t, [][2]bool{{false, true}}, seen)
	assert.True(t, f.Closed())
	assert.False(t, f.Submitting())
}
