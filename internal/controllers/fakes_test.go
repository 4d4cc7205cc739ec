package controllers

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"taskflow/internal/client"
	"taskflow/internal/models"
)

// fakeAPI is an in-memory TaskAPI and AttachmentAPI that records calls.
type fakeAPI struct {
	mu     sync.Mutex
	tasks  map[int64]*models.Task
	nextID int64
	calls  map[string]int

	created  []models.CreateTaskInput
	updated  []models.UpdateTaskInput
	uploaded []string
	// failUpload makes the upload of the named file fail.
	failUpload map[string]error
	// block, when set, holds create/update until closed.
	block chan struct{}
	// uploadStarted, when set, receives each filename as its upload begins;
	// uploadGate then holds that upload until it receives a value.
	uploadStarted chan string
	uploadGate    chan struct{}
	inFlight      atomic.Int32
	maxInFlight   atomic.Int32
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tasks:      make(map[int64]*models.Task),
		nextID:     1,
		calls:      make(map[string]int),
		failUpload: make(map[string]error),
	}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) add(t models.Task) *models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.nextID
	f.nextID++
	if t.Status == "" {
		t.Status = models.StatusTodo
	}
	f.tasks[t.ID] = &t
	return &t
}

func (f *fakeAPI) ListTasks(_ context.Context, flt models.TaskFilter) ([]models.TaskListItem, error) {
	f.record("ListTasks")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.TaskListItem{}
	for id := int64(1); id < f.nextID; id++ {
		t, ok := f.tasks[id]
		if !ok || (flt.Status != nil && t.Status != *flt.Status) {
			continue
		}
		out = append(out, t.ListItem())
	}
	return out, nil
}

func (f *fakeAPI) GetTask(_ context.Context, id int64) (*models.Task, error) {
	f.record("GetTask")
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, &client.APIError{StatusCode: 404, Message: "Task not found"}
	}
	cp := *t
	cp.Attachments = append([]models.Attachment(nil), t.Attachments...)
	return &cp, nil
}

func (f *fakeAPI) CreateTask(_ context.Context, in models.CreateTaskInput) (*models.Task, error) {
	f.record("CreateTask")
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.created = append(f.created, in)
	f.mu.Unlock()
	t := models.Task{Title: in.Title, Priority: in.Priority, DueDate: in.DueDate, AssigneeID: in.AssigneeID}
	if in.Description != "" {
		t.Description = &in.Description
	}
	return f.add(t), nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, id int64, in models.UpdateTaskInput) (*models.Task, error) {
	f.record("UpdateTask")
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, in)
	t, ok := f.tasks[id]
	if !ok {
		return nil, &client.APIError{StatusCode: 404, Message: "Task not found"}
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	t.UpdatedAt = time.Now()
	cp := *t
	return &cp, nil
}

func (f *fakeAPI) DeleteTask(_ context.Context, id int64) error {
	f.record("DeleteTask")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return &client.APIError{StatusCode: 404, Message: "Task not found"}
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeAPI) ListUsers(context.Context) ([]models.User, error) {
	f.record("ListUsers")
	return []models.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, nil
}

func (f *fakeAPI) UploadAttachment(_ context.Context, taskID int64, filename string, r io.Reader) (*models.Attachment, error) {
	f.record("UploadAttachment")
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.uploadStarted != nil {
		f.uploadStarted <- filename
		<-f.uploadGate
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, filename)
	if err := f.failUpload[filename]; err != nil {
		return nil, err
	}
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, errors.New("no task")
	}
	a := models.Attachment{ID: int64(len(t.Attachments) + 1), TaskID: taskID, Filename: filename, FileSize: int64(len(data))}
	t.Attachments = append(t.Attachments, a)
	return &a, nil
}

func (f *fakeAPI) DeleteAttachment(_ context.Context, taskID, attachmentID int64) error {
	f.record("DeleteAttachment")
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.tasks[taskID]
	for i, a := range t.Attachments {
		if a.ID == attachmentID {
			t.Attachments = append(t.Attachments[:i], t.Attachments[i+1:]...)
			return nil
		}
	}
	return &client.APIError{StatusCode: 404, Message: "Attachment not found"}
}

// answer is a Confirmer that records prompts and replies with ok.
type answer struct {
	ok      bool
	prompts []string
}

func (a *answer) Confirm(prompt string) (bool, error) {
	a.prompts = append(a.prompts, prompt)
	return a.ok, nil
}
