package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskflow/internal/models"
)

// In-memory repositories back the dev server when no database is configured.
// They return copies so callers never share state with the store.

type memoryUsers struct {
	mu     sync.RWMutex
	byID   map[int64]models.User
	nextID int64
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUsers{byID: make(map[int64]models.User), nextID: 1}
}

func (m *memoryUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
			return ErrDuplicate
		}
	}
	user.ID = m.nextID
	m.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	m.byID[user.ID] = *user
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.byID {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryUsers) List(context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryTasks struct {
	mu     sync.RWMutex
	byID   map[int64]models.Task
	nextID int64
}

func NewMemoryTaskRepository() TaskRepository {
	return &memoryTasks{byID: make(map[int64]models.Task), nextID: 1}
}

func (m *memoryTasks) Store(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task.ID = m.nextID
	m.nextID++
	m.byID[task.ID] = *task
	return nil
}

func (m *memoryTasks) FindByID(_ context.Context, id int64) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *memoryTasks) FindAll(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Task{}
	for _, t := range m.byID {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memoryTasks) Update(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[task.ID]; !ok {
		return ErrNotFound
	}
	m.byID[task.ID] = *task
	return nil
}

func (m *memoryTasks) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memoryAttachments struct {
	mu     sync.RWMutex
	byID   map[int64]models.Attachment
	nextID int64
}

func NewMemoryAttachmentRepository() AttachmentRepository {
	return &memoryAttachments{byID: make(map[int64]models.Attachment), nextID: 1}
}

func (m *memoryAttachments) Create(_ context.Context, a *models.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID
	m.nextID++
	m.byID[a.ID] = *a
	return nil
}

func (m *memoryAttachments) GetByID(_ context.Context, taskID, id int64) (*models.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok || a.TaskID != taskID {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *memoryAttachments) ListByTask(_ context.Context, taskID int64) ([]models.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Attachment{}
	for _, a := range m.byID {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryAttachments) Delete(_ context.Context, taskID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok || a.TaskID != taskID {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}
