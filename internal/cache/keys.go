package cache

import (
	"strconv"

	"taskflow/internal/models"
)

const (
	// TaskListPrefix is shared by every task-list key, whatever the filter.
	TaskListPrefix = "tasks:"
	UsersKey       = "users"
)

func TaskKey(id int64) string { return "task:" + strconv.FormatInt(id, 10) }

// TaskListKey is "tasks:all" without a filter and "tasks:{status}" with one.
// An assignee filter adds ":assignee:{id}".
func TaskListKey(f models.TaskFilter) string {
	k := TaskListPrefix + "all"
	if f.Status != nil {
		k = TaskListPrefix + string(*f.Status)
	}
	if f.AssigneeID != nil {
		k += ":assignee:" + strconv.FormatInt(*f.AssigneeID, 10)
	}
	return k
}

// TaskCreated refreshes every task list.
func (c *Cache) TaskCreated() {
	c.InvalidatePrefix(TaskListPrefix)
}

// TaskUpdated refreshes the task and every task list, since status or
// assignee changes move it between filters.
func (c *Cache) TaskUpdated(id int64) {
	c.Invalidate(TaskKey(id))
	c.InvalidatePrefix(TaskListPrefix)
}

func (c *Cache) TaskDeleted(id int64) {
	c.Invalidate(TaskKey(id))
	c.InvalidatePrefix(TaskListPrefix)
}

// AttachmentsChanged refreshes the owning task only; list items carry no
// attachments.
func (c *Cache) AttachmentsChanged(taskID int64) {
	c.Invalidate(TaskKey(taskID))
}
