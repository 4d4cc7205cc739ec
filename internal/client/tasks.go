package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"taskflow/internal/models"
)

func taskPath(id int64) string { return "/tasks/" + strconv.FormatInt(id, 10) }

// ListTasks returns the list projection of every task matching f.
func (c *Client) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.TaskListItem, error) {
	q := url.Values{}
	if f.Status != nil {
		q.Set("status", string(*f.Status))
	}
	if f.AssigneeID != nil {
		q.Set("assignee_id", strconv.FormatInt(*f.AssigneeID, 10))
	}

	var items []models.TaskListItem
	if err := c.do(ctx, request{method: http.MethodGet, path: "/tasks", query: q, auth: true}, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.TaskListItem{}
	}
	return items, nil
}

func (c *Client) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, request{method: http.MethodGet, path: taskPath(id), auth: true}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreateTask(ctx context.Context, in models.CreateTaskInput) (*models.Task, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("create task: title is required")
	}
	return c.writeTask(ctx, http.MethodPost, "/tasks", in)
}

// UpdateTask sends only the fields set in in.
func (c *Client) UpdateTask(ctx context.Context, id int64, in models.UpdateTaskInput) (*models.Task, error) {
	return c.writeTask(ctx, http.MethodPatch, taskPath(id), in)
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: taskPath(id), auth: true}, nil)
}

func (c *Client) writeTask(ctx context.Context, method, path string, in any) (*models.Task, error) {
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}
	var t models.Task
	err = c.do(ctx, request{
		method:      method,
		path:        path,
		body:        body,
		contentType: "application/json",
		auth:        true,
	}, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
