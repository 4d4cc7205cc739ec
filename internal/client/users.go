package client

import (
	"context"
	"net/http"

	"taskflow/internal/models"
)

// ListUsers returns every user, for assignee selection.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users", auth: true}, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}
