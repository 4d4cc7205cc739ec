package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"taskflow/internal/models"
)

// Login exchanges username and password for a bearer token. The body is
// form-urlencoded, as the token endpoint expects.
func (c *Client) Login(ctx context.Context, in models.LoginRequest) (*models.AuthToken, error) {
	form := url.Values{}
	form.Set("username", in.Username)
	form.Set("password", in.Password)

	var tok models.AuthToken
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		public:      true,
	}, &tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, in models.RegisterRequest) (*models.User, error) {
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}
	var u models.User
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/register",
		body:        body,
		contentType: "application/json",
		public:      true,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Me returns the user owning the current token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", auth: true}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
