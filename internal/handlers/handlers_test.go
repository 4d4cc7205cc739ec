package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/repositories"
	"taskflow/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

type fixture struct {
	router *gin.Engine
	auth   services.AuthService
	users  services.UserService
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userRepo := repositories.NewMemoryUserRepository()
	taskRepo := repositories.NewMemoryTaskRepository()
	attRepo := repositories.NewMemoryAttachmentRepository()

	auth := services.NewAuthService("test-secret", time.Hour)
	users := services.NewUserService(userRepo, auth)
	atts := services.NewAttachmentService(attRepo, taskRepo, t.TempDir(), 0, logger)
	tasks := services.NewTaskService(taskRepo, userRepo, atts, logger)

	ah := NewAuthHandler(users, auth, logger)
	uh := NewUserHandler(users, logger)
	th := NewTaskHandler(tasks, logger)
	at := NewAttachmentHandler(atts, logger)

	r := gin.New()
	r.GET("/health", Health(nil))
	r.POST("/auth/login", ah.Login)
	r.POST("/auth/register", ah.Register)
	p := r.Group("", middleware.AuthMiddleware(auth), middleware.RequireActiveUser(users))
	p.GET("/auth/me", ah.Me)
	p.GET("/users", uh.ListUsers)
	p.GET("/tasks", th.List)
	p.POST("/tasks", th.Create)
	p.GET("/tasks/:id", th.Get)
	p.PATCH("/tasks/:id", th.Update)
	p.DELETE("/tasks/:id", th.Delete)
	p.POST("/tasks/:id/attachments", at.Upload)
	p.GET("/tasks/:id/attachments", at.List)
	p.DELETE("/tasks/:id/attachments/:attachment_id", at.Delete)
	p.GET("/tasks/:id/attachments/:attachment_id/download", at.Download)
	p.GET("/tasks/:id/attachments/:attachment_id/file", at.File)

	f := &fixture{router: r, auth: auth, users: users}
	w := f.json(t, http.MethodPost, "/auth/register", `{"email":"alice@example.com","username":"alice","password":"secret"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	f.token = f.login(t, "alice", "secret")
	return f
}

func (f *fixture) serve(req *http.Request) *httptest.ResponseRecorder {
	if f.token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) json(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return f.serve(req)
}

func (f *fixture) login(t *testing.T, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		return ""
	}
	var tok models.AuthToken
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	return tok.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAuth(t *testing.T) {
	f := newFixture(t)
	require.NotEmpty(t, f.token)

	form := url.Values{"username": {"alice"}, "password": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Incorrect username or password"}`, w.Body.String())

	w = f.json(t, http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[models.User](t, w)
	assert.Equal(t, "alice", me.Username)
	assert.NotContains(t, w.Body.String(), "password")

	w = f.json(t, http.MethodPost, "/auth/register", `{"email":"alice@example.com","username":"alice","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"Email or username already registered"}`, w.Body.String())

	w = f.json(t, http.MethodPost, "/auth/register", `{"username":"bob"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Detail []detailItem `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Detail)
	assert.Equal(t, []string{"body", "Email"}, body.Detail[0].Loc)
}

func TestAuth_TokenForDeletedUserRejected(t *testing.T) {
	f := newFixture(t)
	tok, err := f.auth.IssueToken(&models.User{ID: 999, Username: "ghost"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := f.serve(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTasks(t *testing.T) {
	f := newFixture(t)

	w := f.json(t, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = f.json(t, http.MethodPost, "/tasks", `{"description":"no title"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.json(t, http.MethodPost, "/tasks", `{"title":"Write docs","due_date":"2024-03-15T00:00:00Z","priority":"high"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[models.Task](t, w)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, "alice", task.Creator.Username)

	path := "/tasks/" + jsonID(task.ID)
	w = f.json(t, http.MethodPatch, path, `{"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusInProgress, decode[models.Task](t, w).Status)

	w = f.json(t, http.MethodPatch, path, `{"status":"archived"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.json(t, http.MethodGet, "/tasks?status=in_progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.TaskListItem](t, w), 1)
	w = f.json(t, http.MethodGet, "/tasks?status=done", "")
	assert.Len(t, decode[[]models.TaskListItem](t, w), 0)
	w = f.json(t, http.MethodGet, "/tasks?status=bogus", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = f.json(t, http.MethodGet, "/tasks?assignee_id=x", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.json(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.json(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Task not found"}`, w.Body.String())

	w = f.json(t, http.MethodGet, "/tasks/abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAttachments(t *testing.T) {
	f := newFixture(t)
	w := f.json(t, http.MethodPost, "/tasks", `{"title":"With files"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	base := "/tasks/" + jsonID(decode[models.Task](t, w).ID) + "/attachments"

	req := httptest.NewRequest(http.MethodPost, base, nil)
	w = f.serve(req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("hello"))
	require.NoError(t, mw.Close())
	req = httptest.NewRequest(http.MethodPost, base, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = f.serve(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	att := decode[models.Attachment](t, w)
	assert.Equal(t, "notes.txt", att.Filename)
	assert.EqualValues(t, 5, att.FileSize)

	w = f.json(t, http.MethodGet, base, "")
	assert.Len(t, decode[[]models.Attachment](t, w), 1)

	one := base + "/" + jsonID(att.ID)
	req = httptest.NewRequest(http.MethodGet, one+"/download", nil)
	req.Host = "api.test"
	w = f.serve(req)
	require.Equal(t, http.StatusOK, w.Code)
	dl := decode[models.AttachmentDownload](t, w)
	assert.Equal(t, "http://api.test"+one+"/file", dl.URL)
	assert.Equal(t, "notes.txt", dl.Filename)

	w = f.json(t, http.MethodGet, one+"/file", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "notes.txt")

	w = f.json(t, http.MethodDelete, one, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.json(t, http.MethodDelete, one, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Attachment not found"}`, w.Body.String())
}

func TestUsersAndHealth(t *testing.T) {
	f := newFixture(t)
	w := f.json(t, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.User](t, w), 1)

	f.token = ""
	w = f.json(t, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
