// Package session holds the authenticated identity and bearer token of the
// client. A Store is created once by the application and passed to whoever
// needs it; there is no package-level session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"taskflow/internal/models"
)

// ErrNoToken is returned by Claims when there is no session token.
var ErrNoToken = errors.New("no session token")

// AuthAPI is the part of the API client the session depends on.
type AuthAPI interface {
	Login(ctx context.Context, in models.LoginRequest) (*models.AuthToken, error)
	Register(ctx context.Context, in models.RegisterRequest) (*models.User, error)
	Me(ctx context.Context) (*models.User, error)
}

// Navigator performs the redirect to the login entry point when a session
// expires.
type Navigator interface {
	ToLogin()
}

type NavigatorFunc func()

func (f NavigatorFunc) ToLogin() { f() }

type Store struct {
	api    AuthAPI
	tokens TokenStore
	nav    Navigator
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	user    *models.User
	loading atomic.Bool
}

type Option func(*Store)

func WithNavigator(n Navigator) Option { return func(s *Store) { s.nav = n } }

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// WithClock overrides time.Now for token expiry checks.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func New(api AuthAPI, tokens TokenStore, opts ...Option) *Store {
	s := &Store{
		api:    api,
		tokens: tokens,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore rebuilds the session from a persisted token. Any failure leaves
// the session logged out with the token discarded; the error is returned
// for reporting only.
func (s *Store) Restore(ctx context.Context) error {
	token := s.tokens.Token()
	if token == "" {
		return nil
	}
	s.loading.Store(true)
	defer s.loading.Store(false)

	if c, err := ParseClaims(token); err == nil && c.Expired(s.now()) {
		s.logger.Info("[session][restore] token expired", "expired_at", c.ExpiresAt)
		s.discard(token)
		return nil
	}

	u, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Warn("[session][restore][err]", "error", err)
		s.discard(token)
		return fmt.Errorf("restore session: %w", err)
	}
	s.setUser(u)
	s.logger.Debug("[session][restore][ok]", "user", u.Username)
	return nil
}

// Login exchanges credentials for a token, persists it and loads the
// identity. On failure no token is kept.
func (s *Store) Login(ctx context.Context, in models.LoginRequest) error {
	tok, err := s.api.Login(ctx, in)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("login: empty access token")
	}
	if err := s.tokens.Save(tok.AccessToken); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	u, err := s.api.Me(ctx)
	if err != nil {
		s.discard(tok.AccessToken)
		return fmt.Errorf("login: load identity: %w", err)
	}
	s.setUser(u)
	s.logger.Info("[session][login][ok]", "user", u.Username)
	return nil
}

// Register creates the account and then logs in with the same credentials.
func (s *Store) Register(ctx context.Context, in models.RegisterRequest) error {
	if _, err := s.api.Register(ctx, in); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.logger.Info("[session][register][ok]", "user", in.Username)
	return s.Login(ctx, models.LoginRequest{Username: in.Username, Password: in.Password})
}

// Logout clears the session unconditionally.
func (s *Store) Logout() {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn("[session][logout] clear token", "error", err)
	}
	s.setUser(nil)
	s.logger.Info("[session][logout][ok]")
}

// Expire handles an unauthorized response sent with token. Only the first
// report for the current token clears the session and redirects; reports
// for a token that is already gone are ignored.
func (s *Store) Expire(token string) {
	cleared, err := s.tokens.ClearIf(token)
	if err != nil {
		s.logger.Warn("[session][expire] clear token", "error", err)
	}
	if !cleared {
		return
	}
	s.setUser(nil)
	s.logger.Info("[session][expire] session expired")
	if s.nav != nil {
		s.nav.ToLogin()
	}
}

// User returns a copy of the current identity, or nil.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Token() string { return s.tokens.Token() }

// Authenticated reports whether a token is held and its identity is known.
func (s *Store) Authenticated() bool {
	return s.Token() != "" && s.User() != nil
}

// Loading is true while Restore is running.
func (s *Store) Loading() bool { return s.loading.Load() }

// Claims decodes the current token without contacting the server.
func (s *Store) Claims() (Claims, error) {
	token := s.Token()
	if token == "" {
		return Claims{}, ErrNoToken
	}
	return ParseClaims(token)
}

func (s *Store) setUser(u *models.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func (s *Store) discard(token string) {
	if _, err := s.tokens.ClearIf(token); err != nil {
		s.logger.Warn("[session] discard token", "error", err)
	}
	s.setUser(nil)
}
