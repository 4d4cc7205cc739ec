// Package app wires the client side (token store, API client, session and
// cache) and the dev API server from one configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"taskflow/internal/cache"
	"taskflow/internal/client"
	"taskflow/internal/config"
	"taskflow/internal/session"
)

// App is the client composition root used by the CLI.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Tokens  session.TokenStore
	API     *client.Client
	Session *session.Store
	Cache   *cache.Cache
}

type Option func(*options)

type options struct {
	tokens  session.TokenStore
	clientO []client.Option
}

// WithTokenStore replaces the file-backed token store.
func WithTokenStore(ts session.TokenStore) Option {
	return func(o *options) { o.tokens = ts }
}

// WithClientOptions passes extra options to the API client.
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) { o.clientO = append(o.clientO, opts...) }
}

// New builds the client side. nav is told when the session expires; the
// cache is dropped at the same moment so no data from the old identity
// survives.
func New(cfg *config.Config, logger *slog.Logger, nav session.Navigator, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	tokens := o.tokens
	if tokens == nil {
		fs, err := session.OpenFileTokenStore(cfg.Session.Dir)
		if err != nil {
			return nil, fmt.Errorf("open token store: %w", err)
		}
		tokens = fs
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		Tokens: tokens,
		Cache:  cache.New(cache.WithMaxAge(cfg.Cache.MaxAge), cache.WithLogger(logger)),
	}

	expired := session.NavigatorFunc(func() {
		a.Cache.InvalidatePrefix("")
		if nav != nil {
			nav.ToLogin()
		}
	})

	copts := append([]client.Option{
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(logger),
		client.WithUnauthorizedHandler(func(token string) { a.Session.Expire(token) }),
	}, o.clientO...)
	a.API = client.New(cfg.API.BaseURL, tokens, copts...)
	a.Session = session.New(a.API, tokens, session.WithNavigator(expired), session.WithLogger(logger))
	return a, nil
}

// Restore loads the persisted session. A failure is logged and leaves the
// app logged out.
func (a *App) Restore(ctx context.Context) {
	if err := a.Session.Restore(ctx); err != nil {
		a.Logger.Debug("[app][restore]", "error", err)
	}
}

// Logout ends the session and drops every cached entity.
func (a *App) Logout() {
	a.Session.Logout()
	a.Cache.InvalidatePrefix("")
}

// Close logs cache statistics.
func (a *App) Close() {
	a.Cache.LogStats()
}
