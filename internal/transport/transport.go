// Package transport is the outbound request pipeline of the API client.
//
// Every request leaves the process through one http.RoundTripper built by
// Chain. The stages are ordinary middlewares so each can be exercised on its
// own: RequestID tags the request, Logging records it, BearerAuth attaches the
// session token and Unauthorized reports 401 responses to the session.
package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
)

// Middleware wraps a RoundTripper with one pipeline stage.
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// TokenSource yields the current bearer token, or "" when there is none.
type TokenSource interface {
	Token() string
}

// UnauthorizedFunc receives the token a rejected request was sent with
// ("" if it carried none).
type UnauthorizedFunc func(token string)

// Chain wraps base with mws. The first middleware is the outermost one.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			base = mws[i](base)
		}
	}
	return base
}

// RequestID sets X-Request-ID on requests that do not carry one.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(HeaderRequestID) != "" {
				return next.RoundTrip(req)
			}
			r := req.Clone(req.Context())
			r.Header.Set(HeaderRequestID, uuid.NewString())
			return next.RoundTrip(r)
		})
	}
}

type publicKey struct{}

// Public marks requests made with ctx as sent without credentials, such as
// login and registration.
func Public(ctx context.Context) context.Context {
	return context.WithValue(ctx, publicKey{}, true)
}

func isPublic(ctx context.Context) bool {
	v, _ := ctx.Value(publicKey{}).(bool)
	return v
}

// BearerAuth attaches "Authorization: Bearer {token}" when src has a token
// and strips the header otherwise. Public requests never carry one.
func BearerAuth(src TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			r := req.Clone(req.Context())
			token := ""
			if src != nil && !isPublic(req.Context()) {
				token = src.Token()
			}
			if token != "" {
				r.Header.Set(HeaderAuthorization, "Bearer "+token)
			} else {
				r.Header.Del(HeaderAuthorization)
			}
			return next.RoundTrip(r)
		})
	}
}

// Unauthorized calls fn once for every 401 response, with the bearer token
// the request was sent with. The response itself is passed through untouched
// so the caller still sees the status.
func Unauthorized(fn UnauthorizedFunc) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil {
				return resp, err
			}
			if resp.StatusCode == http.StatusUnauthorized && fn != nil {
				fn(BearerToken(req))
			}
			return resp, nil
		})
	}
}

// Logging writes one debug record per request.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		return nil
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)
			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"request_id", req.Header.Get(HeaderRequestID),
				"took", time.Since(start).Truncate(time.Millisecond),
			}
			if err != nil {
				logger.Debug("[http][err]", append(attrs, "error", err)...)
				return resp, err
			}
			logger.Debug("[http]", append(attrs, "status", resp.StatusCode)...)
			return resp, nil
		})
	}
}

// BearerToken extracts the token from the Authorization header of req.
func BearerToken(req *http.Request) string {
	h := strings.TrimSpace(req.Header.Get(HeaderAuthorization))
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
