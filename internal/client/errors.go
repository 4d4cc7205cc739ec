package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNotAuthenticated is returned, wrapped in an AuthError, for calls that
// need a session when no token is present. Such calls are never sent.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError is any non-2xx response that is not handled more specifically.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// AuthError reports invalid credentials or a call rejected as unauthorized.
// Err is the underlying *APIError, or ErrNotAuthenticated.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return "auth: " + e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError is a payload the server rejected (400, 409, 422), such as
// a duplicate username on registration.
type ValidationError struct {
	Err *APIError
}

func (e *ValidationError) Error() string { return "validation: " + e.Err.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

// NetworkError is a transport failure where no response was received.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s %s: %v", e.Method, e.URL, e.Err)
}
func (e *NetworkError) Unwrap() error { return e.Err }

// IsAuth reports whether err is, or wraps, an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

const maxErrorBody = 64 << 10

// errorFromResponse maps a non-2xx response to the error taxonomy.
func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &AuthError{Message: apiErr.Message, Err: apiErr}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return &ValidationError{Err: apiErr}
	}
	return apiErr
}

// errorMessage reads {"detail": "..."}, {"detail": [{"msg": "..."}]} or
// {"error": "..."} bodies.
func errorMessage(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return payload.Error
}
