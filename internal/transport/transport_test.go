package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

// recorder is a terminal RoundTripper that captures the outgoing request.
type recorder struct {
	status int
	got    *http.Request
}

func (r *recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	r.got = req
	return &http.Response{
		StatusCode: r.status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://api.test/tasks", nil)
	require.NoError(t, err)
	return req
}

func TestBearerAuth_AttachesToken(t *testing.T) {
	rec := &recorder{status: http.StatusOK}
	rt := Chain(rec, BearerAuth(staticToken("abc")))

	_, err := rt.RoundTrip(newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", rec.got.Header.Get(HeaderAuthorization))
}

func TestBearerAuth_OmitsHeaderWithoutToken(t *testing.T) {
	rec := &recorder{status: http.StatusOK}
	rt := Chain(rec, BearerAuth(staticToken("")))

	req := newRequest(t)
	req.Header.Set(HeaderAuthorization, "Bearer stale")
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Empty(t, rec.got.Header.Get(HeaderAuthorization))
	// the caller's request is not modified
	assert.Equal(t, "Bearer stale", req.Header.Get(HeaderAuthorization))
}

func TestBearerAuth_PublicRequestCarriesNoToken(t *testing.T) {
	rec := &recorder{status: http.StatusUnauthorized}
	var got []string
	rt := Chain(rec, BearerAuth(staticToken("valid")), Unauthorized(func(token string) {
		got = append(got, token)
	}))

	req := newRequest(t)
	req.Header.Set(HeaderAuthorization, "Bearer stale")
	req = req.WithContext(Public(context.Background()))
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Empty(t, rec.got.Header.Get(HeaderAuthorization))
	assert.Equal(t, []string{""}, got)
}

func TestUnauthorized_ReportsSentToken(t *testing.T) {
	rec := &recorder{status: http.StatusUnauthorized}
	var got []string
	rt := Chain(rec, BearerAuth(staticToken("tok-1")), Unauthorized(func(token string) {
		got = append(got, token)
	}))

	resp, err := rt.RoundTrip(newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, []string{"tok-1"}, got)
}

func TestUnauthorized_IgnoresOtherStatuses(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		rec := &recorder{status: status}
		called := false
		rt := Chain(rec, Unauthorized(func(string) { called = true }))

		_, err := rt.RoundTrip(newRequest(t))
		require.NoError(t, err)
		assert.False(t, called, "status %d", status)
	}
}

func TestRequestID(t *testing.T) {
	rec := &recorder{status: http.StatusOK}
	rt := Chain(rec, RequestID())

	_, err := rt.RoundTrip(newRequest(t))
	require.NoError(t, err)
	assert.Len(t, rec.got.Header.Get(HeaderRequestID), 36)

	req := newRequest(t)
	req.Header.Set(HeaderRequestID, "fixed")
	_, err = rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, "fixed", rec.got.Header.Get(HeaderRequestID))
}

func TestChain_OrderAgainstServer(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get(HeaderAuthorization) != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var rejected atomic.Int32
	client := &http.Client{Transport: Chain(nil,
		RequestID(),
		BearerAuth(staticToken("bad")),
		Unauthorized(func(string) { rejected.Add(1) }),
	)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.EqualValues(t, 1, hits.Load())
	assert.EqualValues(t, 1, rejected.Load())
}

func TestBearerToken(t *testing.T) {
	req := newRequest(t)
	assert.Empty(t, BearerToken(req))
	req.Header.Set(HeaderAuthorization, "bearer  xyz ")
	assert.Equal(t, "xyz", BearerToken(req))
	req.Header.Set(HeaderAuthorization, "Basic xyz")
	assert.Empty(t, BearerToken(req))
}
