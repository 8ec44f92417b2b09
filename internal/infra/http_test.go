package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(
		WithUserAgent("EarningsCallInsights/1.0 (mailto:test@example.com)"),
		WithHeader("Accept", "application/json, text/plain, */*"),
	)
	body, err := c.Get(context.Background(), srv.URL, map[string]string{"X-Extra": "1"})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "EarningsCallInsights/1.0 (mailto:test@example.com)", got.Get("User-Agent"))
	assert.Equal(t, "application/json, text/plain, */*", got.Get("Accept"))
	assert.Equal(t, "1", got.Get("X-Extra"))
}

func TestClientErrHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient().Get(context.Background(), srv.URL, nil)
	require.Error(t, err)

	var he *ErrHTTP
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.StatusCode)
	assert.Contains(t, he.Body, "nope")
	assert.False(t, he.Retryable())
	assert.Equal(t, http.StatusForbidden, StatusCode(err))
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer srv.Close()

	c := NewClient(WithMaxRetries(3))
	body, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "finally", string(body))
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(WithMaxRetries(3)).Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestClientNoRetriesByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient().Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestClientRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewClient(WithRateLimit(0.5))
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	// The single token is spent; the next wait exceeds the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, srv.URL, nil)
	assert.Error(t, err)
}
