package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/pitch"
	"github.com/fwojciec/pitch/backend"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_RequestFormat(t *testing.T) {
	t.Parallel()

	var (
		captured []byte
		header   http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		header = r.Header.Clone()

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/query/stream", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "data: [DONE]\n")
	}))
	defer srv.Close()

	client := backend.New(backend.WithBaseURL(srv.URL + "/"))
	s, err := client.Stream(context.Background(), pitch.Query{
		Text:              "Who scored for Arsenal?",
		IncludeHighlights: true,
		EmphasizeOrder:    false,
		Audience:          "coach",
	})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, "text/event-stream", header.Get("Accept"))
	_, err = uuid.Parse(header.Get("X-Request-ID"))
	assert.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured, &body))
	assert.Equal(t, map[string]any{
		"query":              "Who scored for Arsenal?",
		"include_highlights": true,
		"emphasize_order":    false,
		"audience":           "coach",
	}, body)

	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestClient_AudienceOmittedWhenEmpty(t *testing.T) {
	t.Parallel()

	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := backend.New(backend.WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), pitch.Query{Text: "q"})
	require.NoError(t, err)
	defer s.Close()

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured, &body))
	assert.NotContains(t, body, "audience")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"detail field", http.StatusInternalServerError, `{"detail":"Out of memory while ranking"}`, "Out of memory while ranking"},
		{"error field", http.StatusBadGateway, `{"error":"upstream down"}`, "upstream down"},
		{"message field", http.StatusServiceUnavailable, `{"message":"try later"}`, "try later"},
		{"non-JSON body", http.StatusNotFound, "not found\n", "not found"},
		{"empty body", http.StatusInternalServerError, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := backend.New(backend.WithBaseURL(srv.URL))
			_, err := client.Stream(context.Background(), pitch.Query{Text: "q"})
			require.Error(t, err)

			var tErr *pitch.TransportError
			require.ErrorAs(t, err, &tErr)
			assert.Equal(t, tt.status, tErr.StatusCode)
			assert.Equal(t, tt.wantMessage, tErr.Message)
		})
	}
}

func TestClient_ResourceLimitStatusIsClassified(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"detail":"worker killed: OOM"}`)
	}))
	defer srv.Close()

	_, err := backend.New(backend.WithBaseURL(srv.URL)).Stream(context.Background(), pitch.Query{Text: "q"})
	require.Error(t, err)
	assert.True(t, pitch.IsResourceLimit(err))
}

func TestClient_NetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := backend.New(backend.WithBaseURL(url)).Stream(context.Background(), pitch.Query{Text: "q"})
	require.Error(t, err)

	var tErr *pitch.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Zero(t, tErr.StatusCode)
	assert.Equal(t, "Could not reach the analysis service. Please try again.", pitch.UserMessage(err))
}

func TestClient_CancelledBeforeOpen(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := backend.New(backend.WithBaseURL(srv.URL)).Stream(ctx, pitch.Query{Text: "q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	var tErr *pitch.TransportError
	assert.False(t, errors.As(err, &tErr), "cancellation is not a transport failure")
}

func TestClient_CustomHTTPClient(t *testing.T) {
	t.Parallel()

	var used bool
	rt := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		used = true
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(io.MultiReader()),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	})
	client := backend.New(
		backend.WithBaseURL("http://analysis.invalid"),
		backend.WithHTTPClient(&http.Client{Transport: rt}),
	)
	s, err := client.Stream(context.Background(), pitch.Query{Text: "q"})
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, used)
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestClient_Retries(t *testing.T) {
	t.Parallel()

	t.Run("recovers after unavailable", func(t *testing.T) {
		t.Parallel()

		var (
			mu  sync.Mutex
			ids []string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			ids = append(ids, r.Header.Get("X-Request-ID"))
			n := len(ids)
			mu.Unlock()
			if n == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, "data: [DONE]\n")
		}))
		defer srv.Close()

		client := backend.New(backend.WithBaseURL(srv.URL), backend.WithRetries(2, time.Millisecond))
		s, err := client.Stream(context.Background(), pitch.Query{Text: "q"})
		require.NoError(t, err)
		defer s.Close()

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, ids, 2)
		assert.Equal(t, ids[0], ids[1], "attempts share a request ID")
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		t.Parallel()

		var (
			mu    sync.Mutex
			calls int
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			calls++
			mu.Unlock()
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"detail":"query is empty"}`)
		}))
		defer srv.Close()

		client := backend.New(backend.WithBaseURL(srv.URL), backend.WithRetries(3, time.Millisecond))
		_, err := client.Stream(context.Background(), pitch.Query{Text: "q"})

		var tErr *pitch.TransportError
		require.ErrorAs(t, err, &tErr)
		assert.Equal(t, http.StatusBadRequest, tErr.StatusCode)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		t.Parallel()

		var (
			mu    sync.Mutex
			calls int
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			calls++
			mu.Unlock()
			w.WriteHeader(http.StatusGatewayTimeout)
		}))
		defer srv.Close()

		client := backend.New(backend.WithBaseURL(srv.URL), backend.WithRetries(2, time.Millisecond))
		_, err := client.Stream(context.Background(), pitch.Query{Text: "q"})

		var tErr *pitch.TransportError
		require.ErrorAs(t, err, &tErr)
		assert.Equal(t, http.StatusGatewayTimeout, tErr.StatusCode)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, calls)
	})

	t.Run("cancellation stops waiting", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cancel()
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := backend.New(backend.WithBaseURL(srv.URL), backend.WithRetries(5, time.Hour))
		_, err := client.Stream(ctx, pitch.Query{Text: "q"})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)

		var tErr *pitch.TransportError
		assert.False(t, errors.As(err, &tErr), "cancellation is not a transport failure")
	})

	t.Run("zero disables retries", func(t *testing.T) {
		t.Parallel()

		var (
			mu    sync.Mutex
			calls int
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			calls++
			mu.Unlock()
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := backend.New(backend.WithBaseURL(srv.URL), backend.WithRetries(0, time.Millisecond))
		_, err := client.Stream(context.Background(), pitch.Query{Text: "q"})
		require.Error(t, err)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, calls)
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
