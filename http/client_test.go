package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/aira"
	airahttp "github.com/fwojciec/aira/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frames writes each chunk and flushes it, so chunk boundaries reach the
// client the way a streaming backend sends them.
func frames(chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, c := range chunks {
			fmt.Fprint(w, c)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func collect(t *testing.T, s aira.Stream) []aira.Event {
	t.Helper()
	var events []aira.Event
	for {
		evt, err := s.Next()
		if errors.Is(err, io.EOF) {
			return events
		}
		require.NoError(t, err)
		events = append(events, evt)
	}
}

func TestClient_Stream(t *testing.T) {
	t.Parallel()

	t.Run("posts the message as JSON", func(t *testing.T) {
		t.Parallel()
		var got struct {
			Message string `json:"message"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/stream", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			frames("data: [DONE]\n\n")(w, r)
		}))
		t.Cleanup(srv.Close)

		c := airahttp.New(airahttp.WithBaseURL(srv.URL + "/"))
		s, err := c.Stream(context.Background(), aira.Request{Message: "Halo"})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		collect(t, s)
		assert.Equal(t, "Halo", got.Message)
	})

	t.Run("decodes frames split across writes", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(frames("data: Hel", "lo wor", "ld\n\n", "data: [DONE]\n\n"))
		t.Cleanup(srv.Close)

		c := airahttp.New(airahttp.WithBaseURL(srv.URL), airahttp.WithChunkSize(3))
		s, err := c.Stream(context.Background(), aira.Request{Message: "hi"})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })

		assert.Equal(t, []aira.Event{
			aira.EventToken{Text: "Hello world"},
			aira.EventDone{},
		}, collect(t, s))
		assert.Equal(t, aira.StreamStateComplete, s.State())
	})

	t.Run("returns a transport error for non-2xx responses", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model unavailable", http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)

		c := airahttp.New(airahttp.WithBaseURL(srv.URL))
		_, err := c.Stream(context.Background(), aira.Request{Message: "hi"})

		var te *aira.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.StatusBadGateway, te.StatusCode)
		assert.Contains(t, err.Error(), "model unavailable")
	})

	t.Run("uses the status text for empty error bodies", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		c := airahttp.New(airahttp.WithBaseURL(srv.URL))
		_, err := c.Stream(context.Background(), aira.Request{Message: "hi"})
		assert.EqualError(t, err, "transport: HTTP 500: Internal Server Error")
	})

	t.Run("returns a transport error when the backend is unreachable", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(frames())
		url := srv.URL
		srv.Close()

		c := airahttp.New(airahttp.WithBaseURL(url))
		_, err := c.Stream(context.Background(), aira.Request{Message: "hi"})

		var te *aira.TransportError
		require.ErrorAs(t, err, &te)
		assert.Zero(t, te.StatusCode)
	})

	t.Run("rejects an empty message", func(t *testing.T) {
		t.Parallel()
		c := airahttp.New()
		_, err := c.Stream(context.Background(), aira.Request{Message: "  "})
		assert.ErrorIs(t, err, aira.ErrValidation)
	})

	t.Run("reports cancellation while streaming", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			frames("data: first\n\n")(w, r)
			<-r.Context().Done()
		}))
		t.Cleanup(srv.Close)

		ctx, cancel := context.WithCancel(context.Background())
		c := airahttp.New(airahttp.WithBaseURL(srv.URL))
		s, err := c.Stream(ctx, aira.Request{Message: "hi"})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })

		evt, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, aira.EventToken{Text: "first"}, evt)

		cancel()
		_, err = s.Next()
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, aira.StreamStateError, s.State())
	})

	t.Run("applies the timeout to the whole response", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		t.Cleanup(func() { close(release) })
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			frames("data: first\n\n")(w, r)
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		t.Cleanup(srv.Close)

		c := airahttp.New(airahttp.WithBaseURL(srv.URL), airahttp.WithTimeout(50*time.Millisecond))
		s, err := c.Stream(context.Background(), aira.Request{Message: "hi"})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })

		_, err = s.Next()
		require.NoError(t, err)
		_, err = s.Next()
		require.Error(t, err)
		assert.NotErrorIs(t, err, io.EOF)
	})
}
