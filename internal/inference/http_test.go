package inference_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cipherchat/internal/domain"
	"cipherchat/internal/inference"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, inference.ChatPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req inference.ChatRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)
		if !assert.Len(t, req.Messages, 2) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		assert.Equal(t, domain.RoleUser, req.Messages[1].Role)

		_ = json.NewEncoder(w).Encode(inference.ChatResponse{
			Model:   req.Model,
			Message: domain.ChatTurn{Role: domain.RoleAssistant, Content: "reply to " + req.Messages[1].Content},
			Done:    true,
		})
	}))
	defer srv.Close()

	got, err := inference.NewHTTP(srv.URL+"/").Complete(context.Background(), "llama3", []domain.ChatTurn{
		{Role: domain.RoleAssistant, Content: "hi"},
		{Role: domain.RoleUser, Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "reply to hello", got)
}

func TestComplete_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := inference.NewHTTP(srv.URL).Complete(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestComplete_EmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"done":true}`))
	}))
	defer srv.Close()

	_, err := inference.NewHTTP(srv.URL).Complete(context.Background(), "m", nil)
	assert.ErrorIs(t, err, inference.ErrEmptyReply)
}

func TestComplete_RespectsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := inference.NewHTTP(srv.URL).Complete(ctx, "m", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
