package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

func chatServer(t *testing.T, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func TestOpenAIComplete(t *testing.T) {
	var body map[string]any
	srv := chatServer(t, "  I play\n###\nNf3\n###  ", &body)
	defer srv.Close()

	tr := NewOpenAI("test-key", srv.URL+"/v1/")
	reply, err := tr.Complete(context.Background(), "test-model", []core.Message{
		{Role: core.RoleSystem, Content: "You are an experienced white chess player."},
		{Role: core.RoleUser, Content: "Your move."},
	}, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "I play\n###\nNf3\n###", reply)

	assert.Equal(t, "test-model", body["model"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAIEmptyReply(t *testing.T) {
	srv := chatServer(t, "   ", nil)
	defer srv.Close()

	_, err := NewOpenAI("test-key", srv.URL+"/v1").Complete(context.Background(), "test-model", nil, 0.7)
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestOpenAIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI("test-key", srv.URL+"/v1").Complete(context.Background(), "test-model", nil, 0.7)
	assert.Error(t, err)
}
