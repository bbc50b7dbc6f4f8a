package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartscheduler/internal/llm"
)

func chatServer(t *testing.T, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete_JSONMode(t *testing.T) {
	var body map[string]any
	srv := chatServer(t, `{"title":"sync"}`, &body)

	c, err := New("test-key", "", WithBaseURL(srv.URL))
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), llm.Request{System: "extract", Prompt: "book sync", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"sync"}`, out)

	assert.Equal(t, DefaultModel, body["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
	assert.Equal(t, float64(0), body["temperature"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestComplete_PlainOmitsJSONSettings(t *testing.T) {
	var body map[string]any
	srv := chatServer(t, "Sure!", &body)

	c, err := New("test-key", "gpt-test", WithBaseURL(srv.URL))
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), llm.Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Sure!", out)
	assert.Equal(t, "gpt-test", body["model"])
	assert.NotContains(t, body, "response_format")
}

func TestComplete_EmptyContent(t *testing.T) {
	srv := chatServer(t, "   ", nil)
	c, err := New("test-key", "", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), llm.Request{Prompt: "hi"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New("", "")
	assert.Error(t, err)
}
