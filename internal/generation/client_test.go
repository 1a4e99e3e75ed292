package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialismbuilder/ContextFlow/internal/config"
)

// newChatStub returns a server answering chat-completion requests with the
// given message content, and a counter of requests received.
func newChatStub(t *testing.T, content string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			http.Error(w, "boom", status)
			return
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testStore(t *testing.T, apiURL string) *config.Store {
	t.Helper()
	cfg := config.Default()
	cfg.APIURL = apiURL
	cfg.ModelName = "test-model"
	require.NoError(t, cfg.Validate())
	return config.NewStore(cfg)
}

func TestGenerate(t *testing.T) {
	srv, calls := newChatStub(t,
		`{"sentences": [["The cat sat.", "猫坐下了。"], ["A cat ran.", "一只猫跑了。"]]}`,
		http.StatusOK)

	client := NewClient(testStore(t, srv.URL), nil)
	pairs, err := client.Generate(context.Background(), "cat", config.Default().Learner())
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "The cat sat.", pairs[0].Sentence)
	assert.Equal(t, int32(1), calls.Load(), "exactly one request, no retries")
}

func TestGenerateServerError(t *testing.T) {
	srv, calls := newChatStub(t, "", http.StatusInternalServerError)

	client := NewClient(testStore(t, srv.URL), nil)
	_, err := client.Generate(context.Background(), "cat", config.Default().Learner())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "a failed request must not be retried")
}

func TestGenerateNotConfigured(t *testing.T) {
	client := NewClient(config.NewStore(config.Default()), nil)
	_, err := client.Generate(context.Background(), "cat", config.Default().Learner())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerateForSelection(t *testing.T) {
	srv, _ := newChatStub(t, `{"sentences": [["Short.", "短。"]]}`, http.StatusOK)

	client := NewClient(testStore(t, srv.URL), nil)
	pairs, err := client.GenerateForSelection(context.Background(), "short", 0)
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://api.example.com/v1", "https://api.example.com/v1"},
		{"https://api.example.com/v1/", "https://api.example.com/v1"},
		{"https://api.example.com/v1/chat/completions", "https://api.example.com/v1"},
		{"http://localhost:11434/v1/chat/completions/", "http://localhost:11434/v1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeBaseURL(tt.in), tt.in)
	}
}
