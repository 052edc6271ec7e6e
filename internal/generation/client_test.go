package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCompletePostsChatRequest(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/openai/v1/", APIKey: "secret", Model: "llama3-70b-8192", Temperature: 0.5}, zerolog.Nop())
	out, err := c.Complete(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "llama3-70b-8192", got.Model)
	assert.Equal(t, 0.5, got.Temperature)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, chatMessage{Role: "user", Content: "prompt"}, got.Messages[0])
}

func TestClientCompleteErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		},
		"decode": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
		"empty": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewClient(ClientConfig{BaseURL: srv.URL}, zerolog.Nop()).Complete(context.Background(), "p")
			assert.Error(t, err)
		})
	}

	_, err := NewClient(ClientConfig{}, zerolog.Nop()).Complete(context.Background(), "p")
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(0, []string{"Go", "SQL"}, "")
	assert.Contains(t, p, `Generate 3 QCMs about "Go, SQL" lists senior level`)
	assert.Contains(t, p, "Correct answer: <letter>) <option>")

	assert.Contains(t, BuildPrompt(5, []string{"React"}, "junior"), `Generate 5 QCMs about "React" lists junior level`)
}
