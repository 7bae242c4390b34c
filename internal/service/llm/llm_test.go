package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuka400/chatbot-spera/internal/config"
)

func conversation() []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage("You are helpful."),
		schema.UserMessage("What is a transformer?"),
	}
}

func captureServer(t *testing.T, pathSuffix, body string, seen *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, pathSuffix), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		*seen = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerate(t *testing.T) {
	var seen string
	srv := captureServer(t, "/chat/completions", `{
		"id":"cmpl-1","object":"chat.completion","created":1,"model":"llama",
		"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Thought: easy\nFinal Answer: A model.\nObservation: leaked"}}]}`, &seen)

	m := NewOpenAI(config.LLMConfig{Model: "llama", Temperature: 0.2, MaxTokens: 64, BaseURL: srv.URL}, "key")
	msg, err := m.Generate(context.Background(), conversation(), model.WithStop([]string{"\nObservation:"}))
	require.NoError(t, err)

	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Equal(t, "Thought: easy\nFinal Answer: A model.", msg.Content)
	assert.Contains(t, seen, `"model":"llama"`)
	assert.Contains(t, seen, `"max_tokens":64`)
	assert.Contains(t, seen, "You are helpful.")
}

func TestOpenAIStreamSingleChunk(t *testing.T) {
	var seen string
	srv := captureServer(t, "/chat/completions", `{"id":"c","object":"chat.completion","created":1,"model":"m",
		"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hello"}}]}`, &seen)

	m := NewOpenAI(config.LLMConfig{Model: "m", MaxTokens: 8, BaseURL: srv.URL}, "key")
	reader, err := m.Stream(context.Background(), conversation())
	require.NoError(t, err)
	defer reader.Close()

	chunk, err := reader.Recv()
	require.NoError(t, err)
	assert.Equal(t, "hello", chunk.Content)
	_, err = reader.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenAIEmptyCompletion(t *testing.T) {
	var seen string
	srv := captureServer(t, "/chat/completions", `{"id":"c","object":"chat.completion","created":1,"model":"m",
		"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  "}}]}`, &seen)

	m := NewOpenAI(config.LLMConfig{Model: "m", MaxTokens: 8, BaseURL: srv.URL}, "key")
	_, err := m.Generate(context.Background(), conversation())
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestAnthropicGenerate(t *testing.T) {
	var seen string
	srv := captureServer(t, "/v1/messages", `{
		"id":"msg_1","type":"message","role":"assistant","model":"claude",
		"content":[{"type":"text","text":"Final Answer: Attention based."}],
		"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`, &seen)

	m := NewAnthropic(config.LLMConfig{Model: "claude", Temperature: 0, MaxTokens: 128, BaseURL: srv.URL}, "key")
	msg, err := m.Generate(context.Background(), conversation(), model.WithStop([]string{"\nObservation:"}))
	require.NoError(t, err)

	assert.Equal(t, "Final Answer: Attention based.", msg.Content)
	assert.Contains(t, seen, `"system"`)
	assert.Contains(t, seen, "You are helpful.")
	assert.Contains(t, seen, `"stop_sequences"`)
}

func TestOllamaGenerate(t *testing.T) {
	var seen string
	srv := captureServer(t, "/api/chat", `{"model":"llama3","message":{"role":"assistant","content":"Hi there"},"done":true}`, &seen)

	m, err := NewOllama(config.LLMConfig{Model: "llama3", Temperature: 0.3, MaxTokens: 32, BaseURL: srv.URL, Options: map[string]any{"num_ctx": 4096}})
	require.NoError(t, err)

	msg, err := m.Generate(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, "Hi there", msg.Content)
	assert.Contains(t, seen, `"num_predict":32`)
	assert.Contains(t, seen, `"num_ctx":4096`)
	assert.Contains(t, seen, `"stream":false`)
}

func TestNewRequiresCredential(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: "groq", Model: "m", MaxTokens: 1}, config.Credentials{})
	assert.ErrorIs(t, err, config.ErrMissingCredential)

	_, err = New(context.Background(), config.LLMConfig{Provider: "mystery", Model: "m"}, config.Credentials{})
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func TestNewGroqUsesCompatibleEndpoint(t *testing.T) {
	chatModel, err := New(context.Background(), config.LLMConfig{Provider: "groq", Model: "m", MaxTokens: 1}, config.Credentials{GroqAPIKey: "gsk"})
	require.NoError(t, err)

	m, ok := chatModel.(*OpenAI)
	require.True(t, ok)
	assert.Equal(t, GroqBaseURL, m.cfg.BaseURL)
}

func TestCallOptionsOverrideDefaults(t *testing.T) {
	o := callOptions(config.LLMConfig{Temperature: 0.7, MaxTokens: 100}, model.WithTemperature(0), model.WithStop([]string{"X"}))
	assert.Equal(t, float32(0), *o.Temperature)
	assert.Equal(t, 100, *o.MaxTokens)
	assert.Equal(t, []string{"X"}, o.Stop)
}

func TestSplitSystemAndCutAtStop(t *testing.T) {
	system, rest := splitSystem(conversation())
	assert.Equal(t, "You are helpful.", system)
	require.Len(t, rest, 1)
	assert.Equal(t, schema.User, rest[0].Role)

	assert.Equal(t, "abc", cutAtStop("abc\nObservation: x", []string{"\nObservation:"}))
	assert.Equal(t, "abc", cutAtStop("abc", nil))
}
