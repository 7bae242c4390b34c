package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuka400/chatbot-spera/internal/config"
	"github.com/menuka400/chatbot-spera/internal/model/profile"
	"github.com/menuka400/chatbot-spera/internal/service/search"
	"github.com/menuka400/chatbot-spera/internal/tools"
)

const appYAML = `
llm:
  provider: groq
  model: llama-3.1-8b-instant
  temperature: 0.2
  max_tokens: 512
agent:
  max_iterations: 3
  max_execution_time: 5
tools:
  web_search:
    enabled: true
    provider: duckduckgo
`

// replayModel answers with canned replies and records every prompt.
type replayModel struct {
	mu      sync.Mutex
	replies []string
	prompts []string
}

func (m *replayModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b strings.Builder
	for _, msg := range input {
		b.WriteString(msg.Content)
	}
	m.prompts = append(m.prompts, b.String())
	reply := "Final Answer: done"
	if len(m.replies) > 0 {
		reply, m.replies = m.replies[0], m.replies[1:]
	}
	return schema.AssistantMessage(reply, nil), nil
}

func (m *replayModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("YOUTUBE_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func staticSource(results ...search.Result) search.Client {
	return search.ClientFunc(func(context.Context, string, int) ([]search.Result, error) {
		return results, nil
	})
}

func fakeSources() tools.Sources {
	paper := search.Result{Title: "Attention Is All You Need", Source: "arXiv", Description: "Transformers."}
	return tools.Sources{
		Web:       staticSource(),
		Wikipedia: staticSource(),
		News:      staticSource(),
		Arxiv:     staticSource(paper),
	}
}

func TestBuildWiresProfilesAndTools(t *testing.T) {
	cfg := loadConfig(t, appYAML)
	chatModel := &replayModel{replies: []string{
		"Thought: I need papers.\nAction: ArXiv_Research_Search\nAction Input: transformers",
		"Final Answer: the transformer paper is the key reference",
	}}

	a, err := Build(context.Background(), cfg, Overrides{ChatModel: chatModel, Sources: fakeSources()}, nil)
	require.NoError(t, err)

	assert.Equal(t, profile.AIMLID, a.ChatSvc.DefaultProfile())
	assert.Equal(t, []string{"AI_ML_Web_Search", "Web Search", "AI_ML_Wikipedia", "Wikipedia", "AI_ML_News_Search", "ArXiv_Research_Search"}, a.Tools.Names())
	assert.Len(t, a.ChatSvc.Profiles(), 2)

	ctx := context.Background()
	session, err := a.ChatSvc.CreateSession(ctx, profile.AIMLID)
	require.NoError(t, err)

	outcome, err := a.ChatSvc.Converse(ctx, session.ID, "What is the key transformer paper?")
	require.NoError(t, err)
	assert.Equal(t, "ArXiv_Research_Search", outcome.ToolName)
	assert.Equal(t, "The transformer paper is the key reference.", outcome.Text)

	require.Len(t, chatModel.prompts, 2)
	assert.Contains(t, chatModel.prompts[0], "AI_ML_News_Search")
	assert.NotContains(t, chatModel.prompts[0], "YouTube Search")
	assert.Contains(t, chatModel.prompts[1], "Attention Is All You Need")
}

func TestBuildGeneralProfileUsesGeneralTools(t *testing.T) {
	cfg := loadConfig(t, appYAML)
	chatModel := &replayModel{}

	a, err := Build(context.Background(), cfg, Overrides{ChatModel: chatModel, Sources: fakeSources()}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	session, err := a.ChatSvc.CreateSession(ctx, profile.GeneralID)
	require.NoError(t, err)
	_, err = a.ChatSvc.Converse(ctx, session.ID, "hi")
	require.NoError(t, err)

	require.Len(t, chatModel.prompts, 1)
	assert.Contains(t, chatModel.prompts[0], "Web Search")
	assert.NotContains(t, chatModel.prompts[0], "AI_ML_News_Search")
}

func TestBuildRejectsUnknownDefaultProfile(t *testing.T) {
	cfg := loadConfig(t, appYAML)
	cfg.Agent.Profile = "pirate"

	_, err := Build(context.Background(), cfg, Overrides{ChatModel: &replayModel{}, Sources: fakeSources()}, nil)
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func TestBuildFailsWithoutCredentials(t *testing.T) {
	cfg := loadConfig(t, appYAML)
	cfg.Credentials.GroqAPIKey = ""

	_, err := Build(context.Background(), cfg, Overrides{Sources: fakeSources()}, nil)
	assert.ErrorIs(t, err, config.ErrMissingCredential)
}
