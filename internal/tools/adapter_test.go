package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuka400/chatbot-spera/internal/config"
	"github.com/menuka400/chatbot-spera/internal/logging"
	"github.com/menuka400/chatbot-spera/internal/service/search"
)

type recordingClient struct {
	queries []string
	limits  []int
	results []search.Result
	err     error
}

func (c *recordingClient) Search(_ context.Context, query string, limit int) ([]search.Result, error) {
	c.queries = append(c.queries, query)
	c.limits = append(c.limits, limit)
	return c.results, c.err
}

func TestSearchToolEnrichesQuery(t *testing.T) {
	client := &recordingClient{}
	tool := NewSearchTool(AdapterConfig{
		Name:        "AI_ML_Wikipedia",
		QuerySuffix: "artificial intelligence machine learning",
	}, client)

	out, err := tool.Invoke(context.Background(), "  backpropagation ")
	require.NoError(t, err)
	assert.Equal(t, []string{"backpropagation artificial intelligence machine learning"}, client.queries)
	assert.Equal(t, []int{3}, client.limits)
	assert.Equal(t, "No results found for your query using AI_ML_Wikipedia.", out)
}

func TestSearchToolEmptyResultsUsesConfiguredText(t *testing.T) {
	tool := NewSearchTool(AdapterConfig{
		Name:      "AI_ML_News_Search",
		NoResults: "No recent AI/ML news found for your query.",
	}, &recordingClient{})

	out, err := tool.Invoke(context.Background(), "quantum")
	require.NoError(t, err)
	assert.Equal(t, "No recent AI/ML news found for your query.", out)
}

func TestSearchToolPropagatesErrors(t *testing.T) {
	cause := errors.New("timeout")
	tool := NewSearchTool(AdapterConfig{Name: "Wikipedia"}, &recordingClient{err: cause})

	_, err := tool.Invoke(context.Background(), "q")
	assert.ErrorIs(t, err, cause)
}

func TestFormatResults(t *testing.T) {
	long := strings.Repeat("a", 200)
	out := FormatResults("Latest AI/ML News", "none", []search.Result{
		{Title: "GPT news", Source: "Tech Daily", Description: long, URL: "https://x.test/1", Published: "2024-05-01T10:00:00Z"},
		{Description: "short"},
	}, 150)

	want := "Latest AI/ML News:\n\n" +
		"1. **GPT news**\n" +
		"   Source: Tech Daily\n" +
		"   Summary: " + strings.Repeat("a", 150) + "...\n" +
		"   Published: 2024-05-01\n" +
		"   URL: https://x.test/1\n\n" +
		"2. **Untitled**\n" +
		"   Source: Unknown\n" +
		"   Summary: short"
	assert.Equal(t, want, out)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "héll...", Truncate("héllo wörld", 4))
	assert.Equal(t, "unchanged", Truncate("unchanged", 0))
}

func TestEnrichQuery(t *testing.T) {
	assert.Equal(t, "q", EnrichQuery("", "q", ""))
	assert.Equal(t, "latest q AI ML", EnrichQuery("latest", " q ", "AI ML"))
}

func TestBuildRegistersEnabledVariants(t *testing.T) {
	cfg := config.ToolsConfig{
		SummaryChars: 150,
		MaxResults:   3,
		WebSearch: config.WebSearchConfig{
			ToolConfig: config.ToolConfig{Enabled: true, Variants: []config.VariantConfig{{Name: "AI_ML_Web_Search"}, {Name: "Web Search"}}},
			Provider:   "auto",
		},
		Wikipedia: config.ToolConfig{Enabled: true, Variants: []config.VariantConfig{{Name: "Wikipedia"}}},
		News:      config.ToolConfig{Enabled: false, Variants: []config.VariantConfig{{Name: "AI_ML_News_Search"}}},
		Arxiv:     config.ToolConfig{Enabled: true, MaxResults: 5, Variants: []config.VariantConfig{{Name: "ArXiv_Research_Search"}}},
		YouTube:   config.ToolConfig{Enabled: true, Variants: []config.VariantConfig{{Name: "YouTube Search"}}},
	}
	arxiv := &recordingClient{}

	registry, err := Build(cfg, config.Credentials{}, Sources{
		Web:       &recordingClient{},
		Wikipedia: &recordingClient{},
		Arxiv:     arxiv,
	}, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"AI_ML_Web_Search", "Web Search", "Wikipedia", "ArXiv_Research_Search"}, registry.Names())

	_, err = registry.Invoke(context.Background(), "ArXiv_Research_Search", "agents")
	require.NoError(t, err)
	assert.Equal(t, []int{5}, arxiv.limits)
}

func TestBuildRejectsDuplicateVariantNames(t *testing.T) {
	cfg := config.ToolsConfig{
		Wikipedia: config.ToolConfig{Enabled: true, Variants: []config.VariantConfig{{Name: "Lookup"}}},
		News:      config.ToolConfig{Enabled: true, Variants: []config.VariantConfig{{Name: "Lookup"}}},
	}
	_, err := Build(cfg, config.Credentials{}, Sources{Wikipedia: &recordingClient{}, News: &recordingClient{}}, logging.Discard())
	assert.ErrorIs(t, err, ErrDuplicateTool)
}

func TestBuildTavilyNeedsKey(t *testing.T) {
	cfg := config.ToolsConfig{
		WebSearch: config.WebSearchConfig{
			ToolConfig: config.ToolConfig{Enabled: true, Variants: []config.VariantConfig{{Name: "Web Search"}}},
			Provider:   "tavily",
		},
	}
	_, err := Build(cfg, config.Credentials{}, Sources{}, logging.Discard())
	assert.ErrorIs(t, err, config.ErrMissingCredential)

	registry, err := Build(cfg, config.Credentials{TavilyAPIKey: "tvly"}, Sources{}, logging.Discard())
	require.NoError(t, err)
	assert.True(t, registry.Has("Web Search"))
}
