package config

import (
	"time"

	"github.com/mitchellh/mapstructure"
)

// ToolsConfig groups the search tools. Each section registers one tool per
// variant; profiles pick the variants they want by name.
type ToolsConfig struct {
	SummaryChars int           `mapstructure:"summary_chars"`
	MaxResults   int           `mapstructure:"max_results"`
	Timeout      time.Duration `mapstructure:"timeout"`

	WebSearch WebSearchConfig `mapstructure:"web_search"`
	Wikipedia ToolConfig      `mapstructure:"wikipedia"`
	News      ToolConfig      `mapstructure:"news"`
	Arxiv     ToolConfig      `mapstructure:"arxiv"`
	YouTube   ToolConfig      `mapstructure:"youtube"`
}

// ToolConfig is one search section.
type ToolConfig struct {
	Enabled    bool            `mapstructure:"enabled"`
	MaxResults int             `mapstructure:"max_results"`
	Variants   []VariantConfig `mapstructure:"variants"`
	// Settings are provider specific; see DecodeSettings.
	Settings map[string]any `mapstructure:"settings"`
}

// WebSearchConfig adds the provider selector.
type WebSearchConfig struct {
	ToolConfig `mapstructure:",squash"`
	Provider   string `mapstructure:"provider"`
}

// VariantConfig names a tool and the way its queries are biased.
type VariantConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	QueryPrefix string `mapstructure:"query_prefix"`
	QuerySuffix string `mapstructure:"query_suffix"`
	Heading     string `mapstructure:"heading"`
	NoResults   string `mapstructure:"no_results"`
}

// NewsSettings tunes the Google News feed.
type NewsSettings struct {
	Language string `mapstructure:"language"`
	Country  string `mapstructure:"country"`
	Period   string `mapstructure:"period"`
}

// ArxivSettings restricts paper searches.
type ArxivSettings struct {
	Categories []string `mapstructure:"categories"`
}

// TavilySettings tunes the Tavily provider.
type TavilySettings struct {
	SearchDepth string `mapstructure:"search_depth"`
}

// DecodeSettings converts a free-form settings map into out.
func DecodeSettings(in map[string]any, out any) error {
	if len(in) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(in)
}

// applyDefaults fills the variants the bots ship with when config.yaml lists none.
func (t *ToolsConfig) applyDefaults() {
	if t.SummaryChars <= 0 {
		t.SummaryChars = 150
	}
	if t.MaxResults <= 0 {
		t.MaxResults = 3
	}
	if t.WebSearch.Provider == "" {
		t.WebSearch.Provider = "auto"
	}
	if len(t.WebSearch.Variants) == 0 {
		t.WebSearch.Variants = []VariantConfig{
			{
				Name:        "AI_ML_Web_Search",
				Description: "Use this for general AI/ML questions, tutorials, explanations, and current information about AI/ML topics.",
				QuerySuffix: "AI ML artificial intelligence machine learning",
				Heading:     "Web Search Results",
			},
			{
				Name:        "Web Search",
				Description: "Use this for current events, recent information, or when you need to search the web for up-to-date information.",
				Heading:     "Web Search Results",
			},
		}
	}
	if len(t.Wikipedia.Variants) == 0 {
		t.Wikipedia.Variants = []VariantConfig{
			{
				Name:        "AI_ML_Wikipedia",
				Description: "Use this for getting detailed explanations of AI/ML concepts, algorithms, and foundational knowledge.",
				QuerySuffix: "artificial intelligence machine learning",
				Heading:     "Wikipedia",
			},
			{
				Name:        "Wikipedia",
				Description: "Use this for factual information, definitions, historical facts, and general knowledge.",
				Heading:     "Wikipedia",
			},
		}
	}
	if len(t.News.Variants) == 0 {
		t.News.Variants = []VariantConfig{{
			Name:        "AI_ML_News_Search",
			Description: "Use this for getting the latest news about AI, machine learning, and related technology developments.",
			QuerySuffix: "AI OR ML OR artificial intelligence OR machine learning",
			Heading:     "Latest AI/ML News",
			NoResults:   "No recent AI/ML news found for your query.",
		}}
	}
	if len(t.Arxiv.Variants) == 0 {
		t.Arxiv.Variants = []VariantConfig{{
			Name:        "ArXiv_Research_Search",
			Description: "Use this for finding recent AI/ML research papers and academic publications.",
			Heading:     "Recent AI/ML Research Papers",
			NoResults:   "No recent AI/ML research papers found for your query.",
		}}
	}
	if len(t.YouTube.Variants) == 0 {
		t.YouTube.Variants = []VariantConfig{{
			Name:        "YouTube Search",
			Description: "Use this for finding relevant videos and video content.",
			Heading:     "YouTube Videos",
			NoResults:   "No videos found for your query.",
		}}
	}
}
