package tools

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/menuka400/chatbot-spera/internal/config"
	"github.com/menuka400/chatbot-spera/internal/service/search"
)

// Sources overrides the collaborators Build would construct. Nil fields are
// built from configuration.
type Sources struct {
	Web       search.Client
	Wikipedia search.Client
	News      search.Client
	Arxiv     search.Client
	YouTube   search.Client
}

// Build assembles the registry from the tools section. Sections that are disabled
// or lack their credential are skipped with a log line; a variant name used twice
// is an error.
func Build(cfg config.ToolsConfig, creds config.Credentials, src Sources, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := search.NewHTTPClient(cfg.Timeout)

	registry, _ := NewRegistry()
	add := func(section config.ToolConfig, client search.Client) error {
		maxResults := section.MaxResults
		if maxResults <= 0 {
			maxResults = cfg.MaxResults
		}
		for _, v := range section.Variants {
			desc := NewSearchTool(AdapterConfig{
				Name:         v.Name,
				Description:  v.Description,
				QueryPrefix:  v.QueryPrefix,
				QuerySuffix:  v.QuerySuffix,
				Heading:      v.Heading,
				NoResults:    v.NoResults,
				MaxResults:   maxResults,
				SummaryChars: cfg.SummaryChars,
			}, client)
			if err := registry.Register(desc); err != nil {
				return err
			}
		}
		return nil
	}

	if cfg.WebSearch.Enabled {
		client := src.Web
		if client == nil {
			var err error
			if client, err = newWebClient(cfg.WebSearch, creds, httpClient); err != nil {
				return nil, err
			}
		}
		if err := add(cfg.WebSearch.ToolConfig, client); err != nil {
			return nil, err
		}
	}

	if cfg.Wikipedia.Enabled {
		client := src.Wikipedia
		if client == nil {
			client = search.NewWikipedia(httpClient)
		}
		if err := add(cfg.Wikipedia, client); err != nil {
			return nil, err
		}
	}

	if cfg.News.Enabled {
		client := src.News
		if client == nil {
			news := search.NewGoogleNews(httpClient)
			var settings config.NewsSettings
			if err := config.DecodeSettings(cfg.News.Settings, &settings); err != nil {
				return nil, fmt.Errorf("tools.news.settings: %w", err)
			}
			if settings.Language != "" {
				news.Language = settings.Language
			}
			if settings.Country != "" {
				news.Country = settings.Country
			}
			if settings.Period != "" {
				news.Period = settings.Period
			}
			client = news
		}
		if err := add(cfg.News, client); err != nil {
			return nil, err
		}
	}

	if cfg.Arxiv.Enabled {
		client := src.Arxiv
		if client == nil {
			arxiv := search.NewArxiv(httpClient)
			var settings config.ArxivSettings
			if err := config.DecodeSettings(cfg.Arxiv.Settings, &settings); err != nil {
				return nil, fmt.Errorf("tools.arxiv.settings: %w", err)
			}
			if len(settings.Categories) > 0 {
				arxiv.Categories = settings.Categories
			}
			client = arxiv
		}
		if err := add(cfg.Arxiv, client); err != nil {
			return nil, err
		}
	}

	if cfg.YouTube.Enabled {
		client := src.YouTube
		if client == nil && creds.YouTubeAPIKey != "" {
			client = search.NewYouTube(creds.YouTubeAPIKey, httpClient)
		}
		if client == nil {
			logger.Warn("youtube search disabled", "reason", "YOUTUBE_API_KEY not set")
		} else if err := add(cfg.YouTube, client); err != nil {
			return nil, err
		}
	}

	logger.Info("tool registry ready", "tools", registry.Names())
	return registry, nil
}

func newWebClient(cfg config.WebSearchConfig, creds config.Credentials, httpClient *http.Client) (search.Client, error) {
	var settings config.TavilySettings
	if err := config.DecodeSettings(cfg.Settings, &settings); err != nil {
		return nil, fmt.Errorf("tools.web_search.settings: %w", err)
	}

	switch cfg.Provider {
	case "tavily":
		if creds.TavilyAPIKey == "" {
			return nil, &config.Error{Key: "TAVILY_API_KEY", Err: config.ErrMissingCredential}
		}
	case "duckduckgo":
		return search.NewDuckDuckGo(httpClient), nil
	default:
		if creds.TavilyAPIKey == "" {
			return search.NewDuckDuckGo(httpClient), nil
		}
	}

	tavily := search.NewTavily(creds.TavilyAPIKey, httpClient)
	if settings.SearchDepth != "" {
		tavily.Depth = settings.SearchDepth
	}
	return tavily, nil
}
