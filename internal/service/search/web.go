package search

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

const (
	tavilyBaseURL     = "https://api.tavily.com"
	duckDuckGoBaseURL = "https://api.duckduckgo.com"
)

// Tavily queries the Tavily search API.
type Tavily struct {
	APIKey     string
	Depth      string // "basic" or "advanced"
	BaseURL    string
	HTTPClient *http.Client
}

// NewTavily returns a Tavily client using advanced search depth.
func NewTavily(apiKey string, httpClient *http.Client) *Tavily {
	return &Tavily{APIKey: apiKey, Depth: "advanced", BaseURL: tavilyBaseURL, HTTPClient: httpClient}
}

type tavilyRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		PublishedDate string  `json:"published_date"`
		Score         float64 `json:"score"`
	} `json:"results"`
}

// Search implements Client.
func (t *Tavily) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if t.APIKey == "" {
		return nil, errors.New("tavily: api key is required")
	}

	base := t.BaseURL
	if base == "" {
		base = tavilyBaseURL
	}

	var resp tavilyResponse
	err := postJSON(ctx, httpClientOrDefault(t.HTTPClient), "tavily", strings.TrimRight(base, "/")+"/search",
		map[string]string{"Authorization": "Bearer " + t.APIKey},
		tavilyRequest{Query: query, SearchDepth: t.Depth, MaxResults: limit},
		&resp,
	)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, Result{
			Title:       strings.TrimSpace(r.Title),
			Description: cleanText(r.Content),
			URL:         r.URL,
			Published:   r.PublishedDate,
			Source:      hostOf(r.URL),
		})
	}
	return limitResults(results, limit), nil
}

// DuckDuckGo queries the DuckDuckGo instant answer API. It needs no key and is
// the web search fallback when Tavily is not configured.
type DuckDuckGo struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewDuckDuckGo returns a DuckDuckGo client.
func NewDuckDuckGo(httpClient *http.Client) *DuckDuckGo {
	return &DuckDuckGo{BaseURL: duckDuckGoBaseURL, HTTPClient: httpClient}
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Name     string     `json:"Name"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading        string     `json:"Heading"`
	AbstractText   string     `json:"AbstractText"`
	AbstractURL    string     `json:"AbstractURL"`
	AbstractSource string     `json:"AbstractSource"`
	Answer         string     `json:"Answer"`
	RelatedTopics  []ddgTopic `json:"RelatedTopics"`
}

// Search implements Client.
func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	base := d.BaseURL
	if base == "" {
		base = duckDuckGoBaseURL
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	var resp ddgResponse
	if err := getJSON(ctx, httpClientOrDefault(d.HTTPClient), "duckduckgo", strings.TrimRight(base, "/")+"/?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	var results []Result
	if resp.AbstractText != "" {
		results = append(results, Result{
			Title:       firstNonEmpty(resp.Heading, query),
			Description: cleanText(resp.AbstractText),
			URL:         resp.AbstractURL,
			Source:      resp.AbstractSource,
		})
	} else if resp.Answer != "" {
		results = append(results, Result{Title: query, Description: cleanText(resp.Answer), Source: "DuckDuckGo"})
	}

	for _, topic := range flattenTopics(resp.RelatedTopics) {
		title, desc := splitTopicText(topic.Text)
		results = append(results, Result{
			Title:       title,
			Description: desc,
			URL:         topic.FirstURL,
			Source:      "DuckDuckGo",
		})
	}
	return limitResults(results, limit), nil
}

func flattenTopics(topics []ddgTopic) []ddgTopic {
	var flat []ddgTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			flat = append(flat, flattenTopics(t.Topics)...)
			continue
		}
		if t.Text != "" {
			flat = append(flat, t)
		}
	}
	return flat
}

// splitTopicText splits "Title - description" style related-topic text.
func splitTopicText(text string) (string, string) {
	text = cleanText(text)
	if title, desc, ok := strings.Cut(text, " - "); ok {
		return title, desc
	}
	return text, ""
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
