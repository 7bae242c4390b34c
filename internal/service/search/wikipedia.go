package search

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const wikipediaBaseURL = "https://en.wikipedia.org"

// Wikipedia searches article titles and snippets through the MediaWiki API.
type Wikipedia struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewWikipedia returns an English Wikipedia client.
func NewWikipedia(httpClient *http.Client) *Wikipedia {
	return &Wikipedia{BaseURL: wikipediaBaseURL, HTTPClient: httpClient}
}

type wikiResponse struct {
	Query struct {
		Search []struct {
			Title     string `json:"title"`
			Snippet   string `json:"snippet"`
			Timestamp string `json:"timestamp"`
			PageID    int    `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

// Search implements Client.
func (w *Wikipedia) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	base := strings.TrimRight(w.BaseURL, "/")
	if base == "" {
		base = wikipediaBaseURL
	}
	if limit <= 0 {
		limit = 3
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", strconv.Itoa(limit))
	params.Set("format", "json")
	params.Set("utf8", "1")

	var resp wikiResponse
	if err := getJSON(ctx, httpClientOrDefault(w.HTTPClient), "wikipedia", base+"/w/api.php?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		results = append(results, Result{
			Title:       hit.Title,
			Description: cleanText(hit.Snippet),
			URL:         base + "/wiki/" + url.PathEscape(strings.ReplaceAll(hit.Title, " ", "_")),
			Published:   hit.Timestamp,
			Source:      "Wikipedia",
		})
	}
	return limitResults(results, limit), nil
}
