package search

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const arxivBaseURL = "http://export.arxiv.org"

// DefaultArxivCategories restricts paper searches to AI, learning, language and vision.
var DefaultArxivCategories = []string{"cs.AI", "cs.LG", "cs.CL", "cs.CV"}

// Arxiv queries the arXiv export API for the most recently submitted papers.
type Arxiv struct {
	Categories []string
	BaseURL    string
	HTTPClient *http.Client
}

// NewArxiv returns a client restricted to DefaultArxivCategories.
func NewArxiv(httpClient *http.Client) *Arxiv {
	return &Arxiv{Categories: DefaultArxivCategories, BaseURL: arxivBaseURL, HTTPClient: httpClient}
}

type atomFeed struct {
	XMLName xml.Name `xml:"http://www.w3.org/2005/Atom feed"`
	Entries []struct {
		ID        string `xml:"http://www.w3.org/2005/Atom id"`
		Title     string `xml:"http://www.w3.org/2005/Atom title"`
		Summary   string `xml:"http://www.w3.org/2005/Atom summary"`
		Published string `xml:"http://www.w3.org/2005/Atom published"`
	} `xml:"http://www.w3.org/2005/Atom entry"`
}

// Search implements Client.
func (a *Arxiv) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	base := strings.TrimRight(a.BaseURL, "/")
	if base == "" {
		base = arxivBaseURL
	}
	if limit <= 0 {
		limit = 3
	}

	params := url.Values{}
	params.Set("search_query", a.buildQuery(query))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	var feed atomFeed
	if err := getXML(ctx, httpClientOrDefault(a.HTTPClient), "arxiv", base+"/api/query?"+params.Encode(), &feed); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		results = append(results, Result{
			Title:       cleanText(entry.Title),
			Description: cleanText(entry.Summary),
			URL:         strings.TrimSpace(entry.ID),
			Published:   strings.TrimSpace(entry.Published),
			Source:      "arXiv",
		})
	}
	return limitResults(results, limit), nil
}

// buildQuery produces "(cat:a OR cat:b) AND (all:w1 AND all:w2)".
func (a *Arxiv) buildQuery(query string) string {
	var terms []string
	for _, word := range strings.Fields(query) {
		word = strings.Trim(word, `"()`)
		if word == "" {
			continue
		}
		terms = append(terms, "all:"+word)
	}

	var cats []string
	for _, c := range a.Categories {
		cats = append(cats, "cat:"+c)
	}

	switch {
	case len(cats) == 0:
		return strings.Join(terms, " AND ")
	case len(terms) == 0:
		return strings.Join(cats, " OR ")
	default:
		return "(" + strings.Join(cats, " OR ") + ") AND (" + strings.Join(terms, " AND ") + ")"
	}
}
