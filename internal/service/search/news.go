package search

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const googleNewsBaseURL = "https://news.google.com"

// GoogleNews reads the Google News RSS search feed.
type GoogleNews struct {
	Language   string // hl, e.g. en-US
	Country    string // gl, e.g. US
	Period     string // appended as when:<period>, e.g. 1d; empty disables
	BaseURL    string
	HTTPClient *http.Client
}

// NewGoogleNews returns a US English news client restricted to the last day.
func NewGoogleNews(httpClient *http.Client) *GoogleNews {
	return &GoogleNews{Language: "en-US", Country: "US", Period: "1d", BaseURL: googleNewsBaseURL, HTTPClient: httpClient}
}

type rssFeed struct {
	XMLName xml.Name `xml:"rss"`
	Items   []struct {
		Title       string `xml:"title"`
		Link        string `xml:"link"`
		PubDate     string `xml:"pubDate"`
		Description string `xml:"description"`
		Source      struct {
			Name string `xml:",chardata"`
			URL  string `xml:"url,attr"`
		} `xml:"source"`
	} `xml:"channel>item"`
}

// Search implements Client.
func (g *GoogleNews) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	base := strings.TrimRight(g.BaseURL, "/")
	if base == "" {
		base = googleNewsBaseURL
	}

	q := query
	if g.Period != "" {
		q += " when:" + g.Period
	}
	lang := firstNonEmpty(g.Language, "en-US")
	country := firstNonEmpty(g.Country, "US")
	params := url.Values{}
	params.Set("q", q)
	params.Set("hl", lang)
	params.Set("gl", country)
	params.Set("ceid", country+":"+strings.SplitN(lang, "-", 2)[0])

	var feed rssFeed
	if err := getXML(ctx, httpClientOrDefault(g.HTTPClient), "google-news", base+"/rss/search?"+params.Encode(), &feed); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(feed.Items))
	for _, item := range feed.Items {
		source := strings.TrimSpace(item.Source.Name)
		title := strings.TrimSpace(item.Title)
		if source != "" {
			title = strings.TrimSuffix(title, " - "+source)
		}
		results = append(results, Result{
			Title:       title,
			Description: cleanText(item.Description),
			URL:         item.Link,
			Published:   normalizeRSSDate(item.PubDate),
			Source:      source,
		})
	}
	return limitResults(results, limit), nil
}

// normalizeRSSDate converts RFC1123 dates to RFC3339 so that callers can take the
// leading YYYY-MM-DD. Unparseable values are returned unchanged.
func normalizeRSSDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC1123, time.RFC1123Z} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return raw
}
