package search

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const youTubeBaseURL = "https://www.googleapis.com"

// YouTube searches videos through the YouTube Data API v3.
type YouTube struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewYouTube returns a YouTube client.
func NewYouTube(apiKey string, httpClient *http.Client) *YouTube {
	return &YouTube{APIKey: apiKey, BaseURL: youTubeBaseURL, HTTPClient: httpClient}
}

type youTubeResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			PublishedAt  string `json:"publishedAt"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search implements Client.
func (y *YouTube) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if y.APIKey == "" {
		return nil, errors.New("youtube: api key is required")
	}
	base := strings.TrimRight(y.BaseURL, "/")
	if base == "" {
		base = youTubeBaseURL
	}
	if limit <= 0 {
		limit = 3
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("key", y.APIKey)

	var resp youTubeResponse
	if err := getJSON(ctx, httpClientOrDefault(y.HTTPClient), "youtube", base+"/youtube/v3/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, Result{
			Title:       cleanText(item.Snippet.Title),
			Description: cleanText(item.Snippet.Description),
			URL:         "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			Published:   item.Snippet.PublishedAt,
			Source:      item.Snippet.ChannelTitle,
		})
	}
	return limitResults(results, limit), nil
}
