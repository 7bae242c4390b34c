package tools

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/menuka400/chatbot-spera/internal/service/search"
)

// DefaultSummaryChars is the description budget used when none is configured.
const DefaultSummaryChars = 150

// AdapterConfig describes how a search collaborator is exposed as a tool.
type AdapterConfig struct {
	Name        string
	Description string
	// QueryPrefix and QuerySuffix bias the collaborator towards the bot's specialty.
	QueryPrefix string
	QuerySuffix string
	// Heading starts the formatted block, e.g. "Latest AI/ML News".
	Heading string
	// NoResults is returned verbatim when the collaborator finds nothing.
	NoResults    string
	MaxResults   int
	SummaryChars int
}

// NewSearchTool wraps client as a Descriptor. The tool only enriches the query,
// forwards it and formats whatever comes back.
func NewSearchTool(cfg AdapterConfig, client search.Client) Descriptor {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if cfg.SummaryChars <= 0 {
		cfg.SummaryChars = DefaultSummaryChars
	}
	if strings.TrimSpace(cfg.NoResults) == "" {
		cfg.NoResults = fmt.Sprintf("No results found for your query using %s.", cfg.Name)
	}

	return Descriptor{
		Name:        cfg.Name,
		Description: cfg.Description,
		Invoke: func(ctx context.Context, query string) (string, error) {
			results, err := client.Search(ctx, EnrichQuery(cfg.QueryPrefix, query, cfg.QuerySuffix), cfg.MaxResults)
			if err != nil {
				return "", err
			}
			return FormatResults(cfg.Heading, cfg.NoResults, results, cfg.SummaryChars), nil
		},
	}
}

// EnrichQuery joins the non-empty parts with single spaces.
func EnrichQuery(prefix, query, suffix string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{prefix, query, suffix} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// FormatResults renders results as a numbered block. An empty result set yields
// noResults so callers always get readable text.
func FormatResults(heading, noResults string, results []search.Result, summaryChars int) string {
	if len(results) == 0 {
		return noResults
	}

	var b strings.Builder
	if heading != "" {
		b.WriteString(heading)
		b.WriteString(":\n\n")
	}
	for i, r := range results {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, title)

		source := strings.TrimSpace(r.Source)
		if source == "" {
			source = "Unknown"
		}
		fmt.Fprintf(&b, "   Source: %s\n", source)

		if desc := strings.TrimSpace(r.Description); desc != "" {
			fmt.Fprintf(&b, "   Summary: %s\n", Truncate(desc, summaryChars))
		}
		if published := publishedDate(r.Published); published != "" {
			fmt.Fprintf(&b, "   Published: %s\n", published)
		}
		if u := strings.TrimSpace(r.URL); u != "" {
			fmt.Fprintf(&b, "   URL: %s\n", u)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Truncate shortens s to limit runes and marks the cut with "...".
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:limit]), " ") + "..."
}

// publishedDate keeps the YYYY-MM-DD prefix of ISO timestamps.
func publishedDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 10 && raw[4] == '-' && raw[7] == '-' {
		return raw[:10]
	}
	return raw
}
