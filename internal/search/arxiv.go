// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-trends/internal/httputil"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// fetchPapers queries the arXiv API for papers submitted during query.Year in
// query.Categories and returns up to maxResults records, newest first.
func fetchPapers(ctx context.Context, client *http.Client, query types.PaperQuery, cfg types.SearchConfig) ([]types.PaperRecord, error) {
	q := buildArxivQuery(query.Year, query.Categories)

	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = cfg.MaxResults
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	url := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		arxivAPIBase, q, maxResults)

	resp, err := httputil.Get(ctx, client, url, cfg.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	records := make([]types.PaperRecord, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		rec := types.PaperRecord{
			Title:   strings.TrimSpace(entry.Title),
			Summary: strings.TrimSpace(entry.Summary),
			Link:    strings.TrimSpace(entry.ID),
		}

		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			rec.Published = t
		}

		for _, c := range entry.Categories {
			if c.Term != "" {
				rec.Categories = append(rec.Categories, c.Term)
			}
		}

		records = append(records, rec)
	}

	// The API honors max_results, but cap locally as well.
	if len(records) > maxResults {
		records = records[:maxResults]
	}
	return records, nil
}

// buildArxivQuery constructs the search_query parameter for one year's
// search. Multiple categories are OR'd together; the submission window spans
// the full year. The arXiv API reads + as a space.
//
// Example: (cat:cs.AI+OR+cat:cs.MA)+AND+submittedDate:[20240101+TO+20241231]
func buildArxivQuery(year int, categories []string) string {
	var cats []string
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c != "" {
			cats = append(cats, "cat:"+c)
		}
	}

	window := fmt.Sprintf("submittedDate:[%d0101+TO+%d1231]", year, year)
	switch len(cats) {
	case 0:
		return window
	case 1:
		return cats[0] + "+AND+" + window
	default:
		return "(" + strings.Join(cats, "+OR+") + ")+AND+" + window
	}
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Categories []arxivCategory `xml:"category"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}
