// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the arXiv API and reduces the matches to per-year
// counts.
//
// The adapter exposes aggregates only: raw paper records stay inside this
// package so the reasoning-agent conversation never grows with paper
// content.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// DefaultMaxResults caps fetched papers per year when the configuration
// leaves MaxResults unset.
const DefaultMaxResults = 200

// Searcher produces a per-year aggregate for one paper query.
type Searcher interface {
	SearchAndFilter(ctx context.Context, query types.PaperQuery) (types.YearAggregate, error)
}

// ArxivSearcher implements Searcher against the arXiv API.
type ArxivSearcher struct {
	Client *http.Client
	Config types.SearchConfig
	Log    logrus.FieldLogger
}

// NewArxivSearcher returns a searcher using client for arXiv requests.
func NewArxivSearcher(client *http.Client, cfg types.SearchConfig, log logrus.FieldLogger) *ArxivSearcher {
	return &ArxivSearcher{Client: client, Config: cfg, Log: log}
}

// SearchAndFilter fetches papers submitted during query.Year and counts
// keyword matches. On any fetch or decode failure it returns a zero-count
// aggregate for the year together with the error; the caller logs the error
// and the run continues with other years.
func (s *ArxivSearcher) SearchAndFilter(ctx context.Context, query types.PaperQuery) (types.YearAggregate, error) {
	s.Log.WithFields(logrus.Fields{
		"year":        query.Year,
		"categories":  query.Categories,
		"max_results": query.MaxResults,
	}).Info("searching arXiv")

	started := time.Now()
	records, err := fetchPapers(ctx, s.Client, query, s.Config)
	if err != nil {
		return types.YearAggregate{Year: query.Year}, fmt.Errorf("searching year %d: %w", query.Year, err)
	}

	agg := Aggregate(query.Year, records, query.Keywords)

	s.Log.WithFields(logrus.Fields{
		"year":         agg.Year,
		"total_papers": agg.TotalPapers,
		"agent_papers": agg.AgentPapers,
		"duration_ms":  time.Since(started).Milliseconds(),
	}).Info("search complete")

	// Pause between queries so back-to-back years stay polite to the API.
	if s.Config.QueryDelay > 0 {
		time.Sleep(s.Config.QueryDelay)
	}

	return agg, nil
}

// FormatTable writes aggregates as a human-readable table to w.
func FormatTable(aggs []types.YearAggregate, w io.Writer) {
	if len(aggs) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}

	fmt.Fprintf(w, "%-6s  %-12s  %-12s  %s\n", "Year", "Total", "Agent", "Share")
	fmt.Fprintln(w, strings.Repeat("-", 42))

	for _, a := range aggs {
		share := 0.0
		if a.TotalPapers > 0 {
			share = float64(a.AgentPapers) / float64(a.TotalPapers) * 100
		}
		fmt.Fprintf(w, "%-6d  %-12d  %-12d  %.1f%%\n", a.Year, a.TotalPapers, a.AgentPapers, share)
	}

	fmt.Fprintf(w, "\n%d year(s)\n", len(aggs))
}

// FormatJSON writes aggregates as indented JSON to w.
func FormatJSON(aggs []types.YearAggregate, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(aggs)
}
