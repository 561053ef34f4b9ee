// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/arxiv-trends/internal/anthropic"
	"github.com/pdiddy/arxiv-trends/internal/search"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// SearchToolName is the local tool the model calls for per-year paper counts.
const SearchToolName = "search_and_filter_papers"

// minPlausibleYear rejects years before electronic preprints existed.
const minPlausibleYear = 1991

// searchToolSchema describes the tool's arguments to the model.
var searchToolSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"year": {
			"type": "integer",
			"description": "Publication year to search"
		},
		"max_results": {
			"type": "integer",
			"description": "Maximum number of papers to fetch",
			"default": 200
		}
	},
	"required": ["year"]
}`)

// CodeExecutionTool is the server-side sandbox capability declaration. The
// platform runs it; this process only passes the declaration through.
func CodeExecutionTool() anthropic.Tool {
	return anthropic.Tool{Type: "code_execution_20250825", Name: "code_execution"}
}

// SearchTool bridges the model's search_and_filter_papers calls to the paper
// source and collects the aggregates the run produced.
type SearchTool struct {
	searcher search.Searcher
	cfg      types.SearchConfig
	log      logrus.FieldLogger

	collected []types.YearAggregate
}

// NewSearchTool binds the tool to a searcher.
func NewSearchTool(searcher search.Searcher, cfg types.SearchConfig, log logrus.FieldLogger) *SearchTool {
	return &SearchTool{searcher: searcher, cfg: cfg, log: log}
}

// Definition returns the tool declaration sent to the model.
func (t *SearchTool) Definition() anthropic.Tool {
	return anthropic.Tool{
		Name:        SearchToolName,
		Description: "Search arXiv papers for one year and count agent-related matches. Returns counts only, never paper content.",
		InputSchema: searchToolSchema,
	}
}

// searchArgs is the argument shape the model sends.
type searchArgs struct {
	Year       *int `json:"year"`
	MaxResults int  `json:"max_results"`
}

// Handle validates the arguments, runs the search, and returns the aggregate
// as compact JSON. Argument problems come back as errors, which the
// dispatcher turns into error results the model sees. Search failures are
// absorbed into a zero-count aggregate so the run continues with other
// years.
func (t *SearchTool) Handle(ctx context.Context, input json.RawMessage) (string, error) {
	var args searchArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("malformed arguments: %w", err)
	}
	if args.Year == nil {
		return "", fmt.Errorf("malformed arguments: year is required")
	}
	year := *args.Year
	if year < minPlausibleYear || year > time.Now().Year()+1 {
		return "", fmt.Errorf("malformed arguments: year %d outside plausible range", year)
	}

	limit := t.cfg.MaxResults
	if limit <= 0 {
		limit = search.DefaultMaxResults
	}
	maxResults := args.MaxResults
	if maxResults <= 0 || maxResults > limit {
		maxResults = limit
	}

	query := types.PaperQuery{
		Year:       year,
		Categories: t.cfg.Categories,
		Keywords:   t.cfg.Keywords,
		MaxResults: maxResults,
	}

	agg, err := t.searcher.SearchAndFilter(ctx, query)
	if err != nil {
		// Recoverable: report zero counts for the year and keep going.
		t.log.WithField("year", year).WithError(err).Warn("search failed; reporting zero counts")
		agg = types.YearAggregate{Year: year}
	}
	t.collected = append(t.collected, agg)

	payload, err := json.Marshal(agg)
	if err != nil {
		return "", fmt.Errorf("serializing aggregate: %w", err)
	}
	return string(payload), nil
}

// Collected returns the aggregates gathered so far, in call order.
func (t *SearchTool) Collected() []types.YearAggregate {
	return t.collected
}
