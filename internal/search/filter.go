// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// MatchesAny reports whether any keyword occurs in the record's title or
// abstract, case-insensitively. An empty keyword list matches every record,
// so filtering with no keywords counts all papers as agent-related.
func MatchesAny(rec types.PaperRecord, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	text := strings.ToLower(rec.Title + " " + rec.Summary)
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Aggregate counts keyword matches across one year's records. The result
// satisfies 0 <= AgentPapers <= TotalPapers by construction.
func Aggregate(year int, records []types.PaperRecord, keywords []string) types.YearAggregate {
	agg := types.YearAggregate{Year: year, TotalPapers: len(records)}
	for _, rec := range records {
		if MatchesAny(rec, keywords) {
			agg.AgentPapers++
		}
	}
	return agg
}
