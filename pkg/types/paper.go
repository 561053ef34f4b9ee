// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PaperQuery describes one year's paper search. A query is immutable for the
// duration of an invocation.
type PaperQuery struct {
	// Year is the publication year to search.
	Year int `json:"year" yaml:"year"`

	// Categories are the arXiv categories to search within.
	Categories []string `json:"categories" yaml:"categories"`

	// Keywords classify matching papers as agent-related.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// MaxResults caps the number of papers fetched.
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PaperRecord is one paper as returned by the search API. Records feed the
// keyword filter and never cross the adapter boundary into the agent
// conversation.
type PaperRecord struct {
	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Summary is the paper abstract.
	Summary string `json:"summary" yaml:"summary"`

	// Link is the paper's abstract page URL.
	Link string `json:"link" yaml:"link"`

	// Published is the submission date.
	Published time.Time `json:"published" yaml:"published"`

	// Categories lists the arXiv categories the paper is filed under.
	Categories []string `json:"categories" yaml:"categories"`
}

// PublishedYear returns the paper's publication year, or 0 when unknown.
func (p PaperRecord) PublishedYear() int {
	if p.Published.IsZero() {
		return 0
	}
	return p.Published.Year()
}

// YearAggregate is the per-year count summary that crosses from local search
// into the agent's context. Raw paper content deliberately stays behind so
// the conversation never grows with abstracts.
type YearAggregate struct {
	// Year is the publication year the counts cover.
	Year int `json:"year" yaml:"year"`

	// TotalPapers is the number of papers fetched for the year.
	TotalPapers int `json:"total_papers" yaml:"total_papers"`

	// AgentPapers is the number of fetched papers matching the keyword
	// filter. Always between 0 and TotalPapers.
	AgentPapers int `json:"agent_papers" yaml:"agent_papers"`
}
