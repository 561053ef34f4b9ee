// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the arxiv-trends pipeline.
package types

import "time"

// ReportDocument is the final analysis artifact.
type ReportDocument struct {
	// Markdown is the report body. Empty means the run produced no usable
	// output and the persister writes the fallback document instead.
	Markdown string `json:"markdown" yaml:"markdown"`

	// GeneratedAt is when the run finished.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}

// RunRecord is one archived analysis run. Only metadata and per-year counts
// are recorded; paper content and conversation state are never archived.
type RunRecord struct {
	// ID is the run's UUID.
	ID string `json:"id" yaml:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// YearFrom and YearTo bound the analyzed year range.
	YearFrom int `json:"year_from" yaml:"year_from"`
	YearTo   int `json:"year_to" yaml:"year_to"`

	// Model is the reasoning-agent model the run used.
	Model string `json:"model" yaml:"model"`

	// Turns is the number of conversation turns consumed.
	Turns int `json:"turns" yaml:"turns"`

	// Fallback reports whether the fallback document was written instead
	// of an agent-generated report.
	Fallback bool `json:"fallback" yaml:"fallback"`

	// ReportPath is where the report was written.
	ReportPath string `json:"report_path" yaml:"report_path"`

	// Aggregates holds the per-year counts collected during the run.
	Aggregates []YearAggregate `json:"aggregates,omitempty" yaml:"aggregates,omitempty"`
}
