// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// PlanFile is the on-disk representation of an analysis plan and, after a
// run, its per-year results. The researcher can pin down a year range,
// category set, and keyword list in a file and rerun the same analysis later.
type PlanFile struct {
	Years      PlanYears             `yaml:"years"`
	Categories []string              `yaml:"categories,omitempty"`
	Keywords   []string              `yaml:"keywords,omitempty"`
	MaxResults int                   `yaml:"max_results,omitempty"`
	Results    []types.YearAggregate `yaml:"results,omitempty"`
	Summary    *PlanSummary          `yaml:"summary,omitempty"`
}

// PlanYears bounds the inclusive year range.
type PlanYears struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// PlanSummary stores totals across all years and a timestamp.
type PlanSummary struct {
	TotalPapers int       `yaml:"total_papers"`
	AgentPapers int       `yaml:"agent_papers"`
	Timestamp   time.Time `yaml:"timestamp"`
}

// Validate checks the plan's year range. Years may be omitted entirely (the
// configured range applies), but a half-set or inverted range is an error.
func (p *PlanFile) Validate() error {
	if (p.Years.From == 0) != (p.Years.To == 0) {
		return fmt.Errorf("years.from and years.to must be set together")
	}
	if p.Years.From != 0 && p.Years.To < p.Years.From {
		return fmt.Errorf("years.to %d precedes years.from %d", p.Years.To, p.Years.From)
	}
	return nil
}

// Apply overlays the plan onto an analysis configuration, leaving fields the
// plan does not set untouched.
func (p *PlanFile) Apply(cfg *types.AnalysisConfig) {
	if p.Years.From != 0 {
		cfg.YearFrom = p.Years.From
		cfg.YearTo = p.Years.To
	}
	if len(p.Categories) > 0 {
		cfg.Search.Categories = p.Categories
	}
	if len(p.Keywords) > 0 {
		cfg.Search.Keywords = p.Keywords
	}
	if p.MaxResults > 0 {
		cfg.Search.MaxResults = p.MaxResults
	}
}

// PlanFromRun captures a finished search run as a plan file, results
// included.
func PlanFromRun(cfg types.AnalysisConfig, aggs []types.YearAggregate) PlanFile {
	plan := PlanFile{
		Years:      PlanYears{From: cfg.YearFrom, To: cfg.YearTo},
		Categories: cfg.Search.Categories,
		Keywords:   cfg.Search.Keywords,
		MaxResults: cfg.Search.MaxResults,
		Results:    aggs,
	}

	summary := PlanSummary{Timestamp: time.Now()}
	for _, a := range aggs {
		summary.TotalPapers += a.TotalPapers
		summary.AgentPapers += a.AgentPapers
	}
	plan.Summary = &summary

	return plan
}

// WritePlanFile saves a plan and its results to a YAML file.
func WritePlanFile(path string, plan PlanFile) error {
	data, err := yaml.Marshal(&plan)
	if err != nil {
		return fmt.Errorf("marshaling plan file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadPlanFile loads a previously saved plan file from disk.
func ReadPlanFile(path string) (*PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	var plan PlanFile
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parsing plan file: %w", err)
	}
	return &plan, nil
}
