// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-trends/internal/search"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

const (
	defaultYearFrom      = 2020
	defaultYearTo        = 2025
	defaultQueryDelay    = 1 * time.Second
	defaultSearchTimeout = 30 * time.Second

	defaultModel        = "claude-sonnet-4-5-20250929"
	defaultMaxTokens    = 10000
	defaultMaxTurns     = 20
	defaultAgentTimeout = 5 * time.Minute

	defaultOutputPath = "output.md"
	defaultLogFile    = "arxiv-trends.log"
	defaultArchiveDir = "archive"
)

// defaultCategories and defaultKeywords define what counts as agent research
// when nothing else is configured.
var (
	defaultCategories = []string{"cs.AI"}
	defaultKeywords   = []string{"agent", "multi-agent", "agentic", "planning", "reasoning", "tool calling", "tool use"}
)

// Settings resolve in flag > config file > default order. The flag must have
// been explicitly set to win, so registered flag defaults never shadow the
// config file.

func stringSetting(cmd *cobra.Command, flag, key, fallback string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return fallback
}

func intSetting(cmd *cobra.Command, flag, key string, fallback int) int {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return fallback
}

func boolSetting(cmd *cobra.Command, flag, key string, fallback bool) bool {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetBool(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return fallback
}

func durationSetting(cmd *cobra.Command, flag, key string, fallback time.Duration) time.Duration {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetDuration(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return fallback
}

func stringSliceSetting(cmd *cobra.Command, flag, key string, fallback []string) []string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetStringSlice(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetStringSlice(key)
	}
	return fallback
}

// addSearchFlags registers the flags shared by the analyze and search
// commands.
func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().Int("from", defaultYearFrom, "first year of the range to analyze")
	cmd.Flags().Int("to", defaultYearTo, "last year of the range to analyze")
	cmd.Flags().StringSlice("categories", defaultCategories, "arXiv categories to search")
	cmd.Flags().StringSlice("keywords", defaultKeywords, "keywords marking a paper as agent-related")
	cmd.Flags().Int("max-results", search.DefaultMaxResults, "maximum papers fetched per year")
	cmd.Flags().Duration("query-delay", defaultQueryDelay, "pause after each arXiv query")
	cmd.Flags().Duration("search-timeout", defaultSearchTimeout, "HTTP timeout for arXiv queries")
	cmd.Flags().String("plan", "", "plan file overriding years, categories, and keywords")
	cmd.Flags().String("log-level", "info", "log level: debug, info, warn, or error")
	cmd.Flags().String("log-file", defaultLogFile, "log file written in addition to stderr (empty disables)")
}

// analysisConfig assembles the run configuration from flags, the config
// file, and defaults, then overlays the plan file when one is given.
func analysisConfig(cmd *cobra.Command) (*types.AnalysisConfig, error) {
	cfg := &types.AnalysisConfig{
		YearFrom: intSetting(cmd, "from", "years.from", defaultYearFrom),
		YearTo:   intSetting(cmd, "to", "years.to", defaultYearTo),
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   durationSetting(cmd, "search-timeout", "search.timeout", defaultSearchTimeout),
				UserAgent: userAgent(),
			},
			Categories: stringSliceSetting(cmd, "categories", "search.categories", defaultCategories),
			Keywords:   stringSliceSetting(cmd, "keywords", "search.keywords", defaultKeywords),
			MaxResults: intSetting(cmd, "max-results", "search.max_results", search.DefaultMaxResults),
			QueryDelay: durationSetting(cmd, "query-delay", "search.query_delay", defaultQueryDelay),
		},
		Report: types.ReportConfig{
			OutputPath: stringSetting(cmd, "output", "report.output_path", defaultOutputPath),
		},
		Archive: types.ArchiveConfig{
			Enabled: !boolSetting(cmd, "no-archive", "archive.disabled", false),
			Dir:     stringSetting(cmd, "archive-dir", "archive.dir", defaultArchiveDir),
		},
		Log: types.LogConfig{
			Level: stringSetting(cmd, "log-level", "log.level", "info"),
			File:  stringSetting(cmd, "log-file", "log.file", defaultLogFile),
		},
	}

	cfg.Agent = types.AgentConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   durationSetting(cmd, "agent-timeout", "agent.timeout", defaultAgentTimeout),
			UserAgent: userAgent(),
		},
		Model:         stringSetting(cmd, "model", "agent.model", defaultModel),
		MaxTokens:     intSetting(cmd, "max-tokens", "agent.max_tokens", defaultMaxTokens),
		MaxTurns:      intSetting(cmd, "max-turns", "agent.max_turns", defaultMaxTurns),
		CodeExecution: boolSetting(cmd, "code-execution", "agent.code_execution", true),
	}

	if planPath, _ := cmd.Flags().GetString("plan"); planPath != "" {
		plan, err := search.ReadPlanFile(planPath)
		if err != nil {
			return nil, err
		}
		if err := plan.Validate(); err != nil {
			return nil, fmt.Errorf("plan file %s: %w", planPath, err)
		}
		plan.Apply(cfg)
	}

	if cfg.YearFrom > cfg.YearTo {
		return nil, fmt.Errorf("year range inverted: from %d is after to %d", cfg.YearFrom, cfg.YearTo)
	}

	return cfg, nil
}
