// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-trends/internal/agent"
	"github.com/pdiddy/arxiv-trends/internal/anthropic"
	"github.com/pdiddy/arxiv-trends/internal/archive"
	"github.com/pdiddy/arxiv-trends/internal/httputil"
	"github.com/pdiddy/arxiv-trends/internal/logging"
	"github.com/pdiddy/arxiv-trends/internal/report"
	"github.com/pdiddy/arxiv-trends/internal/search"
	"github.com/pdiddy/arxiv-trends/internal/secrets"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the Claude-driven trend analysis and write the report",
	Long: `Analyze counts agent-related papers per year through the arXiv search
tool, lets Claude reason over the per-year counts in a multi-turn
conversation, and writes the resulting markdown report. The report file is
always written: when the conversation produces no usable markdown, a fixed
fallback document takes its place.

The Anthropic API key is read from .secrets/anthropic-api-key or the
ANTHROPIC_API_KEY environment variable.`,
	RunE: runAnalyze,
}

func init() {
	addSearchFlags(analyzeCmd)

	analyzeCmd.Flags().String("model", defaultModel, "Claude model identifier")
	analyzeCmd.Flags().Int("max-tokens", defaultMaxTokens, "token cap per model response")
	analyzeCmd.Flags().Int("max-turns", defaultMaxTurns, "conversation turn budget")
	analyzeCmd.Flags().Bool("code-execution", true, "declare the code-execution capability for chart rendering")
	analyzeCmd.Flags().Duration("agent-timeout", defaultAgentTimeout, "HTTP timeout for Messages API calls")
	analyzeCmd.Flags().String("output", defaultOutputPath, "report destination path")
	analyzeCmd.Flags().Bool("no-archive", false, "skip recording the run in the archive")
	analyzeCmd.Flags().String("archive-dir", defaultArchiveDir, "archive database directory")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := analysisConfig(cmd)
	if err != nil {
		return err
	}

	log, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg.Agent.APIKey = anthropicAPIKey()
	if cfg.Agent.APIKey == "" {
		return fmt.Errorf("anthropic API key not set: add .secrets/%s or set ANTHROPIC_API_KEY", secrets.AnthropicAPIKey)
	}

	runID := uuid.NewString()
	runLog := log.WithField("run_id", runID)
	startedAt := time.Now().UTC()

	runLog.Infof("analyzing years %d-%d in %v", cfg.YearFrom, cfg.YearTo, cfg.Search.Categories)

	searcher := search.NewArxivSearcher(httputil.NewClient(cfg.Search.HTTPConfig), cfg.Search, runLog)
	searchTool := agent.NewSearchTool(searcher, cfg.Search, runLog)

	registry := agent.NewRegistry()
	if cfg.Agent.CodeExecution {
		registry.RegisterServer(agent.CodeExecutionTool())
	}
	registry.RegisterLocal(searchTool.Definition(), searchTool.Handle)

	client := anthropic.NewClient(cfg.Agent, runLog)
	driver := agent.NewDriver(client, registry, cfg.Agent.MaxTurns, runLog)

	instruction, err := agent.BuildInstruction(*cfg)
	if err != nil {
		return err
	}

	result, runErr := driver.Run(context.Background(), instruction)
	if runErr != nil {
		runLog.Errorf("conversation failed: %v", runErr)
	}

	// The destination is always written, fallback included.
	doc := types.ReportDocument{Markdown: result.Markdown, GeneratedAt: time.Now().UTC()}
	if err := report.Persist(doc, cfg.Report.OutputPath); err != nil {
		if runErr != nil {
			runLog.Errorf("persisting report: %v", err)
			return fmt.Errorf("analysis failed: %w", runErr)
		}
		return err
	}

	fallback := strings.TrimSpace(result.Markdown) == ""
	if fallback {
		fmt.Fprintf(os.Stdout, "No report produced; fallback written to %s\n", cfg.Report.OutputPath)
	} else {
		fmt.Fprintf(os.Stdout, "Report written to %s (%d turn(s))\n", cfg.Report.OutputPath, result.Turns)
	}

	if cfg.Archive.Enabled {
		rec := types.RunRecord{
			ID:         runID,
			StartedAt:  startedAt,
			YearFrom:   cfg.YearFrom,
			YearTo:     cfg.YearTo,
			Model:      cfg.Agent.Model,
			Turns:      result.Turns,
			Fallback:   fallback,
			ReportPath: cfg.Report.OutputPath,
			Aggregates: searchTool.Collected(),
		}
		if err := recordRun(rec, cfg.Archive); err != nil {
			runLog.Warnf("archiving run: %v", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("analysis failed: %w", runErr)
	}
	return nil
}

func recordRun(rec types.RunRecord, cfg types.ArchiveConfig) error {
	store, err := archive.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.RecordRun(context.Background(), rec)
}
