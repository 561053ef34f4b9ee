package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-trends/internal/httputil"
	"github.com/pdiddy/arxiv-trends/internal/logging"
	"github.com/pdiddy/arxiv-trends/internal/search"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Count agent-related arXiv papers per year without the agent",
	Long: `Search queries arXiv directly and prints the per-year counts that the
analyze command would hand to Claude. A year whose query fails is reported
with zero counts; the other years still run.

Use --save to write the resolved settings and counts to a plan file that
analyze and search accept via --plan.`,
	RunE: runSearch,
}

func init() {
	addSearchFlags(searchCmd)

	searchCmd.Flags().Bool("json", false, "output counts as JSON")
	searchCmd.Flags().String("save", "", "write settings and counts to this plan file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := analysisConfig(cmd)
	if err != nil {
		return err
	}

	log, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	searcher := search.NewArxivSearcher(httputil.NewClient(cfg.Search.HTTPConfig), cfg.Search, log)

	ctx := context.Background()
	var aggs []types.YearAggregate
	for year := cfg.YearFrom; year <= cfg.YearTo; year++ {
		query := types.PaperQuery{
			Year:       year,
			Categories: cfg.Search.Categories,
			Keywords:   cfg.Search.Keywords,
			MaxResults: cfg.Search.MaxResults,
		}
		agg, err := searcher.SearchAndFilter(ctx, query)
		if err != nil {
			log.Warnf("search failed for year %d: %v", year, err)
		}
		aggs = append(aggs, agg)
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		plan := search.PlanFromRun(*cfg, aggs)
		if err := search.WritePlanFile(savePath, plan); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Plan written to %s\n", savePath)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(aggs, os.Stdout)
	}
	search.FormatTable(aggs, os.Stdout)
	return nil
}
