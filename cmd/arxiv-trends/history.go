// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-trends/internal/archive"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived analysis runs",
	Long: `History lists runs recorded in the archive database, newest first,
with the per-year counts each run collected. Runs that fell back to the
deterministic report are marked.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", archive.DefaultListLimit, "maximum runs to list")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")
	historyCmd.Flags().String("archive-dir", defaultArchiveDir, "archive database directory")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("archive-dir")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := archive.Open(types.ArchiveConfig{Dir: dir})
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRuns(runs, jsonOutput)
}

func formatRuns(runs []types.RunRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-17s  %-10s  %-6s  %-22s  %s\n",
		"Run", "Started", "Years", "Turns", "Report", "Counts")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 96))

	for _, r := range runs {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		reportPath := r.ReportPath
		if len(reportPath) > 22 {
			reportPath = reportPath[:19] + "..."
		}
		if r.Fallback {
			reportPath += " (fallback)"
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-17s  %-10s  %-6d  %-22s  %s\n",
			id, r.StartedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d-%d", r.YearFrom, r.YearTo),
			r.Turns, reportPath, formatCounts(r.Aggregates))
	}

	fmt.Fprintf(os.Stdout, "\n%d run(s)\n", len(runs))
	return nil
}

// formatCounts renders aggregates as "year: agent/total" pairs.
func formatCounts(aggs []types.YearAggregate) string {
	if len(aggs) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(aggs))
	for _, a := range aggs {
		parts = append(parts, fmt.Sprintf("%d: %d/%d", a.Year, a.AgentPapers, a.TotalPapers))
	}
	return strings.Join(parts, ", ")
}
