// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report persists the final analysis artifact. A run always leaves a
// well-formed markdown file at the destination: the agent's report verbatim
// when one was produced, a fixed fallback document otherwise.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// FallbackHeader opens the fallback document. Callers can use it to tell a
// fallback artifact apart from a real report.
const FallbackHeader = "# arXiv Trend Report"

const fallbackNote = "No report was produced by this run. The conversation ended without a\nmarkdown result; see the run log for details.\n"

// Fallback returns the fixed document written when a run yields no report.
func Fallback() string {
	return FallbackHeader + "\n\n" + fallbackNote
}

// Persist writes the report to path, creating parent directories as needed.
// A report with no content is replaced by the fallback document so the
// destination always holds a non-empty file. Existing content is overwritten.
func Persist(doc types.ReportDocument, path string) error {
	content := doc.Markdown
	if strings.TrimSpace(content) == "" {
		content = Fallback()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
