// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// instructionTmpl is the opening instruction for the trend-analysis
// conversation. It pins down the tool-call plan, the chart rendering step,
// and the exact report format the run expects back.
var instructionTmpl = template.Must(template.New("instruction").Parse(`Task: analyze the growth of agent research in arXiv {{.Categories}} papers from {{.YearFrom}} to {{.YearTo}}.

For each year, measure how many of the newest {{.MaxResults}} {{.Categories}} papers are agent-related. A paper counts as agent-related when its title or abstract mentions any of: {{.Keywords}}.

Steps:
1. Call the {{.ToolName}} tool once per year, from {{.YearFrom}} through {{.YearTo}}. Each call returns a count summary like {"year": {{.YearFrom}}, "total_papers": 200, "agent_papers": 10}.
2. {{if .CodeExecution}}Use code execution to turn the per-year counts into an ASCII bar chart: compute each year's agent share with numpy and draw the bars with the █ character.{{else}}Lay out the per-year counts as a markdown table.{{end}}
3. Write the final report in markdown:
   - one "## <year>" section per year giving the total, the agent-related count, and the share
   - a closing "## Trend" section comparing the years and naming the direction of change
   - the chart inside a fenced code block

Reply with only the markdown report, no surrounding commentary.`))

// instructionData feeds the instruction template.
type instructionData struct {
	YearFrom      int
	YearTo        int
	Categories    string
	Keywords      string
	MaxResults    int
	ToolName      string
	CodeExecution bool
}

// BuildInstruction renders the initial instruction for an analysis run.
func BuildInstruction(cfg types.AnalysisConfig) (string, error) {
	data := instructionData{
		YearFrom:      cfg.YearFrom,
		YearTo:        cfg.YearTo,
		Categories:    strings.Join(cfg.Search.Categories, ", "),
		Keywords:      strings.Join(cfg.Search.Keywords, ", "),
		MaxResults:    cfg.Search.MaxResults,
		ToolName:      SearchToolName,
		CodeExecution: cfg.Agent.CodeExecution,
	}

	var buf bytes.Buffer
	if err := instructionTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering instruction: %w", err)
	}
	return buf.String(), nil
}
