package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/arxiv-trends/internal/anthropic"
	"github.com/pdiddy/arxiv-trends/internal/logging"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// --- scripted messenger ---

// scriptedMessenger plays back canned responses and records every request it
// receives.
type scriptedMessenger struct {
	t         *testing.T
	responses []*anthropic.MessagesResponse
	errAt     int // 1-based call index that fails, 0 for never
	calls     int
	histories [][]anthropic.Message
	tools     [][]anthropic.Tool
}

func (m *scriptedMessenger) Messages(_ context.Context, msgs []anthropic.Message, tools []anthropic.Tool) (*anthropic.MessagesResponse, error) {
	m.calls++
	history := make([]anthropic.Message, len(msgs))
	copy(history, msgs)
	m.histories = append(m.histories, history)
	m.tools = append(m.tools, tools)

	if m.errAt != 0 && m.calls == m.errAt {
		return nil, &anthropic.APIError{StatusCode: 500, Type: "api_error", Message: "internal server error"}
	}
	if m.calls > len(m.responses) {
		m.t.Fatalf("unexpected call %d, only %d responses scripted", m.calls, len(m.responses))
	}
	return m.responses[m.calls-1], nil
}

func makeResponse(t *testing.T, stop anthropic.StopReason, blocks ...anthropic.ContentBlock) *anthropic.MessagesResponse {
	t.Helper()
	raw, err := json.Marshal(blocks)
	if err != nil {
		t.Fatalf("marshaling blocks: %v", err)
	}
	return &anthropic.MessagesResponse{
		RawContent: raw,
		StopReason: stop,
		Blocks:     blocks,
	}
}

func textBlock(text string) anthropic.ContentBlock {
	return anthropic.ContentBlock{Type: anthropic.BlockText, Text: text}
}

func toolUseBlock(id, name, input string) anthropic.ContentBlock {
	return anthropic.ContentBlock{Type: anthropic.BlockToolUse, ID: id, Name: name, Input: json.RawMessage(input)}
}

func serverToolBlock(id, input string) anthropic.ContentBlock {
	return anthropic.ContentBlock{Type: anthropic.BlockServerToolUse, ID: id, Name: "code_execution", Input: json.RawMessage(input)}
}

// decodeResultBlocks unpacks a user message of tool_result blocks.
func decodeResultBlocks(t *testing.T, msg anthropic.Message) []anthropic.ContentBlock {
	t.Helper()
	if msg.Role != "user" {
		t.Fatalf("message role = %q, want user", msg.Role)
	}
	var blocks []anthropic.ContentBlock
	if err := json.Unmarshal(msg.Content, &blocks); err != nil {
		t.Fatalf("decoding tool result message: %v", err)
	}
	return blocks
}

func newDriver(m Messenger, reg *Registry, maxTurns int) *Driver {
	return NewDriver(m, reg, maxTurns, logging.Discard())
}

const finalReport = "## 2024\n\nTotal: 5, agent-related: 1 (20.0%)\n\n## Trend\n\nGrowing.\n\n```\n2024 | ██ 20.0%\n```\n"

// --- terminal states ---

func TestDriverMaxTurnsZero(t *testing.T) {
	m := &scriptedMessenger{t: t}
	d := newDriver(m, NewRegistry(), 0)

	result, err := d.Run(context.Background(), "analyze")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Markdown != "" {
		t.Errorf("Markdown = %q, want empty", result.Markdown)
	}
	if m.calls != 0 {
		t.Errorf("messenger called %d times, want 0", m.calls)
	}
}

func TestDriverEndTurnReturnsText(t *testing.T) {
	m := &scriptedMessenger{t: t, responses: []*anthropic.MessagesResponse{
		makeResponse(t, anthropic.StopEndTurn, textBlock(finalReport)),
	}}
	d := newDriver(m, NewRegistry(), 20)

	result, err := d.Run(context.Background(), "analyze")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Markdown != finalReport {
		t.Errorf("Markdown = %q", result.Markdown)
	}
	if result.Turns != 1 {
		t.Errorf("Turns = %d, want 1", result.Turns)
	}
}

func TestDriverPrefersFencedReport(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterLocal(anthropic.Tool{Name: "ping"}, noopHandler)

	m := &scriptedMessenger{t: t, responses: []*anthropic.MessagesResponse{
		makeResponse(t, anthropic.StopToolUse,
			textBlock(finalReport),
			toolUseBlock("toolu_01", "ping", `{}`)),
		makeResponse(t, anthropic.StopEndTurn, textBlock("Done!")),
	}}
	d := newDriver(m, reg, 20)

	result, err := d.Run(context.Background(), "analyze")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The fenced text from the earlier turn wins over the closing remark.
	if result.Markdown != finalReport {
		t.Errorf("Markdown = %q, want the fenced report", result.Markdown)
	}
}

func TestDriverMaxTokensReturnsPartial(t *testing.T) {
	m := &scriptedMessenger{t: t, responses: []*anthropic.MessagesResponse{
		makeResponse(t, anthropic.StopMaxTokens, textBlock("## 2024\n\nTotal: 5")),
	}}
	d := newDriver(m, NewRegistry(), 20)

	result, err := d.Run(context.Background(), "analyze")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Markdown != "## 2024\n\nTotal: 5" {
		t.Errorf("Markdown = %q, want the partial text", result.Markdown)
	}
}

func TestDriverMaxTokensNoText(t *testing.T) {
	m := &scriptedMessenger{t: t, responses: []*anthropic.MessagesResponse{
		makeResponse(t, anthropic.StopMaxTokens),
	}}
	d := newDriver(m, NewRegistry(), 20)

	result, err := d.Run(context.Background(), "analyze")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Markdown != "" {
		t.Errorf("Markdown = %q, want empty", result.Markdown)
	}
}

func TestDriverAPIErrorIsFatal(t *testing.T) {
	m := &scriptedMessenger{t: t, errAt: 1}
	d := newDriver(m, NewRegistry(), 20)

	_, err := d.Run(context.Background(), "analyze")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "conversation turn 1") {
		t.Errorf("error should name the failing turn: %v", err)
	}
	var apiErr *anthropic.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("error should wrap the API error: %v", err)
	}
}

func TestDriverUnknownStopReason(t *testing.T) {
	m := &scriptedMessenger{t: t, responses: []*anthropic.MessagesResponse{
		makeResponse(t, anthropic.StopReason("pause_turn"), textBlock("hm")),
	}}
	d := newDriver(m, NewRegistry(), 20)

	_, err := d.Run(context.Background(), "analyze")
	if err == nil || !strings.Contains(err.Error(), "unexpected stop reason") {
		t.Errorf("expected unexpected-stop-reason error, got: %v", err)
	}
}

func TestDriverTurnBudgetExhausted(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterLocal(anthropic.Tool{Name: "ping"}, noopHandler)

	loop := makeResponse(t, anthropic.StopToolUse, toolUseBlock("toolu_01", "ping", `{}`))
	m := &scriptedMessenger{t: t, responses: []*anthropic.MessagesResponse{loop, loop, loop}}
	d := newDriver(m, reg, 3)

	result, err := d.Run(context.Background(), "analyze")
	if err != nil {
		t.Fatalf("budget exhaustion is not an error: %v", err)
	}
	if result.Markdown != "" {
		t.Errorf("Markdown = %q, want empty after exhaustion", result.Markdown)
	}
	if result.Turns != 3 {
		t.Errorf("Turns = %d, want 3", result.Turns)
	}
	if m.calls != 3 {
		t.Errorf("messenger called %d times, want exactly 3", m.calls)
	}
}

// --- history management ---

func TestDriverToolResultsCorrelate(t *testing.T) {
	searcher := &mockSearcher{byYear: map[int]types.YearAggregate{
		2024: {Year: 2024, TotalPapers: 5, AgentPapers: 1},
		2025: {Year: 2025, TotalPapers: 5, AgentPapers: 2},
	}}
	tool := newTestSearchTool(searcher)

	reg := NewRegistry()
	reg.RegisterLocal(tool.Definition(), tool.Handle)

	m := &scriptedMessenger{t: t, responses: []*anthropic.MessagesResponse{
		makeResponse(t, anthropic.StopToolUse,
			textBlock("Searching both years."),
			toolUseBlock("toolu_a", SearchToolName, `{"year": 2024}`),
			toolUseBlock("toolu_b", SearchToolName, `{"year": 2025}`)),
		makeResponse(t, anthropic.StopEndTurn, textBlock(finalReport)),
	}}
	d := newDriver(m, reg, 20)

	result, err := d.Run(context.Background(), "analyze")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Markdown != finalReport {
		t.Errorf("Markdown = %q", result.Markdown)
	}

	// Second call sees instruction, assistant turn, and tool results.
	if len(m.histories) != 2 {
		t.Fatalf("calls = %d, want 2", len(m.histories))
	}
	second := m.histories[1]
	if len(second) != 3 {
		t.Fatalf("second call history = %d messages, want 3", len(second))
	}
	if second[1].Role != "assistant" {
		t.Errorf("history[1].Role = %q, want assistant", second[1].Role)
	}

	blocks := decodeResultBlocks(t, second[2])
	if len(blocks) != 2 {
		t.Fatalf("tool result blocks = %d, want 2", len(blocks))
	}
	if blocks[0].ToolUseID != "toolu_a" || blocks[1].ToolUseID != "toolu_b" {
		t.Errorf("result ids = %q, %q; want toolu_a, toolu_b", blocks[0].ToolUseID, blocks[1].ToolUseID)
	}
	for _, b := range blocks {
		if b.Type != anthropic.BlockToolResult {
			t.Errorf("block type = %q", b.Type)
		}
		if b.IsError {
			t.Error("successful call produced an error result")
		}
	}
}

func TestDriverAssistantContentEchoedVerbatim(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterLocal(anthropic.Tool{Name: "ping"}, noopHandler)

	first := makeResponse(t, anthropic.StopToolUse,
		serverToolBlock("srvtoolu_01", `{"code": "print(1)"}`),
		toolUseBlock("toolu_01", "ping", `{}`))
	m := &scriptedMessenger{t: t, responses: []*anthropic.MessagesResponse{
		first,
		makeResponse(t, anthropic.StopEndTurn, textBlock("done")),
	}}
	d := newDriver(m, reg, 20)

	if _, err := d.Run(context.Background(), "analyze"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	second := m.histories[1]
	if string(second[1].Content) != string(first.RawContent) {
		t.Errorf("assistant content altered:\ngot  %s\nwant %s", second[1].Content, first.RawContent)
	}
}

func TestDriverServerOnlyBatchAddsNoUserMessage(t *testing.T) {
	m := &scriptedMessenger{t: t, responses: []*anthropic.MessagesResponse{
		makeResponse(t, anthropic.StopToolUse,
			textBlock("Rendering the chart."),
			serverToolBlock("srvtoolu_01", `{"code": "print(1)"}`)),
		makeResponse(t, anthropic.StopEndTurn, textBlock(finalReport)),
	}}
	d := newDriver(m, NewRegistry(), 20)

	result, err := d.Run(context.Background(), "analyze")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Markdown != finalReport {
		t.Errorf("Markdown = %q", result.Markdown)
	}

	// No local results, so the next request carries only the assistant turn.
	second := m.histories[1]
	if len(second) != 2 {
		t.Fatalf("second call history = %d messages, want 2", len(second))
	}
	if second[1].Role != "assistant" {
		t.Errorf("history[1].Role = %q", second[1].Role)
	}
}

func TestDriverUnknownToolBecomesErrorResult(t *testing.T) {
	m := &scriptedMessenger{t: t, responses: []*anthropic.MessagesResponse{
		makeResponse(t, anthropic.StopToolUse,
			toolUseBlock("toolu_91", "fetch_citations", `{"paper": "x"}`)),
		makeResponse(t, anthropic.StopEndTurn, textBlock(finalReport)),
	}}
	d := newDriver(m, NewRegistry(), 20)

	result, err := d.Run(context.Background(), "analyze")
	if err != nil {
		t.Fatalf("an unknown tool must not abort the run: %v", err)
	}
	if result.Markdown != finalReport {
		t.Errorf("Markdown = %q", result.Markdown)
	}

	blocks := decodeResultBlocks(t, m.histories[1][2])
	if len(blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(blocks))
	}
	if !blocks[0].IsError {
		t.Error("unknown tool result must set is_error")
	}
	if blocks[0].ToolUseID != "toolu_91" {
		t.Errorf("ToolUseID = %q, must match the request", blocks[0].ToolUseID)
	}

	var content string
	if err := json.Unmarshal(blocks[0].Content, &content); err != nil {
		t.Fatalf("decoding result content: %v", err)
	}
	if !strings.Contains(content, "unsupported tool: fetch_citations") {
		t.Errorf("content = %q", content)
	}
}

// --- end-to-end scenarios ---

func TestDriverFullAnalysisScenario(t *testing.T) {
	searcher := &mockSearcher{byYear: map[int]types.YearAggregate{
		2024: {Year: 2024, TotalPapers: 5, AgentPapers: 1},
		2025: {Year: 2025, TotalPapers: 5, AgentPapers: 2},
	}}
	tool := newTestSearchTool(searcher)

	reg := NewRegistry()
	reg.RegisterServer(CodeExecutionTool())
	reg.RegisterLocal(tool.Definition(), tool.Handle)

	report := "## 2024\n\n5 papers, 1 agent-related (20.0%)\n\n## 2025\n\n5 papers, 2 agent-related (40.0%)\n\n## Trend\n\nAgent share doubled.\n\n```\n2024 | ██ 20%\n2025 | ████ 40%\n```\n"
	m := &scriptedMessenger{t: t, responses: []*anthropic.MessagesResponse{
		makeResponse(t, anthropic.StopToolUse,
			textBlock("Starting with 2024."),
			toolUseBlock("toolu_01", SearchToolName, `{"year": 2024, "max_results": 200}`)),
		makeResponse(t, anthropic.StopToolUse,
			toolUseBlock("toolu_02", SearchToolName, `{"year": 2025, "max_results": 200}`)),
		makeResponse(t, anthropic.StopToolUse,
			serverToolBlock("srvtoolu_01", `{"code": "import numpy"}`)),
		makeResponse(t, anthropic.StopEndTurn, textBlock(report)),
	}}
	d := newDriver(m, reg, 20)

	result, err := d.Run(context.Background(), "analyze 2024-2025")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Markdown != report {
		t.Errorf("Markdown = %q", result.Markdown)
	}
	if result.Turns != 4 {
		t.Errorf("Turns = %d, want 4", result.Turns)
	}

	// Declared tools include the server capability first.
	decl := m.tools[0]
	if len(decl) != 2 || decl[0].Name != "code_execution" || decl[1].Name != SearchToolName {
		t.Errorf("declared tools = %+v", decl)
	}

	// Both years were searched and collected in call order.
	collected := tool.Collected()
	if len(collected) != 2 {
		t.Fatalf("collected = %d aggregates, want 2", len(collected))
	}
	if collected[0].Year != 2024 || collected[0].AgentPapers != 1 {
		t.Errorf("collected[0] = %+v", collected[0])
	}
	if collected[1].Year != 2025 || collected[1].AgentPapers != 2 {
		t.Errorf("collected[1] = %+v", collected[1])
	}

	// The 2024 result payload reached the model.
	blocks := decodeResultBlocks(t, m.histories[1][2])
	var payload string
	if err := json.Unmarshal(blocks[0].Content, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if payload != `{"year":2024,"total_papers":5,"agent_papers":1}` {
		t.Errorf("payload = %s", payload)
	}
}

func TestDriverContinuesWhenOneYearFails(t *testing.T) {
	searcher := &mockSearcher{
		byYear: map[int]types.YearAggregate{
			2024: {Year: 2024, TotalPapers: 5, AgentPapers: 1},
		},
		errYear: 2025,
	}
	tool := newTestSearchTool(searcher)

	reg := NewRegistry()
	reg.RegisterLocal(tool.Definition(), tool.Handle)

	report := "## Trend\n\n2025 data unavailable.\n\n```\nchart\n```\n"
	m := &scriptedMessenger{t: t, responses: []*anthropic.MessagesResponse{
		makeResponse(t, anthropic.StopToolUse,
			toolUseBlock("toolu_01", SearchToolName, `{"year": 2024}`),
			toolUseBlock("toolu_02", SearchToolName, `{"year": 2025}`)),
		makeResponse(t, anthropic.StopEndTurn, textBlock(report)),
	}}
	d := newDriver(m, reg, 20)

	result, err := d.Run(context.Background(), "analyze")
	if err != nil {
		t.Fatalf("a failing year must not abort the run: %v", err)
	}
	if result.Markdown != report {
		t.Errorf("Markdown = %q", result.Markdown)
	}

	// The failed year crossed the boundary as a zero-count success.
	blocks := decodeResultBlocks(t, m.histories[1][2])
	var payload string
	if err := json.Unmarshal(blocks[1].Content, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if payload != `{"year":2025,"total_papers":0,"agent_papers":0}` {
		t.Errorf("failed year payload = %s", payload)
	}
	if blocks[1].IsError {
		t.Error("absorbed search failure must not be an error result")
	}
}

