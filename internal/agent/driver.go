// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent runs the reasoning-agent conversation. It declares the tool
// registry, drives the multi-turn exchange with the Messages API, and
// dispatches requested tool calls until the model produces a final report or
// a budget runs out.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/arxiv-trends/internal/anthropic"
)

// Messenger sends one request to the reasoning-agent API. Tests script
// entire conversations by substituting the real client.
type Messenger interface {
	Messages(ctx context.Context, msgs []anthropic.Message, tools []anthropic.Tool) (*anthropic.MessagesResponse, error)
}

// Result summarizes one conversation run. An empty Markdown means the run
// produced no usable report and the caller persists the fallback document.
type Result struct {
	Markdown string
	Turns    int
}

// Driver owns the conversation with the reasoning agent.
type Driver struct {
	client     Messenger
	registry   *Registry
	dispatcher *Dispatcher
	maxTurns   int
	log        logrus.FieldLogger
}

// NewDriver builds a driver over the client and registry.
func NewDriver(client Messenger, registry *Registry, maxTurns int, log logrus.FieldLogger) *Driver {
	return &Driver{
		client:     client,
		registry:   registry,
		dispatcher: NewDispatcher(registry, log),
		maxTurns:   maxTurns,
		log:        log,
	}
}

// Run sends the instruction and loops over responses until the model
// finishes, a budget is exhausted, or the API fails. API failures are fatal
// for the run and returned as errors. Budget exhaustion is a defined
// terminal state: an empty Result and no error.
func (d *Driver) Run(ctx context.Context, instruction string) (Result, error) {
	if d.maxTurns <= 0 {
		return Result{}, nil
	}

	tools := d.registry.Tools()
	messages := []anthropic.Message{anthropic.NewTextMessage("user", instruction)}

	var report string   // latest report-shaped text (contains a fenced block)
	var lastText string // latest non-empty text of any shape

	for turn := 1; turn <= d.maxTurns; turn++ {
		d.log.WithFields(logrus.Fields{
			"turn":     turn,
			"messages": len(messages),
		}).Info("requesting model response")

		started := time.Now()
		resp, err := d.client.Messages(ctx, messages, tools)
		if err != nil {
			return Result{Turns: turn}, fmt.Errorf("conversation turn %d: %w", turn, err)
		}
		d.log.WithFields(logrus.Fields{
			"turn":        turn,
			"stop_reason": resp.StopReason,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("model response received")

		events := Classify(resp.Blocks)

		if text := joinText(events); text != "" {
			lastText = text
			if strings.Contains(text, "```") {
				report = text
			}
		}

		switch resp.StopReason {
		case anthropic.StopEndTurn:
			return Result{Markdown: finalText(report, lastText), Turns: turn}, nil

		case anthropic.StopMaxTokens:
			d.log.Warn("token ceiling reached; returning partial output")
			return Result{Markdown: finalText(report, lastText), Turns: turn}, nil

		case anthropic.StopToolUse:
			results := d.dispatchAll(ctx, events)
			messages = append(messages, resp.AssistantMessage())
			// Server-only batches add no user message; the next request
			// just carries the assistant turn.
			if len(results) > 0 {
				msg, err := toolResultMessage(results)
				if err != nil {
					return Result{Turns: turn}, err
				}
				messages = append(messages, msg)
			}

		default:
			return Result{Turns: turn}, fmt.Errorf("unexpected stop reason %q", resp.StopReason)
		}
	}

	d.log.WithField("max_turns", d.maxTurns).Warn("turn budget exhausted without a final answer")
	return Result{Turns: d.maxTurns}, nil
}

// dispatchAll routes every event in block order and collects the local
// results, one per local invocation.
func (d *Driver) dispatchAll(ctx context.Context, events []Event) []ToolResult {
	var results []ToolResult
	for _, ev := range events {
		if res, ok := d.dispatcher.Dispatch(ctx, ev); ok {
			results = append(results, res)
		}
	}
	return results
}

// joinText concatenates the text events of one response.
func joinText(events []Event) string {
	var parts []string
	for _, ev := range events {
		if ev.Kind == EventText && strings.TrimSpace(ev.Text) != "" {
			parts = append(parts, ev.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// finalText prefers the report-shaped candidate over other assistant text.
func finalText(report, lastText string) string {
	if report != "" {
		return report
	}
	return lastText
}

// toolResultMessage packs results into a user message of tool_result blocks.
func toolResultMessage(results []ToolResult) (anthropic.Message, error) {
	blocks := make([]anthropic.ContentBlock, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, r.Block())
	}
	msg, err := anthropic.NewBlockMessage("user", blocks)
	if err != nil {
		return anthropic.Message{}, fmt.Errorf("building tool result message: %w", err)
	}
	return msg, nil
}
