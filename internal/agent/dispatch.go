// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/arxiv-trends/internal/anthropic"
)

// EventKind classifies a response content block for dispatch. The set is
// closed: local tool invocations run here, server capability invocations
// pass through untouched, and text is a terminal-answer candidate.
type EventKind int

const (
	// EventText is assistant text, a candidate final answer.
	EventText EventKind = iota

	// EventLocalTool requests a locally registered tool.
	EventLocalTool

	// EventServerTool reports a platform-executed capability. Nothing is
	// dispatched locally for it.
	EventServerTool
)

// Event is one dispatchable item extracted from a response.
type Event struct {
	Kind   EventKind
	CallID string
	Name   string
	Input  json.RawMessage
	Text   string
}

// ToolResult is the outcome of one local tool call, keyed by the call id the
// model issued so results correlate even when several calls arrive in one
// batch.
type ToolResult struct {
	CallID  string
	Content string
	IsError bool
}

// Block converts the result into a tool_result content block.
func (tr ToolResult) Block() anthropic.ContentBlock {
	return anthropic.TextResult(tr.CallID, tr.Content, tr.IsError)
}

// Classify maps response content blocks onto dispatch events, preserving
// block order. Block types outside the closed set (code-execution results,
// future additions) carry no dispatch action and are skipped.
func Classify(blocks []anthropic.ContentBlock) []Event {
	var events []Event
	for _, b := range blocks {
		switch b.Type {
		case anthropic.BlockText:
			events = append(events, Event{Kind: EventText, Text: b.Text})
		case anthropic.BlockToolUse:
			events = append(events, Event{Kind: EventLocalTool, CallID: b.ID, Name: b.Name, Input: b.Input})
		case anthropic.BlockServerToolUse:
			events = append(events, Event{Kind: EventServerTool, CallID: b.ID, Name: b.Name, Input: b.Input})
		}
	}
	return events
}

// Dispatcher routes local tool invocations to registry handlers.
type Dispatcher struct {
	registry *Registry
	log      logrus.FieldLogger
}

// NewDispatcher returns a dispatcher over the registry.
func NewDispatcher(registry *Registry, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{registry: registry, log: log}
}

// Dispatch handles one event. It returns a ToolResult and true for local
// tool invocations. Unknown tools and handler failures become error results
// the model can recover from, never a crash. Text and server-capability
// events produce no local result.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (ToolResult, bool) {
	switch ev.Kind {
	case EventLocalTool:
		return d.dispatchLocal(ctx, ev), true
	case EventServerTool:
		d.log.WithFields(logrus.Fields{
			"tool":    ev.Name,
			"call_id": ev.CallID,
		}).Info("server capability invoked; no local dispatch")
		return ToolResult{}, false
	default:
		return ToolResult{}, false
	}
}

func (d *Dispatcher) dispatchLocal(ctx context.Context, ev Event) ToolResult {
	handle, ok := d.registry.handler(ev.Name)
	if !ok {
		d.log.WithField("tool", ev.Name).Warn("unsupported tool requested")
		return ToolResult{
			CallID:  ev.CallID,
			Content: fmt.Sprintf("unsupported tool: %s", ev.Name),
			IsError: true,
		}
	}

	d.log.WithFields(logrus.Fields{
		"tool":    ev.Name,
		"call_id": ev.CallID,
		"input":   truncateJSON(ev.Input, 200),
	}).Info("dispatching tool call")

	payload, err := handle(ctx, ev.Input)
	if err != nil {
		d.log.WithField("tool", ev.Name).WithError(err).Warn("tool call failed")
		return ToolResult{CallID: ev.CallID, Content: err.Error(), IsError: true}
	}
	return ToolResult{CallID: ev.CallID, Content: payload}
}

// truncateJSON renders raw JSON for logging, shortened to max bytes.
func truncateJSON(raw json.RawMessage, max int) string {
	s := string(raw)
	if len(s) > max {
		s = s[:max-3] + "..."
	}
	return s
}
