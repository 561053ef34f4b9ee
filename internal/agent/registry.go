// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"encoding/json"

	"github.com/pdiddy/arxiv-trends/internal/anthropic"
)

// Handler executes one local tool call and returns the serialized result
// payload. A returned error becomes an error tool result in the
// conversation, never a crash.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Registry holds the capabilities declared to the model: server-side tools
// the platform executes itself, and local tools this process handles.
type Registry struct {
	server  []anthropic.Tool
	local   map[string]localTool
	ordered []string
}

type localTool struct {
	def    anthropic.Tool
	handle Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{local: make(map[string]localTool)}
}

// RegisterServer declares a platform-executed capability.
func (r *Registry) RegisterServer(def anthropic.Tool) {
	r.server = append(r.server, def)
}

// RegisterLocal declares a locally handled tool. Registering the same name
// twice replaces the earlier handler.
func (r *Registry) RegisterLocal(def anthropic.Tool, h Handler) {
	if _, ok := r.local[def.Name]; !ok {
		r.ordered = append(r.ordered, def.Name)
	}
	r.local[def.Name] = localTool{def: def, handle: h}
}

// Tools returns the declaration list for a request: server capabilities
// first, then local tools in registration order.
func (r *Registry) Tools() []anthropic.Tool {
	tools := make([]anthropic.Tool, 0, len(r.server)+len(r.ordered))
	tools = append(tools, r.server...)
	for _, name := range r.ordered {
		tools = append(tools, r.local[name].def)
	}
	return tools
}

// handler returns the handler registered for a local tool name.
func (r *Registry) handler(name string) (Handler, bool) {
	lt, ok := r.local[name]
	if !ok {
		return nil, false
	}
	return lt.handle, true
}
