// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package anthropic is a minimal client for the Anthropic Messages API,
// covering what the trend-analysis conversation needs: tool declarations,
// multi-turn histories with tool results, and the code execution beta.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/arxiv-trends/internal/httputil"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// messagesAPIBase is the Messages API endpoint. Package-level var for test
// substitution.
var messagesAPIBase = "https://api.anthropic.com/v1/messages"

const (
	apiVersion = "2023-06-01"

	// betaAdvancedToolUse unlocks the server-side code execution tool.
	betaAdvancedToolUse = "advanced-tool-use-2025-11-20"
)

// Client sends Messages API requests. Each call is a single attempt bounded
// by the HTTP client's timeout; a failed call surfaces as an error the
// caller treats as fatal for the run.
type Client struct {
	apiKey     string
	model      string
	maxTokens  int
	betas      []string
	userAgent  string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewClient builds a client from the agent configuration.
func NewClient(cfg types.AgentConfig, log logrus.FieldLogger) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		userAgent:  cfg.UserAgent,
		httpClient: httputil.NewClient(cfg.HTTPConfig),
		log:        log,
	}
	if cfg.CodeExecution {
		c.betas = append(c.betas, betaAdvancedToolUse)
	}
	return c
}

// Messages sends the conversation history with the declared tools and
// returns the decoded response.
func (c *Client) Messages(ctx context.Context, msgs []Message, tools []Tool) (*MessagesResponse, error) {
	reqBody := MessagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Tools:     tools,
		Messages:  msgs,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"model":      c.model,
		"messages":   len(msgs),
		"body_bytes": len(bodyBytes),
	}).Debug("sending messages request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, messagesAPIBase, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if len(c.betas) > 0 {
		req.Header.Set("anthropic-beta", strings.Join(c.betas, ","))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling messages API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope errorEnvelope
		if jsonErr := json.Unmarshal(respBody, &envelope); jsonErr == nil && envelope.Error.Message != "" {
			envelope.Error.StatusCode = resp.StatusCode
			return nil, &envelope.Error
		}
		return nil, fmt.Errorf("messages API returned HTTP %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var mResp MessagesResponse
	if err := json.Unmarshal(respBody, &mResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if err := mResp.decodeBlocks(); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"stop_reason":   mResp.StopReason,
		"blocks":        len(mResp.Blocks),
		"input_tokens":  mResp.Usage.InputTokens,
		"output_tokens": mResp.Usage.OutputTokens,
	}).Info("messages response received")

	return &mResp, nil
}

// truncate shortens s for error messages and logs.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
