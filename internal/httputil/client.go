// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the stages that talk to
// external services.
//
// Every outbound request is a single bounded attempt: the client timeout is
// the only protection against a slow or unreachable service. Rate limits and
// transient failures surface to the caller as ordinary errors; nothing here
// retries.
package httputil

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// DefaultTimeout bounds requests when the configuration leaves Timeout unset.
const DefaultTimeout = 30 * time.Second

// NewClient returns an HTTP client whose timeout covers the full exchange,
// including reading the response body.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Get issues a single GET request carrying the tool's User-Agent header.
// The caller owns the response body.
func Get(ctx context.Context, client *http.Client, rawURL, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return client.Do(req)
}
