package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
// Every outbound call is a single attempt bounded by Timeout; nothing in the
// pipeline retries.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout, covering the full exchange.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "arxiv-trends/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the paper search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Categories are the arXiv categories to search (e.g. "cs.AI").
	Categories []string `json:"categories" yaml:"categories"`

	// Keywords mark a paper as agent-related when any of them appears in
	// its title or abstract, case-insensitively. An empty list matches
	// every paper.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// MaxResults is the maximum number of papers fetched per year (default 200).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// QueryDelay is the pause after each arXiv query (default 1s).
	QueryDelay time.Duration `json:"query_delay" yaml:"query_delay"`
}

// AgentConfig holds settings for the reasoning-agent conversation.
type AgentConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the Messages API. It is resolved from
	// .secrets/ or the environment, never from the config file.
	APIKey string `json:"-" yaml:"-"`

	// MaxTokens caps the tokens generated per response (default 10000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxTurns caps the conversation length. A run that exhausts the
	// budget without a final answer falls back to the deterministic
	// report (default 20).
	MaxTurns int `json:"max_turns" yaml:"max_turns"`

	// CodeExecution declares the platform's sandboxed code-execution
	// capability so the model can render charts (default true).
	CodeExecution bool `json:"code_execution" yaml:"code_execution"`
}

// ReportConfig holds settings for report persistence.
type ReportConfig struct {
	// OutputPath is the destination markdown file, overwritten on every run.
	OutputPath string `json:"output_path" yaml:"output_path"`
}

// ArchiveConfig holds settings for the run archive.
type ArchiveConfig struct {
	// Enabled controls whether finished runs are recorded (default true).
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir is the directory holding the archive database (default "archive").
	Dir string `json:"dir" yaml:"dir"`
}

// LogConfig holds settings for the run logger.
type LogConfig struct {
	// Level is the minimum level to emit: debug, info, warn, or error.
	Level string `json:"level" yaml:"level"`

	// File is a log file written in addition to stderr. Empty disables it.
	File string `json:"file" yaml:"file"`
}

// AnalysisConfig groups all stage configurations for one analysis run.
type AnalysisConfig struct {
	// YearFrom and YearTo bound the inclusive year range to analyze.
	YearFrom int `json:"year_from" yaml:"year_from"`
	YearTo   int `json:"year_to" yaml:"year_to"`

	Search  SearchConfig  `json:"search" yaml:"search"`
	Agent   AgentConfig   `json:"agent" yaml:"agent"`
	Report  ReportConfig  `json:"report" yaml:"report"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
	Log     LogConfig     `json:"log" yaml:"log"`
}
