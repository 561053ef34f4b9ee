package main

// Analyze builds the CLI and runs the full agent-driven trend analysis
// with default settings.
func Analyze() error {
	return runCLI("analyze")
}
