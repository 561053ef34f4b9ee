package main

// History builds the CLI and lists archived analysis runs.
func History() error {
	return runCLI("history")
}
