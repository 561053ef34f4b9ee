package main

// Search builds the CLI and prints per-year agent-paper counts without
// running the agent conversation.
func Search() error {
	return runCLI("search")
}
