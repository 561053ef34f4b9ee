// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxiv-trends CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-trends/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// anthropicAPIKey resolves the Anthropic API key, preferring the .secrets/
// directory over the environment.
func anthropicAPIKey() string {
	if v := loadedSecrets.Get(secrets.AnthropicAPIKey); v != "" {
		return v
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}

// userAgent identifies this build on outbound requests.
func userAgent() string {
	return "arxiv-trends/" + version
}

// rootCmd is the base command for the arxiv-trends CLI.
var rootCmd = &cobra.Command{
	Use:   "arxiv-trends",
	Short: "Claude-driven analysis of agent research trends on arXiv",
	Long: `arxiv-trends measures how much of recent arXiv output is about AI agents.
For each year in the requested range it counts how many of the newest papers
in the configured categories mention agent-related keywords, then has Claude
turn the per-year counts into a markdown trend report.

Use analyze for the full agent-driven run, search to query the counts
directly without the agent, and history to inspect archived runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; missing files are not an error.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./arxiv-trends.yaml or ~/.config/arxiv-trends/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("arxiv-trends")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "arxiv-trends"))
		}
	}

	viper.SetEnvPrefix("ARXIV_TRENDS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
