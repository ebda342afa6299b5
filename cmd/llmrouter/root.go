package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "llmrouter",
	Short: "Marketplace proxy for reselling LLM APIs",
	Long: `LLMRouter is a self-hosted marketplace for LLM APIs.

Sellers register upstream LLM services with pricing, buyers subscribe
and receive platform API keys, and the gateway proxies their calls to
the real endpoints while metering tokens and cost.

Quick start:
  llmrouter serve     # Start the marketplace and gateway
  llmrouter validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "llmrouter.yaml", "config file path")
}
