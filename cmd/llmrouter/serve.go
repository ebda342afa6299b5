package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Heht571/LLMRouter/bootstrap"
	"github.com/Heht571/LLMRouter/config"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the marketplace and proxy gateway",
	Long: `Start the LLMRouter server.

The server will:
  - Load configuration from llmrouter.yaml (or --config)
  - Or load configuration from LLMROUTER_* environment variables
  - Connect to the database
  - Serve the marketplace REST API under /api/v1
  - Proxy buyer requests under /api/v1/proxy with usage metering

Environment variables (for Docker deployments):
  LLMROUTER_SECRETS_MASTER_KEY  - Master key for credential encryption (required)
  LLMROUTER_AUTH_JWT_SECRET     - JWT signing secret
  LLMROUTER_DATABASE_DSN        - Database path (default: llmrouter.db)
  LLMROUTER_SERVER_PORT         - Server port (default: 8080)
  LLMROUTER_LOG_LEVEL           - Log level: debug, info, warn, error

Examples:
  llmrouter serve
  llmrouter serve --config /etc/llmrouter/config.yaml
  llmrouter serve --hot-reload=false

  # Docker (env vars only):
  LLMROUTER_SECRETS_MASTER_KEY=... llmrouter serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	hasEnvConfig := config.HasEnvConfig()

	if !hasConfigFile && !hasEnvConfig {
		fmt.Println("No configuration found.")
		fmt.Println()
		fmt.Printf("Option 1: Create %s (see config/config.go for the schema)\n", cfgFile)
		fmt.Println("Option 2: Set LLMROUTER_SECRETS_MASTER_KEY and friends")
		fmt.Println()
		fmt.Println("Example (env vars):")
		fmt.Println("  LLMROUTER_SECRETS_MASTER_KEY=changeme llmrouter serve")
		return nil
	}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with a config file
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}

		if !hasConfigFile {
			fmt.Println("Running with environment variables (no config file)")
		}

		app, err = bootstrap.New(cfg)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
