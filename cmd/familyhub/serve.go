package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/familyhub/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the FamilyHub API server.

The server will:
  - Load configuration from familyhub.yaml (or --config) when it exists
  - Apply FAMILYHUB_* environment overrides
  - Open and migrate the SQLite database
  - Reload logging and reward settings when the file changes or on SIGHUP

Environment variables:
  FAMILYHUB_DATABASE_DSN          - Database path (default: familyhub.db)
  FAMILYHUB_SERVER_PORT           - Server port (default: 8080)
  FAMILYHUB_LOG_LEVEL             - Log level: debug, info, warn, error
  FAMILYHUB_REWARDS_MEMORY_COINS  - Coins per new memory (default: 10)

Examples:
  familyhub serve
  familyhub serve --config /etc/familyhub/config.yaml
  FAMILYHUB_SERVER_PORT=9000 familyhub serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return app.Run()
}
