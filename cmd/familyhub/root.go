package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/familyhub/adapters/sqlite"
	"github.com/artpar/familyhub/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "familyhub",
	Short: "Shared household API for couples",
	Long: `FamilyHub serves a JSON API for a couple's shared household data:
memories, recipes, meal plans, grocery lists, tasks and parenting activities.

Quick start:
  familyhub migrate   # Create or upgrade the database
  familyhub serve     # Start the API server

Inspection:
  familyhub schema list     # Entities and their endpoints
  familyhub config validate # Check the configuration file`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "familyhub.yaml", "config file path")
}

// loadConfig reads the config file when present, otherwise the environment.
func loadConfig() (*config.Config, error) {
	return config.LoadWithFallback(cfgFile)
}

// openDatabase opens and migrates the configured database.
func openDatabase() (*sqlite.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
