package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/familyhub/adapters/sqlite"
	"github.com/artpar/familyhub/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate configuration",
}

var validateCheckDatabase bool

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the FamilyHub configuration.

Checks:
  - YAML syntax is valid
  - Every field passes its rules after environment overrides
  - Database is writable (optional)

Examples:
  familyhub config validate
  familyhub config validate --config /etc/familyhub/config.yaml --check-database`,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := config.ToYAML(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configValidateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if database is writable")
	configCmd.AddCommand(configValidateCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	source := cfgFile
	if _, err := os.Stat(cfgFile); err != nil {
		source = "environment"
	}
	fmt.Fprintf(out, "Validating %s...\n\n", source)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	fmt.Fprintf(out, "  %s Listen: %s:%d\n", checkMark, cfg.Server.Host, cfg.Server.Port)
	fmt.Fprintf(out, "  %s Database: %s\n", checkMark, cfg.Database.DSN)
	fmt.Fprintf(out, "  %s Coins per memory: %d\n", checkMark, cfg.Rewards.MemoryCoins)
	fmt.Fprintf(out, "  %s Partners: %s\n", checkMark, strings.Join(cfg.Memories.Partners, ", "))

	if validateCheckDatabase {
		if err := checkDatabaseWritable(cfg.Database.DSN); err != nil {
			fmt.Fprintf(out, "  %s Database writable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Database writable\n", checkMark)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func checkDatabaseWritable(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate()
}
