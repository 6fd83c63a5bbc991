package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Create the database if needed and apply pending migrations.

Migrations also run on every serve, so this is only needed to prepare a
database ahead of time or to inspect what has been applied.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.AppliedMigrations()
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database up to date (%d migrations)\n", len(applied))
	for _, name := range applied {
		fmt.Fprintf(out, "  %s %s\n", checkMark, name)
	}
	return nil
}
