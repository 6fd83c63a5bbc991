package main

import (
	"fmt"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/artpar/familyhub/adapters/sqlite"
	"github.com/artpar/familyhub/core/schema"
)

// Set via ldflags at build time.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var versionJSON bool

// buildInfo describes the binary and the data layout it expects.
type buildInfo struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	BuildDate string   `json:"buildDate"`
	Go        string   `json:"go"`
	Entities  []string `json:"entities"`
	Schema    string   `json:"schemaVersion"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version, entity and database schema information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := currentBuild()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if versionJSON {
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "familyhub %s (%s, built %s, %s)\n", info.Version, info.Commit, info.BuildDate, info.Go)
		fmt.Fprintf(out, "  database schema: %s\n", info.Schema)
		fmt.Fprintf(out, "  entities:        %d\n", len(info.Entities))
		return nil
	},
}

func currentBuild() (buildInfo, error) {
	reg, err := schema.LoadRegistry()
	if err != nil {
		return buildInfo{}, err
	}
	migrations, err := sqlite.Migrations()
	if err != nil {
		return buildInfo{}, err
	}
	latest := "none"
	if len(migrations) > 0 {
		latest = migrations[len(migrations)-1]
	}
	return buildInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		Go:        runtime.Version(),
		Entities:  reg.Names(),
		Schema:    latest,
	}, nil
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(versionCmd)
}
