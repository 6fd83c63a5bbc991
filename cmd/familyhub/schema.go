package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/familyhub/core/codec"
	"github.com/artpar/familyhub/core/openapi"
	"github.com/artpar/familyhub/core/schema"
	"github.com/artpar/familyhub/core/validation"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect entity definitions",
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entities and their endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := schema.LoadRegistry()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ENTITY\tPATH\tTABLE\tSCOPE\tOPERATIONS")
		fmt.Fprintln(w, "------\t----\t-----\t-----\t----------")
		for _, ent := range reg.Entities() {
			var ops []string
			for _, op := range schema.Operations {
				if _, ok := ent.Schema(op); ok {
					ops = append(ops, string(op))
				}
			}
			scope := ent.Scope
			if scope == "" {
				scope = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				ent.Name, openapi.APIPrefix+ent.CollectionPath(), ent.Table, scope, strings.Join(ops, ","))
		}
		return w.Flush()
	},
}

var schemaShowCmd = &cobra.Command{
	Use:   "show <entity> [operation]",
	Short: "Show the fields of one entity",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := schema.LoadRegistry()
		if err != nil {
			return err
		}
		ent, err := reg.Entity(args[0])
		if err != nil {
			return err
		}

		ops := schema.Operations
		if len(args) == 2 {
			ops = []schema.Operation{schema.Operation(args[1])}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", ent.Name, ent.Table)
		if ent.Description != "" {
			fmt.Fprintf(out, "  %s\n", ent.Description)
		}
		for _, op := range ops {
			s, ok := ent.Schema(op)
			if !ok {
				if len(args) == 2 {
					return fmt.Errorf("%s has no %s shape", ent.Name, op)
				}
				continue
			}
			fmt.Fprintf(out, "\n%s:\n", op)
			printFields(out, s.Fields)
		}
		if len(args) == 1 && len(ent.Stored) > 0 {
			fmt.Fprintln(out, "\nstored:")
			printFields(out, ent.Stored)
		}
		return nil
	},
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check [entity operation file.json]",
	Short: "Check the definitions, or validate a JSON document against one shape",
	Long: `Without arguments, load every definition and render the API document.

With an entity, an operation and a file, validate the file's JSON the same
way the API validates a request body, and print every failing field.

Examples:
  familyhub schema check
  familyhub schema check recipe create recipe.json`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return fmt.Errorf("accepts 0 or 3 args, received %d", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 3 {
			return checkDocument(cmd.OutOrStdout(), args[0], schema.Operation(args[1]), args[2])
		}
		return checkDefinitions(cmd.OutOrStdout())
	},
}

func checkDefinitions(out io.Writer) error {
	reg, err := schema.LoadRegistry()
	if err != nil {
		fmt.Fprintf(out, "  %s Definitions load\n", crossMark)
		return err
	}
	fmt.Fprintf(out, "  %s Definitions load (%d entities)\n", checkMark, len(reg.Entities()))

	kinds := codec.Kinds()
	for _, ent := range reg.Entities() {
		for _, col := range ent.CodecColumns() {
			if !slices.Contains(kinds, col.Codec) {
				fmt.Fprintf(out, "  %s Column codecs\n", crossMark)
				return fmt.Errorf("%s.%s: unknown codec %q", ent.Name, col.Column, col.Codec)
			}
		}
	}
	fmt.Fprintf(out, "  %s Column codecs (%s)\n", checkMark, strings.Join(kinds, ", "))

	svc := openapi.NewService(openapi.ServiceConfig{Registry: reg, Version: version, Logger: zerolog.Nop()})
	if err := svc.Validate(); err != nil {
		fmt.Fprintf(out, "  %s API document renders\n", crossMark)
		return err
	}
	fmt.Fprintf(out, "  %s API document renders\n", checkMark)
	return nil
}

func checkDocument(out io.Writer, entity string, op schema.Operation, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	reg, err := schema.LoadRegistry()
	if err != nil {
		return err
	}
	result, err := validation.New(reg).Validate(entity, op, raw)
	if err != nil {
		return err
	}
	if !result.Valid {
		for _, fe := range result.Errors {
			fmt.Fprintf(out, "  %s %s: %s\n", crossMark, fe.Path, fe.Message)
		}
		return fmt.Errorf("%d validation errors", len(result.Errors))
	}

	fmt.Fprintf(out, "  %s %s %s is valid\n", checkMark, entity, op)
	normalized, err := json.MarshalIndent(result.Value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(normalized))
	return nil
}

func printFields(out io.Writer, fields schema.Fields) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		flags := ""
		if f.Required {
			flags = "required"
		}
		if f.HasDefault() {
			flags = strings.TrimSpace(flags + fmt.Sprintf(" default=%v", f.Default))
		}
		typ := string(f.Type)
		if len(f.Values) > 0 {
			typ += "(" + strings.Join(f.Values, "|") + ")"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", f.Name, f.ColumnName(), typ, flags)
	}
	w.Flush()
}

func init() {
	schemaCmd.AddCommand(schemaListCmd, schemaShowCmd, schemaCheckCmd)
	rootCmd.AddCommand(schemaCmd)
}
