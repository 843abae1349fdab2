package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/planfilter/internal/cli"
	"github.com/pthm/planfilter/pkg/compiler"
)

var (
	translatePlanFile string
	translateFormat   string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a query plan into a filter",
	Long: `Decode a plan-resources response (JSON or YAML), translate it with the
model's attribute mapping and print the resulting filter.

Formats:
  json  the filter envelope ({"kind": ..., "filters": ...})
  sql   a parameterized PostgreSQL WHERE fragment and its arguments
  text  a one-line debug rendering`,
	Example: `  # Print the filter envelope
  planfilter translate --plan plan.json

  # Print SQL for the model's table
  planfilter translate --plan plan.json --format sql

  # Read the plan from stdin
  cerbos-plan | planfilter translate --plan -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := resolveString(translateFormat, cfg.Translate.Format)

		m, err := loadModel()
		if err != nil {
			return err
		}
		plan, err := readPlan(cmd, translatePlanFile)
		if err != nil {
			return err
		}
		res, err := translatePlan(m, plan)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return cli.GeneralError("encoding filter", err)
			}
		case "sql":
			q, err := compiler.Compile(res, m.Schema)
			if err != nil {
				return cli.TranslationError("compiling filter", err)
			}
			argsJSON, err := json.Marshal(q.Args)
			if err != nil {
				return cli.GeneralError("encoding arguments", err)
			}
			_, _ = fmt.Fprintln(out, q.SQL)
			_, _ = fmt.Fprintf(out, "-- args: %s\n", argsJSON)
			if q.Denied {
				_, _ = fmt.Fprintln(out, "-- always denied: skip the query")
			}
		case "text":
			if res.Filter == nil {
				_, _ = fmt.Fprintln(out, res.Kind)
			} else {
				_, _ = fmt.Fprintf(out, "%s %s\n", res.Kind, res.Filter)
			}
		default:
			return cli.ConfigError(fmt.Sprintf("unsupported format %q (want json, sql or text)", format), nil)
		}
		return nil
	},
}

func init() {
	f := translateCmd.Flags()
	f.StringVar(&translatePlanFile, "plan", "", "plan file (JSON or YAML), - for stdin")
	f.StringVar(&translateFormat, "format", "", "output format: json, sql or text (default from config)")
}
