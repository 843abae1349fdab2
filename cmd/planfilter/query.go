package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/planfilter/internal/cli"
	"github.com/pthm/planfilter/pkg/store"
)

var (
	queryPlanFile string
	queryDB       string
	queryColumns  []string
	queryLimit    int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a query plan against the database",
	Long: `Translate a plan and run the resulting filter against the model's table,
printing the visible rows.

Without --columns the primary keys are printed one per line. With --columns
each row is printed as a JSON object. Always-denied plans print nothing and
never touch the database.`,
	Example: `  # List visible resource IDs
  planfilter query --plan plan.json --db postgres://localhost/app

  # Print selected columns, at most 10 rows
  planfilter query --plan plan.json --columns id,aString --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		columns := queryColumns
		if len(columns) == 0 {
			columns = cfg.Query.Columns
		}
		limit := resolveInt(queryLimit, cfg.Query.Limit)

		m, err := loadModel()
		if err != nil {
			return err
		}
		plan, err := readPlan(cmd, queryPlanFile)
		if err != nil {
			return err
		}
		res, err := translatePlan(m, plan)
		if err != nil {
			return err
		}
		if res.Denied() {
			logger.Info("plan is always denied; no query issued")
			return nil
		}

		db, err := openDB(cmd, queryDB)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		s := store.New(db, m.Schema, store.WithLogger(logger), store.WithLimit(limit))
		out := cmd.OutOrStdout()

		if len(columns) == 0 {
			ids, err := s.IDs(cmd.Context(), res)
			if err != nil {
				return queryError(err)
			}
			for _, id := range ids {
				_, _ = fmt.Fprintln(out, id)
			}
			logger.Info("query complete", "rows", len(ids))
			return nil
		}

		rows, err := s.Rows(cmd.Context(), res, columns)
		if err != nil {
			return queryError(err)
		}
		enc := json.NewEncoder(out)
		for _, row := range rows {
			if err := enc.Encode(row); err != nil {
				return cli.GeneralError("encoding row", err)
			}
		}
		logger.Info("query complete", "rows", len(rows))
		return nil
	},
}

func queryError(err error) error {
	if store.IsMissingTableErr(err) || store.IsMissingColumnErr(err) {
		return cli.ConfigError("model does not match the database (try 'planfilter doctor')", err)
	}
	return cli.GeneralError("query failed", err)
}

func init() {
	f := queryCmd.Flags()
	f.StringVar(&queryPlanFile, "plan", "", "plan file (JSON or YAML), - for stdin")
	f.StringVar(&queryDB, "db", "", "database URL")
	f.StringSliceVar(&queryColumns, "columns", nil, "columns to print (default: primary key only)")
	f.IntVar(&queryLimit, "limit", 0, "maximum number of rows (0 for no limit)")
}
