package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/planfilter/internal/cli"
	"github.com/pthm/planfilter/internal/doctor"
)

var (
	doctorDB      string
	doctorVerbose bool
	doctorOffline bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long: `Check the model file and, unless --offline is set, that the database has
every table and column the model refers to.`,
	Example: `  # Run health checks
  planfilter doctor --db postgres://localhost/app

  # Check the model file only
  planfilter doctor --offline --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		modelPath := resolveString(modelFile, cfg.Model)

		var q doctor.Querier
		if !doctorOffline {
			db, err := openDB(cmd, doctorDB)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			q = db
		}

		if !quiet {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "planfilter doctor - Health Check")
		}

		report, err := doctor.New(q, modelPath).Run(cmd.Context())
		if err != nil {
			return cli.GeneralError("running doctor", err)
		}
		report.Print(cmd.OutOrStdout(), doctorVerbose || verbose > 0)

		if report.HasErrors() {
			return cli.GeneralError("health checks failed", nil)
		}
		return nil
	},
}

func init() {
	f := doctorCmd.Flags()
	f.StringVar(&doctorDB, "db", "", "database URL")
	f.BoolVar(&doctorVerbose, "details", false, "show detailed output")
	f.BoolVar(&doctorOffline, "offline", false, "skip database checks")
}
