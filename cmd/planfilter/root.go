package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/pthm/planfilter"
	"github.com/pthm/planfilter/internal/cli"
	"github.com/pthm/planfilter/pkg/planjson"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     = slog.New(slog.DiscardHandler)

	// Persistent flags
	cfgFile   string
	modelFile string
	verbose   int
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "planfilter",
	Short: "Authorization query plans to record filters",
	Long: `planfilter - authorization query plans to record filters

planfilter translates a policy engine's conditional query plan into a filter
over your data store, so authorization is enforced inside the query instead of
by post-filtering records.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}

		logger, err = cli.NewLogger(cmd.ErrOrStderr(), cfg.Log, verbose, quiet)
		if err != nil {
			return cli.ConfigError("configuring logging", err)
		}
		if configPath != "" {
			logger.Debug("loaded configuration", "path", configPath)
		}
		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupPlan    = "plan"
	groupModel   = "model"
	groupUtility = "utility"
)

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover planfilter.yaml)")
	rootCmd.PersistentFlags().StringVar(&modelFile, "model", "", "model file (default: model from config)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupPlan, Title: "Plans:"},
		&cobra.Group{ID: groupModel, Title: "Model:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	translateCmd.GroupID = groupPlan
	queryCmd.GroupID = groupPlan
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(queryCmd)

	validateCmd.GroupID = groupModel
	doctorCmd.GroupID = groupModel
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(doctorCmd)

	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveInt returns the first non-zero value.
func resolveInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

// loadModel loads and validates the model file named by --model or config.
func loadModel() (*cli.Model, error) {
	path := resolveString(modelFile, cfg.Model)
	m, err := cli.LoadModel(path)
	if err != nil {
		return nil, cli.ConfigError("loading model", err)
	}
	if err := m.Validate(); err != nil {
		return nil, cli.ConfigError(fmt.Sprintf("invalid model %s", path), err)
	}
	logger.Debug("loaded model", "path", path,
		"fields", len(m.Mapping.Fields), "relations", len(m.Mapping.Relations))
	return m, nil
}

// readPlan decodes the plan at path; "-" reads stdin.
func readPlan(cmd *cobra.Command, path string) (planfilter.Plan, error) {
	if path == "" {
		return planfilter.Plan{}, cli.PlanError("a plan is required (use --plan FILE or --plan -)", nil)
	}

	var (
		plan planfilter.Plan
		err  error
	)
	if path == "-" {
		plan, err = planjson.DecodeReader(cmd.InOrStdin())
	} else {
		plan, err = planjson.DecodeFile(path)
	}
	if err != nil {
		return planfilter.Plan{}, cli.PlanError("decoding plan", err)
	}
	logger.Debug("decoded plan", "kind", plan.Kind.String())
	return plan, nil
}

// translatePlan translates plan with the model's mapping. Failures are
// translation errors: the caller must treat the plan as denied.
func translatePlan(m *cli.Model, plan planfilter.Plan) (planfilter.Result, error) {
	res, err := planfilter.Translate(plan, m.Mapping)
	if err != nil {
		logger.Warn("plan translation failed; treat as denied", "error", err)
		return planfilter.Result{}, cli.TranslationError("translating plan", err)
	}
	return res, nil
}

// resolveDSN gets the database DSN from flag or config.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return "", cli.ConfigError("database configuration", err)
	}
	return dsn, nil
}

// openDB opens and pings the configured database.
func openDB(cmd *cobra.Command, flagDSN string) (*sql.DB, error) {
	dsn, err := resolveDSN(flagDSN)
	if err != nil {
		return nil, err
	}
	driver, err := cfg.DriverName()
	if err != nil {
		return nil, cli.ConfigError("database configuration", err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, cli.DBConnectError("connecting to database", err)
	}
	if err := db.PingContext(cmd.Context()); err != nil {
		_ = db.Close()
		return nil, cli.DBConnectError("connecting to database", err)
	}
	logger.Debug("connected to database", "driver", driver)
	return db, nil
}
