// Package doctor provides health checks for a planfilter deployment.
//
// The doctor command validates that the model file is consistent and, when a
// database is available, that every table and column the model refers to
// exists. Filters compiled from an inconsistent model fail at query time; the
// doctor finds those problems up front.
//
// Example usage:
//
//	d := doctor.New(db, "planfilter.model.yaml")
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pthm/planfilter/internal/cli"
	"github.com/pthm/planfilter/internal/sqlgen"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

func (s Status) color() lipgloss.Color {
	switch s {
	case StatusPass:
		return lipgloss.Color("2")
	case StatusWarn:
		return lipgloss.Color("3")
	default:
		return lipgloss.Color("1")
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Model File", "Database").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to w. Status symbols are colored when w is a
// terminal.
func (r *Report) Print(w io.Writer, verbose bool) {
	renderer := lipgloss.NewRenderer(w)
	heading := renderer.NewStyle().Bold(true)

	var categoryOrder []string
	categories := make(map[string][]CheckResult)
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", heading.Render(cat))
		for _, check := range categories[cat] {
			symbol := renderer.NewStyle().Foreground(check.Status.color()).Render(check.Status.Symbol())
			_, _ = fmt.Fprintf(w, "  %s %s\n", symbol, check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Querier executes queries against PostgreSQL.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Doctor performs health checks on a model file and, optionally, the
// database it describes.
type Doctor struct {
	q         Querier
	modelPath string

	// Cached data from checks (populated during Run)
	model   *cli.Model
	columns map[string]map[string]bool
}

// New creates a new Doctor instance. q may be nil to check the model only.
func New(q Querier, modelPath string) *Doctor {
	return &Doctor{
		q:         q,
		modelPath: modelPath,
		columns:   make(map[string]map[string]bool),
	}
}

// Run executes all health checks and returns a report.
// Database checks are skipped when the model is unusable or no Querier was
// given.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	d.checkModel(report)
	if d.model == nil || d.q == nil {
		return report, nil
	}

	if err := d.checkTable(ctx, report); err != nil {
		return nil, fmt.Errorf("checking table: %w", err)
	}
	if err := d.checkRelations(ctx, report); err != nil {
		return nil, fmt.Errorf("checking relations: %w", err)
	}
	return report, nil
}

const catModel = "Model File"

// checkModel loads the model file and validates its mapping and schema.
func (d *Doctor) checkModel(report *Report) {
	m, err := cli.LoadModel(d.modelPath)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: catModel,
			Name:     "load",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Cannot load model file %s", d.modelPath),
			Details:  err.Error(),
			FixHint:  "Set model in planfilter.yaml or pass --model",
		})
		return
	}
	d.model = m

	report.AddCheck(CheckResult{
		Category: catModel,
		Name:     "load",
		Status:   StatusPass,
		Message: fmt.Sprintf("Model loaded (%d fields, %d relations)",
			len(m.Mapping.Fields), len(m.Mapping.Relations)),
	})

	if len(m.Mapping.Fields) == 0 && len(m.Mapping.Relations) == 0 {
		report.AddCheck(CheckResult{
			Category: catModel,
			Name:     "empty",
			Status:   StatusWarn,
			Message:  "Mapping is empty; every conditional plan will fail to translate",
			FixHint:  "Add mapping.fields entries for the attributes your policies use",
		})
	}

	if err := m.Validate(); err != nil {
		report.AddCheck(CheckResult{
			Category: catModel,
			Name:     "valid",
			Status:   StatusFail,
			Message:  "Model is inconsistent",
			Details:  joinedDetails(err),
			FixHint:  "Run 'planfilter validate' after fixing the listed entries",
		})
		// Schema problems make the database checks meaningless.
		if m.Schema.Validate() != nil {
			d.model = nil
		}
		return
	}

	report.AddCheck(CheckResult{
		Category: catModel,
		Name:     "valid",
		Status:   StatusPass,
		Message:  "Mapping and schema are consistent",
	})
}

const catDatabase = "Database"

// checkTable validates the filtered table, its key and the mapped columns.
func (d *Doctor) checkTable(ctx context.Context, report *Report) error {
	schema := d.model.Schema
	cols, err := d.tableColumns(ctx, schema.Table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		report.AddCheck(CheckResult{
			Category: catDatabase,
			Name:     "table",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Table %s does not exist", schema.Table),
			FixHint:  "Check schema.table in the model file and the connection's search_path",
		})
		return nil
	}
	report.AddCheck(CheckResult{
		Category: catDatabase,
		Name:     "table",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Table %s exists (%d columns)", schema.Table, len(cols)),
	})

	pk := schema.PrimaryKey
	if pk == "" {
		pk = sqlgen.DefaultPrimaryKey
	}
	wanted := []string{pk}
	for _, path := range slices.Sorted(maps.Keys(d.model.Mapping.Fields)) {
		wanted = append(wanted, d.model.Mapping.Fields[path])
	}
	d.checkColumns(report, "columns", schema.Table, cols, wanted)
	return nil
}

// checkRelations validates the tables and keys behind every mapped relation.
func (d *Doctor) checkRelations(ctx context.Context, report *Report) error {
	for _, path := range slices.Sorted(maps.Keys(d.model.Mapping.Relations)) {
		rel := d.model.Mapping.Relations[path]
		join, ok := d.model.Schema.Relations[rel.Name]
		if !ok {
			continue // reported by the model checks
		}

		cols, err := d.tableColumns(ctx, join.Table)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			report.AddCheck(CheckResult{
				Category: catDatabase,
				Name:     "relation " + rel.Name,
				Status:   StatusFail,
				Message:  fmt.Sprintf("Relation %s: table %s does not exist", rel.Name, join.Table),
			})
			continue
		}

		wanted := []string{rel.Field}
		for _, inner := range slices.Sorted(maps.Keys(rel.Fields)) {
			wanted = append(wanted, rel.Fields[inner])
		}

		if join.Through == nil {
			wanted = append(wanted, join.ForeignKey)
			d.checkColumns(report, "relation "+rel.Name, join.Table, cols, wanted)
			continue
		}

		pk := join.PrimaryKey
		if pk == "" {
			pk = sqlgen.DefaultPrimaryKey
		}
		wanted = append(wanted, pk)
		d.checkColumns(report, "relation "+rel.Name, join.Table, cols, wanted)

		linkCols, err := d.tableColumns(ctx, join.Through.Table)
		if err != nil {
			return err
		}
		if len(linkCols) == 0 {
			report.AddCheck(CheckResult{
				Category: catDatabase,
				Name:     "through " + rel.Name,
				Status:   StatusFail,
				Message:  fmt.Sprintf("Relation %s: join table %s does not exist", rel.Name, join.Through.Table),
			})
			continue
		}
		d.checkColumns(report, "through "+rel.Name, join.Through.Table, linkCols,
			[]string{join.Through.SourceKey, join.Through.TargetKey})
	}
	return nil
}

func (d *Doctor) checkColumns(report *Report, name, table string, have map[string]bool, wanted []string) {
	var missing []string
	for _, col := range wanted {
		if !have[col] && !slices.Contains(missing, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		report.AddCheck(CheckResult{
			Category: catDatabase,
			Name:     name,
			Status:   StatusFail,
			Message:  fmt.Sprintf("%s is missing columns: %s", table, strings.Join(missing, ", ")),
			Details:  fmt.Sprintf("Found columns: %s", strings.Join(slices.Sorted(maps.Keys(have)), ", ")),
			FixHint:  "Column names are case-sensitive; check the model file against the table definition",
		})
		return
	}
	report.AddCheck(CheckResult{
		Category: catDatabase,
		Name:     name,
		Status:   StatusPass,
		Message:  fmt.Sprintf("%s has all referenced columns", table),
	})
}

// tableColumns returns the column names of a possibly schema-qualified
// table, or an empty set if it does not exist. Results are cached per Run.
func (d *Doctor) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	if cols, ok := d.columns[table]; ok {
		return cols, nil
	}

	var schemaName, name string
	if i := strings.LastIndex(table, "."); i >= 0 {
		schemaName, name = table[:i], table[i+1:]
	} else {
		name = table
	}

	rows, err := d.q.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
		AND table_name = $2
	`, schemaName, name)
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]bool)
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		cols[col] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	d.columns[table] = cols
	return cols, nil
}

// joinedDetails renders an errors.Join tree one error per line.
func joinedDetails(err error) string {
	var lines []string
	var walk func(error)
	walk = func(e error) {
		if j, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range j.Unwrap() {
				walk(inner)
			}
			return
		}
		lines = append(lines, e.Error())
	}
	walk(err)
	return strings.Join(lines, "\n")
}
