package doctor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/planfilter/test/testutil"
)

const fixtureModel = `
mapping:
  fields:
    request.resource.attr.aBool: aBool
    request.resource.attr.aString: aString
  relations:
    request.resource.attr.owners:
      relation: owners
      field: id
    request.resource.attr.comments:
      relation: comments
      field: id
      fields:
        approved: approved
schema:
  table: resources
  relations:
    owners:
      table: users
      through:
        table: resource_owners
        source_key: resource_id
        target_key: user_id
    comments:
      table: comments
      foreign_key: resource_id
`

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func checkByName(t *testing.T, r *Report, name string) CheckResult {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check named %q in %+v", name, r.Checks)
	return CheckResult{}
}

func TestReport_AddCheckCounts(t *testing.T) {
	r := &Report{}
	r.AddCheck(CheckResult{Status: StatusPass})
	r.AddCheck(CheckResult{Status: StatusWarn})
	r.AddCheck(CheckResult{Status: StatusFail})
	r.AddCheck(CheckResult{Status: StatusPass})

	assert.Equal(t, 2, r.Passed)
	assert.Equal(t, 1, r.Warnings)
	assert.Equal(t, 1, r.Errors)
	assert.True(t, r.HasErrors())
}

func TestReport_Print(t *testing.T) {
	r := &Report{}
	r.AddCheck(CheckResult{Category: "Model File", Name: "load", Status: StatusPass, Message: "Model loaded"})
	r.AddCheck(CheckResult{
		Category: "Database", Name: "table", Status: StatusFail,
		Message: "Table x does not exist", Details: "line one\nline two", FixHint: "create it",
	})

	var quiet, verbose bytes.Buffer
	r.Print(&quiet, false)
	r.Print(&verbose, true)

	assert.Contains(t, quiet.String(), "Model File\n  ✓ Model loaded")
	assert.Contains(t, quiet.String(), "  ✗ Table x does not exist\n      Fix: create it")
	assert.NotContains(t, quiet.String(), "line one")
	assert.Contains(t, verbose.String(), "      line one\n      line two\n")
	assert.Contains(t, quiet.String(), "Summary: 1 passed, 0 warnings, 1 errors")
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "pass", StatusPass.String())
	assert.Equal(t, "⚠", StatusWarn.Symbol())
	assert.Equal(t, "unknown", Status(9).String())
}

func TestDoctor_ModelOnly(t *testing.T) {
	report, err := New(nil, writeModel(t, fixtureModel)).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.HasErrors())
	assert.Equal(t, StatusPass, checkByName(t, report, "valid").Status)
	for _, c := range report.Checks {
		assert.NotEqual(t, catDatabase, c.Category)
	}
}

func TestDoctor_MissingModel(t *testing.T) {
	report, err := New(nil, filepath.Join(t.TempDir(), "nope.yaml")).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.HasErrors())
	assert.Equal(t, StatusFail, checkByName(t, report, "load").Status)
}

func TestDoctor_InconsistentModel(t *testing.T) {
	model := `
mapping:
  fields: {}
  relations:
    request.resource.attr.tags:
      relation: tags
      field: id
schema:
  table: resources
`
	report, err := New(nil, writeModel(t, model)).Run(context.Background())
	require.NoError(t, err)

	valid := checkByName(t, report, "valid")
	assert.Equal(t, StatusFail, valid.Status)
	assert.Contains(t, valid.Details, `relation "tags"`)
}

func TestDoctor_EmptyMappingWarns(t *testing.T) {
	report, err := New(nil, writeModel(t, "mapping: {}\nschema:\n  table: resources\n")).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusWarn, checkByName(t, report, "empty").Status)
	assert.False(t, report.HasErrors())
}

func TestDoctor_Database(t *testing.T) {
	db := testutil.DB(t)

	report, err := New(db, writeModel(t, fixtureModel)).Run(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	report.Print(&out, true)
	assert.False(t, report.HasErrors(), out.String())
	assert.Equal(t, StatusPass, checkByName(t, report, "table").Status)
	assert.Equal(t, StatusPass, checkByName(t, report, "relation owners").Status)
	assert.Equal(t, StatusPass, checkByName(t, report, "through owners").Status)
	assert.Equal(t, StatusPass, checkByName(t, report, "relation comments").Status)
}

func TestDoctor_DatabaseMismatch(t *testing.T) {
	db := testutil.DB(t)
	model := `
mapping:
  fields:
    request.resource.attr.aBool: abool
  relations:
    request.resource.attr.owners:
      relation: owners
      field: id
schema:
  table: resources
  relations:
    owners:
      table: users
      through:
        table: resource_users
        source_key: resource_id
        target_key: user_id
`
	report, err := New(db, writeModel(t, model)).Run(context.Background())
	require.NoError(t, err)

	cols := checkByName(t, report, "columns")
	assert.Equal(t, StatusFail, cols.Status)
	assert.Contains(t, cols.Message, "abool")
	assert.Equal(t, StatusFail, checkByName(t, report, "through owners").Status)
}

func TestDoctor_MissingTable(t *testing.T) {
	db := testutil.DB(t)
	report, err := New(db, writeModel(t, "mapping: {}\nschema:\n  table: nope\n")).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusFail, checkByName(t, report, "table").Status)
}
