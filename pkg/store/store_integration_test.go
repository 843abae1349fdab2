package store_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pf "github.com/pthm/planfilter"
	"github.com/pthm/planfilter/internal/sqlgen"
	"github.com/pthm/planfilter/pkg/store"
	"github.com/pthm/planfilter/test/testutil"
)

const attr = "request.resource.attr."

var (
	fixtureMapping = pf.Mapping{
		Fields: map[string]string{
			attr + "aBool":           "aBool",
			attr + "aNumber":         "aNumber",
			attr + "aString":         "aString",
			attr + "aOptionalString": "aOptionalString",
		},
		Relations: map[string]pf.Relation{
			attr + "owners":   {Name: "owners", Field: "id"},
			attr + "comments": {Name: "comments", Field: "id", Fields: map[string]string{"approved": "approved"}},
		},
	}

	fixtureSchema = sqlgen.Schema{
		Table: "resources",
		Relations: map[string]sqlgen.Join{
			"owners": {
				Table: "users",
				Through: &sqlgen.Through{
					Table:     "resource_owners",
					SourceKey: "resource_id",
					TargetKey: "user_id",
				},
			},
			"comments": {Table: "comments", ForeignKey: "resource_id"},
		},
	}
)

func fixtureStore(t *testing.T) *store.Store {
	t.Helper()
	db := testutil.DB(t)
	f := testutil.NewFixtures(context.Background(), db)
	require.NoError(t, f.LoadStandard())
	require.NoError(t, f.CreateComment("resource2", "user1", true))
	require.NoError(t, f.CreateComment("resource3", "user1", false))
	return store.New(db, fixtureSchema)
}

func TestStoreIntegration_Plans(t *testing.T) {
	s := fixtureStore(t)

	ownedByUser1 := pf.Expr(pf.OpExists, pf.Var(attr+"owners"), pf.Expr(pf.OpEq, pf.Var("id"), pf.Lit("user1")))

	tests := []struct {
		name string
		plan pf.Plan
		want []string
	}{
		{
			name: "always allowed",
			plan: pf.AllowAll(),
			want: []string{"resource1", "resource2", "resource3"},
		},
		{
			name: "always denied",
			plan: pf.DenyAll(),
			want: nil,
		},
		{
			name: "eq",
			plan: pf.Conditional(pf.Expr(pf.OpEq, pf.Var(attr+"aBool"), pf.Lit(true))),
			want: []string{"resource1"},
		},
		{
			name: "ne",
			plan: pf.Conditional(pf.Expr(pf.OpNe, pf.Var(attr+"aString"), pf.Lit("string"))),
			want: []string{"resource2", "resource3"},
		},
		{
			name: "in",
			plan: pf.Conditional(pf.Expr(pf.OpIn, pf.Var(attr+"aString"), pf.Lit([]any{"string", "anotherString"}))),
			want: []string{"resource1"},
		},
		{
			name: "gt with reversed operands",
			plan: pf.Conditional(pf.Expr(pf.OpGt, pf.Lit(1), pf.Var(attr+"aNumber"))),
			want: []string{"resource2", "resource3"},
		},
		{
			name: "le",
			plan: pf.Conditional(pf.Expr(pf.OpLe, pf.Var(attr+"aNumber"), pf.Lit(2))),
			want: []string{"resource1", "resource2"},
		},
		{
			name: "and",
			plan: pf.Conditional(pf.Expr(pf.OpAnd,
				pf.Expr(pf.OpEq, pf.Var(attr+"aBool"), pf.Lit(true)),
				pf.Expr(pf.OpNe, pf.Var(attr+"aString"), pf.Lit("string")),
			)),
			want: nil,
		},
		{
			name: "or",
			plan: pf.Conditional(pf.Expr(pf.OpOr,
				pf.Expr(pf.OpEq, pf.Var(attr+"aBool"), pf.Lit(true)),
				pf.Expr(pf.OpEq, pf.Var(attr+"aString"), pf.Lit("string3")),
			)),
			want: []string{"resource1", "resource3"},
		},
		{
			name: "null optional field",
			plan: pf.Conditional(pf.Expr(pf.OpEq, pf.Var(attr+"aOptionalString"), pf.Lit(nil))),
			want: []string{"resource1", "resource2", "resource3"},
		},
		{
			name: "ne keeps null column",
			plan: pf.Conditional(pf.Expr(pf.OpNe, pf.Var(attr+"aOptionalString"), pf.Lit("x"))),
			want: []string{"resource1", "resource2", "resource3"},
		},
		{
			name: "not eq keeps null column",
			plan: pf.Conditional(pf.Expr(pf.OpNot, pf.Expr(pf.OpEq, pf.Var(attr+"aOptionalString"), pf.Lit("x")))),
			want: []string{"resource1", "resource2", "resource3"},
		},
		{
			name: "exists",
			plan: pf.Conditional(ownedByUser1),
			want: []string{"resource1", "resource3"},
		},
		{
			name: "not exists",
			plan: pf.Conditional(pf.Expr(pf.OpNot, ownedByUser1)),
			want: []string{"resource2"},
		},
		{
			name: "exists not",
			plan: pf.Conditional(pf.Expr(pf.OpExists,
				pf.Var(attr+"owners"),
				pf.Expr(pf.OpNot, pf.Expr(pf.OpEq, pf.Var("id"), pf.Lit("user1"))),
			)),
			want: []string{"resource2", "resource3"},
		},
		{
			name: "exists with lambda over foreign key relation",
			plan: pf.Conditional(pf.Expr(pf.OpExists,
				pf.Var(attr+"comments"),
				pf.Expr(pf.OpLambda,
					pf.Expr(pf.OpEq, pf.Var("c.approved"), pf.Lit(true)),
					pf.Var("c"),
				),
			)),
			want: []string{"resource2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := pf.Translate(tt.plan, fixtureMapping)
			require.NoError(t, err)

			ids, err := s.IDs(context.Background(), res)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStoreIntegration_Rows(t *testing.T) {
	s := fixtureStore(t)

	res, err := pf.Translate(
		pf.Conditional(pf.Expr(pf.OpEq, pf.Var(attr+"aBool"), pf.Lit(true))),
		fixtureMapping,
	)
	require.NoError(t, err)

	rows, err := s.Rows(context.Background(), res, []string{"id", "aString", "aNumber"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "resource1", rows[0]["id"])
	assert.Equal(t, "string", rows[0]["aString"])
	assert.EqualValues(t, 1, rows[0]["aNumber"])
}

func TestStoreIntegration_Transaction(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	require.NoError(t, testutil.NewFixtures(ctx, db).LoadStandard())

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO resources (id, "aBool", "aNumber", "aString") VALUES ('resource4', true, 4, 'x')`)
	require.NoError(t, err)

	res := pf.Result{Kind: pf.KindConditional, Filter: pf.Field("aBool", pf.PredEquals, true)}
	ids, err := store.New(tx, fixtureSchema).IDs(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, []string{"resource1", "resource4"}, ids)
}

func TestStoreIntegration_MissingObjects(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	allowed := pf.Result{Kind: pf.KindAlwaysAllowed}

	_, err := store.New(db, sqlgen.Schema{Table: "nope"}).IDs(ctx, allowed)
	assert.True(t, store.IsMissingTableErr(err), "got %v", err)

	_, err = store.New(db, sqlgen.Schema{Table: "resources", PrimaryKey: "nope"}).IDs(ctx, allowed)
	assert.True(t, store.IsMissingColumnErr(err), "got %v", err)
}

func TestStoreIntegration_LibPQ(t *testing.T) {
	dsn := testutil.DSN(t)
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, testutil.NewFixtures(ctx, db).LoadStandard())

	res, err := pf.Translate(
		pf.Conditional(pf.Expr(pf.OpIn, pf.Var(attr+"aNumber"), pf.Lit([]int{2, 3}))),
		fixtureMapping,
	)
	require.NoError(t, err)

	ids, err := store.New(db, fixtureSchema).IDs(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, []string{"resource2", "resource3"}, ids)

	_, err = store.New(db, sqlgen.Schema{Table: "nope"}).IDs(ctx, res)
	assert.True(t, store.IsMissingTableErr(err), "got %v", err)
}
