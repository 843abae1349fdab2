package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pf "github.com/pthm/planfilter"
	"github.com/pthm/planfilter/pkg/compiler"
)

func TestCompileEndToEnd(t *testing.T) {
	mapping := pf.Mapping{
		Fields: map[string]string{
			"request.resource.attr.aBool": "aBool",
		},
		Relations: map[string]pf.Relation{
			"request.resource.attr.owners": {Name: "owners", Field: "id"},
		},
	}
	plan := pf.Conditional(pf.Expr(pf.OpAnd,
		pf.Expr(pf.OpEq, pf.Var("request.resource.attr.aBool"), pf.Lit(true)),
		pf.Expr(pf.OpExists,
			pf.Var("request.resource.attr.owners"),
			pf.Expr(pf.OpEq, pf.Var("id"), pf.Lit("user1")),
		),
	))

	res, err := pf.Translate(plan, mapping)
	require.NoError(t, err)

	schema := compiler.Schema{
		Table: "resources",
		Relations: map[string]compiler.Join{
			"owners": {Table: "users", Through: &compiler.Through{
				Table: "resource_owners", SourceKey: "resource_id", TargetKey: "user_id",
			}},
		},
	}
	q, err := compiler.Compile(res, schema)
	require.NoError(t, err)
	assert.Equal(t,
		`("t"."aBool" = $1 AND EXISTS (SELECT 1 FROM "resource_owners" AS "j1" JOIN "users" AS "r1" ON "r1"."id" = "j1"."user_id"`+
			` WHERE ("j1"."resource_id" = "t"."id" AND "r1"."id" = $2)))`,
		q.SQL)
	assert.Equal(t, []any{true, "user1"}, q.Args)
}
