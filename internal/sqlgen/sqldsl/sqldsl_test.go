package sqldsl

import (
	"testing"
)

func TestExpr_SQL(t *testing.T) {
	col := Col{Table: "r", Column: "aBool"}
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"column", col, `"r"."aBool"`},
		{"bare column", Col{Column: "id"}, `"id"`},
		{"quoted quote", Col{Column: `we"ird`}, `"we""ird"`},
		{"arg", Arg(3), "$3"},
		{"eq", Eq{Left: col, Right: Arg(1)}, `"r"."aBool" = $1`},
		{"distinct", DistinctFrom{Left: col, Right: Arg(1)}, `"r"."aBool" IS DISTINCT FROM $1`},
		{"lt", Lt{Left: col, Right: Arg(1)}, `"r"."aBool" < $1`},
		{"lte", Lte{Left: col, Right: Arg(1)}, `"r"."aBool" <= $1`},
		{"gt", Gt{Left: col, Right: Arg(1)}, `"r"."aBool" > $1`},
		{"gte", Gte{Left: col, Right: Arg(1)}, `"r"."aBool" >= $1`},
		{"in", In{Expr: col, Values: []Expr{Arg(1), Arg(2)}}, `"r"."aBool" IN ($1, $2)`},
		{"empty in", In{Expr: col}, "FALSE"},
		{"is null", IsNull{Expr: col}, `"r"."aBool" IS NULL`},
		{"is not null", IsNotNull{Expr: col}, `"r"."aBool" IS NOT NULL`},
		{"and", And(Raw("a"), nil, Raw("b")), "(a AND b)"},
		{"single and", And(Raw("a")), "a"},
		{"empty and", And(), "TRUE"},
		{"or", Or(Raw("a"), Raw("b")), "(a OR b)"},
		{"empty or", Or(), "FALSE"},
		{"not", Not(Raw("a")), "NOT (a)"},
		{"is not true", IsNotTrue{Expr: Eq{Left: col, Right: Arg(1)}}, `("r"."aBool" = $1) IS NOT TRUE`},
		{"bool", Bool(false), "FALSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.SQL(); got != tt.want {
				t.Errorf("SQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParams(t *testing.T) {
	var p Params
	a := p.Add("x")
	b := p.Add(int64(2))
	if a != 1 || b != 2 {
		t.Fatalf("placeholders = %d, %d, want 1, 2", a, b)
	}
	if got := p.Values(); len(got) != 2 || got[0] != "x" || got[1] != int64(2) {
		t.Errorf("Values() = %v", got)
	}
}

func TestSelectStmt_SQL(t *testing.T) {
	tests := []struct {
		name string
		stmt SelectStmt
		want string
	}{
		{
			name: "select 1",
			stmt: SelectStmt{From: TableAs("users", "u")},
			want: `SELECT 1 FROM "users" AS "u"`,
		},
		{
			name: "schema qualified",
			stmt: SelectStmt{Columns: []Expr{Col{Table: "r", Column: "id"}}, From: TableAs("app.resources", "r")},
			want: `SELECT "r"."id" FROM "app"."resources" AS "r"`,
		},
		{
			name: "full",
			stmt: SelectStmt{
				Columns: []Expr{Col{Table: "u", Column: "id"}},
				From:    TableAs("resource_owners", "j"),
				Joins: []JoinClause{{
					Table: TableAs("users", "u"),
					On:    Eq{Left: Col{Table: "u", Column: "id"}, Right: Col{Table: "j", Column: "user_id"}},
				}},
				Where:   Eq{Left: Col{Table: "u", Column: "id"}, Right: Arg(1)},
				OrderBy: []OrderBy{{Expr: Col{Table: "u", Column: "id"}, Desc: true}},
				Limit:   10,
			},
			want: `SELECT "u"."id" FROM "resource_owners" AS "j" JOIN "users" AS "u" ON "u"."id" = "j"."user_id" WHERE "u"."id" = $1 ORDER BY "u"."id" DESC LIMIT 10`,
		},
		{
			name: "exists",
			stmt: SelectStmt{Where: Exists{Query: SelectStmt{From: TableRef{Name: "t"}}}},
			want: `SELECT 1 WHERE EXISTS (SELECT 1 FROM "t")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stmt.SQL(); got != tt.want {
				t.Errorf("SQL() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}
