package sqldsl

import (
	"fmt"
	"strings"
)

// JoinClause represents an INNER JOIN.
type JoinClause struct {
	Table TableExpr
	On    Expr
}

// SQL renders the JOIN clause.
func (j JoinClause) SQL() string {
	return "JOIN " + j.Table.TableSQL() + " ON " + j.On.SQL()
}

// OrderBy is a single ORDER BY term.
type OrderBy struct {
	Expr Expr
	Desc bool
}

// SQL renders the ordering term.
func (o OrderBy) SQL() string {
	if o.Desc {
		return o.Expr.SQL() + " DESC"
	}
	return o.Expr.SQL()
}

// SelectStmt represents a SELECT query.
type SelectStmt struct {
	Columns []Expr // empty renders SELECT 1
	From    TableExpr
	Joins   []JoinClause
	Where   Expr
	OrderBy []OrderBy
	Limit   int
}

// SQL renders the SELECT statement on a single line.
func (s SelectStmt) SQL() string {
	clauses := []string{
		"SELECT " + s.columnsSQL(),
		s.fromSQL(),
		s.joinsSQL(),
		s.whereSQL(),
		s.orderSQL(),
		s.limitSQL(),
	}
	parts := clauses[:0]
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

func (s SelectStmt) columnsSQL() string {
	if len(s.Columns) == 0 {
		return "1"
	}
	parts := make([]string, len(s.Columns))
	for i, e := range s.Columns {
		parts[i] = e.SQL()
	}
	return strings.Join(parts, ", ")
}

func (s SelectStmt) fromSQL() string {
	if s.From == nil {
		return ""
	}
	return "FROM " + s.From.TableSQL()
}

func (s SelectStmt) joinsSQL() string {
	if len(s.Joins) == 0 {
		return ""
	}
	parts := make([]string, len(s.Joins))
	for i, j := range s.Joins {
		parts[i] = j.SQL()
	}
	return strings.Join(parts, " ")
}

func (s SelectStmt) whereSQL() string {
	if s.Where == nil {
		return ""
	}
	return "WHERE " + s.Where.SQL()
}

func (s SelectStmt) orderSQL() string {
	if len(s.OrderBy) == 0 {
		return ""
	}
	parts := make([]string, len(s.OrderBy))
	for i, o := range s.OrderBy {
		parts[i] = o.SQL()
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

func (s SelectStmt) limitSQL() string {
	if s.Limit <= 0 {
		return ""
	}
	return fmt.Sprintf("LIMIT %d", s.Limit)
}
