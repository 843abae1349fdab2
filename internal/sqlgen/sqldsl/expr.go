package sqldsl

import (
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Expr is the interface that all SQL expression types implement.
type Expr interface {
	SQL() string
}

// Ident quotes a possibly schema-qualified identifier ("public.resources"
// becomes "public"."resources").
func Ident(parts ...string) string {
	return pgx.Identifier(parts).Sanitize()
}

// Col represents a column reference. Both parts are quoted, so mixed-case
// column names such as aBool are preserved.
type Col struct {
	Table  string
	Column string
}

// SQL renders the column reference.
func (c Col) SQL() string {
	if c.Table == "" {
		return Ident(c.Column)
	}
	return Ident(c.Table, c.Column)
}

// Arg is a positional bind parameter.
type Arg int

// SQL renders the placeholder ($n).
func (a Arg) SQL() string {
	return "$" + strconv.Itoa(int(a))
}

// Params collects bind parameter values in placeholder order.
// The zero value is ready to use.
type Params struct {
	values []any
}

// Add appends v and returns its placeholder.
func (p *Params) Add(v any) Arg {
	p.values = append(p.values, v)
	return Arg(len(p.values))
}

// Values returns the collected values; index i belongs to placeholder $i+1.
func (p *Params) Values() []any {
	return p.values
}

// Raw is an escape hatch for arbitrary SQL expressions.
type Raw string

// SQL renders the raw SQL as-is.
func (r Raw) SQL() string {
	return string(r)
}

// Bool represents a boolean literal.
type Bool bool

// SQL renders the boolean.
func (b Bool) SQL() string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
