package sqlgen

import (
	"fmt"

	"github.com/pthm/planfilter"
	"github.com/pthm/planfilter/internal/sqlgen/sqldsl"
)

// Query is compiled SQL with its bind arguments.
//
// Denied is set for always-denied results. The SQL then never matches, but
// callers are expected to skip execution altogether.
type Query struct {
	SQL    string
	Args   []any
	Denied bool
}

// Compile renders a translation result as a WHERE-clause fragment over
// schema's table (referenced through its alias).
//
//   - always allowed: TRUE
//   - always denied: FALSE, with Denied set
//   - conditional: the compiled filter
func Compile(res planfilter.Result, schema Schema) (Query, error) {
	switch res.Kind {
	case planfilter.KindAlwaysAllowed:
		return Query{SQL: sqldsl.Bool(true).SQL()}, nil
	case planfilter.KindAlwaysDenied:
		return Query{SQL: sqldsl.Bool(false).SQL(), Denied: true}, nil
	case planfilter.KindConditional:
		return CompileFilter(res.Filter, schema)
	}
	return Query{}, fmt.Errorf("sqlgen: cannot compile result of kind %s", res.Kind)
}

// CompileFilter renders a single filter as a WHERE-clause fragment.
func CompileFilter(f planfilter.Filter, schema Schema) (Query, error) {
	c := &compiler{schema: schema}
	expr, err := c.filter(f, schema.alias(), false)
	if err != nil {
		return Query{}, err
	}
	return Query{SQL: expr.SQL(), Args: c.params.Values()}, nil
}

// Select renders a complete SELECT over schema's table restricted by res.
// An empty column list selects the primary key.
func Select(res planfilter.Result, schema Schema, columns []string, limit int) (Query, error) {
	where, err := Compile(res, schema)
	if err != nil {
		return Query{}, err
	}

	alias := schema.alias()
	if len(columns) == 0 {
		columns = []string{schema.primaryKey()}
	}
	cols := make([]sqldsl.Expr, len(columns))
	for i, col := range columns {
		cols[i] = sqldsl.Col{Table: alias, Column: col}
	}

	stmt := sqldsl.SelectStmt{
		Columns: cols,
		From:    sqldsl.TableAs(schema.Table, alias),
		OrderBy: []sqldsl.OrderBy{{Expr: sqldsl.Col{Table: alias, Column: schema.primaryKey()}}},
		Limit:   limit,
	}
	if !res.Allowed() {
		stmt.Where = sqldsl.Raw(where.SQL)
	}
	return Query{SQL: stmt.SQL(), Args: where.Args, Denied: where.Denied}, nil
}

type compiler struct {
	schema  Schema
	params  sqldsl.Params
	aliases int
}

func (c *compiler) filter(f planfilter.Filter, alias string, inRelation bool) (sqldsl.Expr, error) {
	switch f := f.(type) {
	case planfilter.FieldPredicate:
		return c.predicate(sqldsl.Col{Table: alias, Column: f.Field}, f)

	case planfilter.AndFilter:
		exprs, err := c.filters(f.Filters, alias, inRelation)
		if err != nil {
			return nil, err
		}
		return sqldsl.And(exprs...), nil

	case planfilter.OrFilter:
		exprs, err := c.filters(f.Filters, alias, inRelation)
		if err != nil {
			return nil, err
		}
		return sqldsl.Or(exprs...), nil

	case planfilter.NotFilter:
		inner, err := c.filter(f.Filter, alias, inRelation)
		if err != nil {
			return nil, err
		}
		// EXISTS is never NULL. Anything else may be, and a NULL must count
		// as "not matched" so negation agrees with IS DISTINCT FROM.
		if _, ok := f.Filter.(planfilter.RelationSome); ok {
			return sqldsl.Not(inner), nil
		}
		return sqldsl.IsNotTrue{Expr: inner}, nil

	case planfilter.RelationSome:
		if inRelation {
			return nil, fmt.Errorf("%w: nested relation %q", ErrUnknownRelation, f.Relation)
		}
		return c.relationSome(f, alias)

	case nil:
		return nil, fmt.Errorf("sqlgen: missing filter")
	}
	return nil, fmt.Errorf("sqlgen: unknown filter type %T", f)
}

func (c *compiler) filters(fs []planfilter.Filter, alias string, inRelation bool) ([]sqldsl.Expr, error) {
	if len(fs) == 0 {
		return nil, fmt.Errorf("sqlgen: empty composite filter")
	}
	exprs := make([]sqldsl.Expr, len(fs))
	for i, f := range fs {
		e, err := c.filter(f, alias, inRelation)
		if err != nil {
			return nil, err
		}
		exprs[i] = e
	}
	return exprs, nil
}

func (c *compiler) predicate(col sqldsl.Col, p planfilter.FieldPredicate) (sqldsl.Expr, error) {
	if p.Op == planfilter.PredIn {
		list, ok := p.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s in expects a list, got %T", ErrUnsupportedValue, p.Field, p.Value)
		}
		values := make([]sqldsl.Expr, len(list))
		for i, v := range list {
			values[i] = c.params.Add(v)
		}
		return sqldsl.In{Expr: col, Values: values}, nil
	}

	if _, isList := p.Value.([]any); isList {
		return nil, fmt.Errorf("%w: %s %s does not accept a list", ErrUnsupportedValue, p.Field, p.Op)
	}

	switch p.Op {
	case planfilter.PredEquals:
		if p.Value == nil {
			return sqldsl.IsNull{Expr: col}, nil
		}
		return sqldsl.Eq{Left: col, Right: c.params.Add(p.Value)}, nil
	case planfilter.PredNot:
		// Rows where the field is NULL are "not equal" to any value.
		if p.Value == nil {
			return sqldsl.IsNotNull{Expr: col}, nil
		}
		return sqldsl.DistinctFrom{Left: col, Right: c.params.Add(p.Value)}, nil
	case planfilter.PredLt, planfilter.PredLte, planfilter.PredGt, planfilter.PredGte:
		if p.Value == nil {
			return nil, fmt.Errorf("%w: %s %s null", ErrUnsupportedValue, p.Field, p.Op)
		}
		arg := c.params.Add(p.Value)
		switch p.Op {
		case planfilter.PredLt:
			return sqldsl.Lt{Left: col, Right: arg}, nil
		case planfilter.PredLte:
			return sqldsl.Lte{Left: col, Right: arg}, nil
		case planfilter.PredGt:
			return sqldsl.Gt{Left: col, Right: arg}, nil
		default:
			return sqldsl.Gte{Left: col, Right: arg}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedPredicate, p.Op)
}

// relationSome renders EXISTS over the related rows of the parent row.
func (c *compiler) relationSome(r planfilter.RelationSome, parent string) (sqldsl.Expr, error) {
	join, ok := c.schema.Relations[r.Relation]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRelation, r.Relation)
	}

	related, link := c.nextAliases()
	parentKey := sqldsl.Col{Table: parent, Column: c.schema.primaryKey()}

	inner, err := c.filter(r.Filter, related, true)
	if err != nil {
		return nil, err
	}

	if join.Through == nil {
		if join.ForeignKey == "" {
			return nil, fmt.Errorf("%w: relation %q: foreign_key or through is required", ErrInvalidSchema, r.Relation)
		}
		return sqldsl.Exists{Query: sqldsl.SelectStmt{
			From: sqldsl.TableAs(join.Table, related),
			Where: sqldsl.And(
				sqldsl.Eq{Left: sqldsl.Col{Table: related, Column: join.ForeignKey}, Right: parentKey},
				inner,
			),
		}}, nil
	}

	return sqldsl.Exists{Query: sqldsl.SelectStmt{
		From: sqldsl.TableAs(join.Through.Table, link),
		Joins: []sqldsl.JoinClause{{
			Table: sqldsl.TableAs(join.Table, related),
			On: sqldsl.Eq{
				Left:  sqldsl.Col{Table: related, Column: join.primaryKey()},
				Right: sqldsl.Col{Table: link, Column: join.Through.TargetKey},
			},
		}},
		Where: sqldsl.And(
			sqldsl.Eq{Left: sqldsl.Col{Table: link, Column: join.Through.SourceKey}, Right: parentKey},
			inner,
		),
	}}, nil
}

// nextAliases returns the related and join-table aliases for the next
// subquery. Numbers whose aliases equal the parent alias are skipped, since
// the inner alias would shadow the parent inside the subquery.
func (c *compiler) nextAliases() (related, link string) {
	parent := c.schema.alias()
	for {
		c.aliases++
		related = fmt.Sprintf("r%d", c.aliases)
		link = fmt.Sprintf("j%d", c.aliases)
		if related != parent && link != parent {
			return related, link
		}
	}
}
