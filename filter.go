package planfilter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PredicateOp is the comparison applied by a FieldPredicate.
type PredicateOp string

// Predicate operators of the target filter DSL.
const (
	PredEquals PredicateOp = "equals"
	PredNot    PredicateOp = "not"
	PredIn     PredicateOp = "in"
	PredGt     PredicateOp = "gt"
	PredGte    PredicateOp = "gte"
	PredLt     PredicateOp = "lt"
	PredLte    PredicateOp = "lte"
)

// Filter is a node of the translated predicate. It is a closed sum type:
// FieldPredicate, AndFilter, OrFilter, NotFilter and RelationSome.
//
// Filters marshal to the relational-filter JSON shape:
//
//	{"aBool": {"equals": true}}
//	{"AND": [...]}, {"OR": [...]}, {"NOT": {...}}
//	{"owners": {"some": {...}}}
type Filter interface {
	json.Marshaler
	isFilter()
	String() string
}

// FieldPredicate compares a single field of the record with a value.
type FieldPredicate struct {
	Field string
	Op    PredicateOp
	Value any
}

// AndFilter matches records satisfying every child filter.
type AndFilter struct {
	Filters []Filter
}

// OrFilter matches records satisfying at least one child filter.
type OrFilter struct {
	Filters []Filter
}

// NotFilter matches records not satisfying Filter.
type NotFilter struct {
	Filter Filter
}

// RelationSome matches records with at least one related record (through
// Relation) satisfying Filter.
type RelationSome struct {
	Relation string
	Filter   Filter
}

func (FieldPredicate) isFilter() {}
func (AndFilter) isFilter()      {}
func (OrFilter) isFilter()       {}
func (NotFilter) isFilter()      {}
func (RelationSome) isFilter()   {}

// Field builds a FieldPredicate.
func Field(field string, op PredicateOp, value any) FieldPredicate {
	return FieldPredicate{Field: field, Op: op, Value: value}
}

// And combines filters with logical AND.
func And(filters ...Filter) AndFilter { return AndFilter{Filters: filters} }

// Or combines filters with logical OR.
func Or(filters ...Filter) OrFilter { return OrFilter{Filters: filters} }

// Not negates a filter.
func Not(f Filter) NotFilter { return NotFilter{Filter: f} }

// Some builds a RelationSome.
func Some(relation string, f Filter) RelationSome {
	return RelationSome{Relation: relation, Filter: f}
}

// newComposite is the single place composite filters are assembled during
// translation. Composites are never empty.
func newComposite(op Operator, filters []Filter) (Filter, error) {
	if len(filters) == 0 {
		return nil, malformed(op, "composite filter without operands")
	}
	switch op {
	case OpAnd:
		return AndFilter{Filters: filters}, nil
	case OpOr:
		return OrFilter{Filters: filters}, nil
	}
	return nil, &TranslationError{Kind: ErrUnsupportedOperator, Operator: op}
}

// =============================================================================
// JSON
// =============================================================================

func (p FieldPredicate) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[PredicateOp]any{
		p.Field: {p.Op: p.Value},
	})
}

func (a AndFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]Filter{"AND": a.Filters})
}

func (o OrFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]Filter{"OR": o.Filters})
}

func (n NotFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]Filter{"NOT": n.Filter})
}

func (r RelationSome) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]Filter{
		r.Relation: {"some": r.Filter},
	})
}

// =============================================================================
// Debug rendering
// =============================================================================

func (p FieldPredicate) String() string {
	return fmt.Sprintf("%s %s %s", p.Field, p.Op, Literal{Value: p.Value})
}

func (a AndFilter) String() string { return joinFilters("AND", a.Filters) }

func (o OrFilter) String() string { return joinFilters("OR", o.Filters) }

func (n NotFilter) String() string { return "NOT (" + n.Filter.String() + ")" }

func (r RelationSome) String() string {
	return r.Relation + " SOME (" + r.Filter.String() + ")"
}

func joinFilters(sep string, filters []Filter) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, " "+sep+" ") + ")"
}
