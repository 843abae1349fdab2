// Package planfilter translates authorization query plans into record filters.
//
// A policy engine answers "which resources of this kind may this principal
// act on?" with a query plan: always allowed, always denied, or conditional on
// a boolean expression over symbolic attribute paths such as
// request.resource.attr.owner. planfilter turns that expression into a filter
// in the shape of a relational-filter DSL, so a data-access layer can enforce
// authorization in the query itself instead of post-filtering records.
//
// # Core Concepts
//
// Plans carry a condition tree built from three operand kinds:
//
//	planfilter.Expr(planfilter.OpEq, planfilter.Var("request.resource.attr.aBool"), planfilter.Lit(true))
//
// A Mapping bridges the engine's attribute namespace and the store's schema:
//
//	mapping := planfilter.Mapping{
//	    Fields: map[string]string{
//	        "request.resource.attr.aBool": "aBool",
//	    },
//	    Relations: map[string]planfilter.Relation{
//	        "request.resource.attr.owners": {Name: "owners", Field: "id"},
//	    },
//	}
//
// # Basic Usage
//
//	result, err := planfilter.Translate(plan, mapping)
//	if err != nil {
//	    // Fail closed: treat as denied.
//	}
//	switch {
//	case result.Denied():
//	    return nil // do not query
//	case result.Allowed():
//	    // query without a filter
//	default:
//	    // apply result.Filter
//	}
//
// # Failure Semantics
//
// Translation never drops a condition it cannot map: an unmapped path, an
// unknown operator or a malformed node aborts the whole translation with an
// error wrapping one of the sentinel errors. Dropping a condition would widen
// access.
//
// # Rendering
//
// Filters marshal to the relational-filter JSON shape. The pkg/compiler
// package renders them as parameterized PostgreSQL and pkg/store runs them.
package planfilter

// FieldFunc builds the filter for a binary comparison on an already resolved
// field. Registered with WithOperator.
type FieldFunc func(field string, value any) (Filter, error)

// Translator converts plans into filters using a fixed Mapping.
//
// A Translator copies its mapping at construction and holds no other state, so
// it is safe for concurrent use and can be shared across requests.
type Translator struct {
	mapping   Mapping
	overrides map[Operator]FieldFunc
}

// Option configures a Translator.
type Option func(*Translator)

// WithOperator registers fn for a binary comparison operator. It replaces the
// built-in mapping when op is one of eq, ne, lt, le, gt, ge or in, and adds
// support for op otherwise. The operands are still classified and the
// variable resolved before fn is called.
//
// Logical operators (and, or, not) and exists cannot be overridden; an option
// naming them has no effect.
func WithOperator(op Operator, fn FieldFunc) Option {
	return func(t *Translator) {
		if t.overrides == nil {
			t.overrides = make(map[Operator]FieldFunc)
		}
		t.overrides[op] = fn
	}
}

// NewTranslator creates a translator for the given mapping.
func NewTranslator(m Mapping, opts ...Option) *Translator {
	t := &Translator{mapping: m.clone()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate is a convenience wrapper around NewTranslator(m, opts...).Translate(p).
func Translate(p Plan, m Mapping, opts ...Option) (Result, error) {
	return NewTranslator(m, opts...).Translate(p)
}
