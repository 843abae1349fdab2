package planfilter

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Operator names a node of the expression tree.
type Operator string

// Operators the policy engine emits and the translator understands.
const (
	OpAnd    Operator = "and"
	OpOr     Operator = "or"
	OpNot    Operator = "not"
	OpEq     Operator = "eq"
	OpNe     Operator = "ne"
	OpLt     Operator = "lt"
	OpLe     Operator = "le"
	OpGt     Operator = "gt"
	OpGe     Operator = "ge"
	OpIn     Operator = "in"
	OpExists Operator = "exists"

	// OpLambda binds a variable for the body of an exists quantifier:
	// lambda(body, Variable(x)). It is only valid as the second operand of exists.
	OpLambda Operator = "lambda"
)

// Operand is a node of the expression tree. It is a closed sum type:
// the only implementations are Call, Variable and Literal.
type Operand interface {
	isOperand()
	String() string
}

// Call applies an operator to an ordered list of operands.
type Call struct {
	Operator Operator
	Operands []Operand
}

func (Call) isOperand() {}

// String renders the call in prefix form, e.g. eq(request.resource.attr.a, true).
func (c Call) String() string {
	parts := make([]string, len(c.Operands))
	for i, o := range c.Operands {
		parts[i] = o.String()
	}
	return string(c.Operator) + "(" + strings.Join(parts, ", ") + ")"
}

// Variable is a reference to a symbolic attribute path such as
// request.resource.attr.owner.
type Variable struct {
	Path string
}

func (Variable) isOperand() {}

func (v Variable) String() string { return v.Path }

// Literal is a constant value. Value is always one of nil, bool, int64,
// float64, string or []any holding values of those types.
// Use NewLiteral or Lit to build one from arbitrary Go values.
type Literal struct {
	Value any
}

func (Literal) isOperand() {}

func (l Literal) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = Literal{Value: e}.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

// IsList reports whether the literal holds a sequence.
func (l Literal) IsList() bool {
	_, ok := l.Value.([]any)
	return ok
}

// Expr builds a Call.
func Expr(op Operator, operands ...Operand) Call {
	return Call{Operator: op, Operands: operands}
}

// Var builds a Variable.
func Var(path string) Variable {
	return Variable{Path: path}
}

// Lit builds a Literal and panics if v cannot be represented.
// Intended for tests and static plans; use NewLiteral for untrusted input.
func Lit(v any) Literal {
	l, err := NewLiteral(v)
	if err != nil {
		panic(err)
	}
	return l
}

// NewLiteral normalizes v into a Literal. Integers become int64, floats
// become float64 (or int64 when integral and in range), slices become []any.
func NewLiteral(v any) (Literal, error) {
	n, err := normalizeValue(v)
	if err != nil {
		return Literal{}, err
	}
	return Literal{Value: n}, nil
}

func normalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool, string, int64:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		return normalizeFloat(x), nil
	case float32:
		return normalizeFloat(float64(x)), nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			n, err := normalizeValue(e)
			if err != nil {
				return nil, err
			}
			if _, nested := n.([]any); nested {
				return nil, fmt.Errorf("planfilter: nested list literals are not supported")
			}
			out[i] = n
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Float32, reflect.Float64:
		return normalizeFloat(rv.Float()), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(rv.Uint()), nil
	case reflect.Uint, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("planfilter: literal %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return normalizeValue(items)
	}
	return nil, fmt.Errorf("planfilter: unsupported literal type %T", v)
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}
