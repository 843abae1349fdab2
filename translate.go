package planfilter

import (
	"fmt"
)

// comparisonOps maps the engine's binary comparison operators to the
// predicate operator of the target DSL.
var comparisonOps = map[Operator]PredicateOp{
	OpEq: PredEquals,
	OpNe: PredNot,
	OpLt: PredLt,
	OpLe: PredLte,
	OpGt: PredGt,
	OpGe: PredGte,
	OpIn: PredIn,
}

// Translate classifies the plan and, for conditional plans, translates its
// condition.
func (t *Translator) Translate(p Plan) (Result, error) {
	switch p.Kind {
	case KindAlwaysAllowed, KindAlwaysDenied:
		return Result{Kind: p.Kind}, nil
	case KindConditional:
		if p.Condition == nil {
			return Result{}, malformed("", "conditional plan without a condition")
		}
		f, err := t.TranslateExpr(p.Condition)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: KindConditional, Filter: f}, nil
	}
	return Result{}, malformed("", "unknown plan kind %d", p.Kind)
}

// TranslateExpr translates a condition tree into a Filter.
// The root must be a Call; a bare variable or value is malformed.
func (t *Translator) TranslateExpr(root Operand) (Filter, error) {
	return t.translate(root, nil)
}

func (t *Translator) translate(o Operand, scope *relationScope) (Filter, error) {
	c, ok := o.(Call)
	if !ok {
		if o == nil {
			return nil, malformed("", "missing expression")
		}
		return nil, malformed("", "%s cannot be translated on its own", o)
	}

	switch c.Operator {
	case OpAnd, OpOr:
		if len(c.Operands) < 2 {
			return nil, malformed(c.Operator, "expected at least 2 operands, got %d", len(c.Operands))
		}
		filters := make([]Filter, 0, len(c.Operands))
		for _, operand := range c.Operands {
			f, err := t.translate(operand, scope)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		}
		return newComposite(c.Operator, filters)

	case OpNot:
		if len(c.Operands) != 1 {
			return nil, malformed(c.Operator, "expected 1 operand, got %d", len(c.Operands))
		}
		f, err := t.translate(c.Operands[0], scope)
		if err != nil {
			return nil, err
		}
		return NotFilter{Filter: f}, nil

	case OpExists:
		return t.translateExists(c, scope)

	case OpLambda:
		return nil, malformed(c.Operator, "lambda is only valid as the body of exists")
	}

	return t.translateComparison(c, scope)
}

func (t *Translator) translateComparison(c Call, scope *relationScope) (Filter, error) {
	override, overridden := t.overrides[c.Operator]
	pred, builtin := comparisonOps[c.Operator]
	if !overridden && !builtin {
		return nil, &TranslationError{Kind: ErrUnsupportedOperator, Operator: c.Operator}
	}

	variable, literal, err := classifyOperands(c)
	if err != nil {
		return nil, err
	}

	field, err := t.resolveField(c.Operator, variable.Path, scope)
	if err != nil {
		return nil, err
	}

	if overridden {
		f, err := override(field, literal.Value)
		if err != nil {
			return nil, fmt.Errorf("planfilter: operator %q override: %w", c.Operator, err)
		}
		if f == nil {
			return nil, malformed(c.Operator, "override returned no filter for %q", field)
		}
		return f, nil
	}

	if c.Operator == OpIn && !literal.IsList() {
		return nil, malformed(c.Operator, "expected a list value, got %s", literal)
	}
	return FieldPredicate{Field: field, Op: pred, Value: literal.Value}, nil
}

func (t *Translator) resolveField(op Operator, path string, scope *relationScope) (string, error) {
	if scope != nil {
		return scope.resolveField(path)
	}
	if t.mapping.isRelation(path) {
		return "", &TranslationError{
			Kind:     ErrMalformedExpression,
			Operator: op,
			Path:     path,
			Reason:   "relation-mapped paths can only be used with exists",
		}
	}
	return t.mapping.ResolveField(path)
}

// translateExists handles exists(relation, body). The body is either a
// predicate over the related entity or lambda(predicate, Variable(x)).
func (t *Translator) translateExists(c Call, scope *relationScope) (Filter, error) {
	if scope != nil {
		return nil, malformed(c.Operator, "nested exists inside relation %q", scope.relation.Name)
	}
	if len(c.Operands) != 2 {
		return nil, malformed(c.Operator, "expected 2 operands, got %d", len(c.Operands))
	}

	var (
		relVar *Variable
		body   *Call
	)
	for _, o := range c.Operands {
		switch x := o.(type) {
		case Variable:
			if relVar == nil {
				relVar = &x
				continue
			}
		case Call:
			if body == nil {
				body = &x
				continue
			}
		}
		return nil, malformed(c.Operator, "expected a relation variable and a predicate, got %s", c)
	}

	rel, err := t.mapping.ResolveRelation(relVar.Path)
	if err != nil {
		return nil, err
	}

	inner := relationScope{path: relVar.Path, relation: rel}
	predicate := Operand(*body)
	if body.Operator == OpLambda {
		if len(body.Operands) != 2 {
			return nil, malformed(OpLambda, "expected 2 operands, got %d", len(body.Operands))
		}
		bound, ok := body.Operands[1].(Variable)
		if !ok {
			return nil, malformed(OpLambda, "second operand must be the bound variable")
		}
		inner.bound = bound.Path
		predicate = body.Operands[0]
	}

	f, err := t.translate(predicate, &inner)
	if err != nil {
		return nil, err
	}
	return RelationSome{Relation: rel.Name, Filter: f}, nil
}
