// Package planjson decodes plan-resources responses emitted by the policy
// engine into planfilter plans.
//
// Both the full response and the bare filter are accepted, as JSON or YAML:
//
//	{
//	  "requestId": "1",
//	  "filter": {
//	    "kind": "KIND_CONDITIONAL",
//	    "condition": {
//	      "expression": {
//	        "operator": "eq",
//	        "operands": [
//	          {"variable": "request.resource.attr.aBool"},
//	          {"value": true}
//	        ]
//	      }
//	    }
//	  }
//	}
//
// A response without a filter decodes as always denied.
package planjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/pthm/planfilter"
)

// ErrInvalidPlan is returned when the document is not a plan-resources
// response the decoder understands.
var ErrInvalidPlan = errors.New("planjson: invalid plan")

type response struct {
	Filter *filter `json:"filter"`

	// Bare filter documents carry these at the top level.
	Kind      string   `json:"kind"`
	Condition *operand `json:"condition"`
}

type filter struct {
	Kind      string   `json:"kind"`
	Condition *operand `json:"condition"`
}

type operand struct {
	Variable   *string         `json:"variable"`
	Value      json.RawMessage `json:"value"`
	Expression *operand        `json:"expression"`
	Operator   string          `json:"operator"`
	Operands   []operand       `json:"operands"`
}

// Decode parses a JSON or YAML plan-resources response or filter.
// JSON input is decoded as is so numeric literals keep their exact text.
func Decode(data []byte) (planfilter.Plan, error) {
	js := data
	if !json.Valid(data) {
		var err error
		if js, err = yaml.YAMLToJSON(data); err != nil {
			return planfilter.Plan{}, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
		}
	}

	var resp response
	if err := json.Unmarshal(js, &resp); err != nil {
		return planfilter.Plan{}, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	f := resp.Filter
	if f == nil && resp.Kind != "" {
		f = &filter{Kind: resp.Kind, Condition: resp.Condition}
	}
	if f == nil {
		return planfilter.DenyAll(), nil
	}
	return f.plan()
}

// DecodeReader reads r fully and decodes it.
func DecodeReader(r io.Reader) (planfilter.Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return planfilter.Plan{}, fmt.Errorf("reading plan: %w", err)
	}
	return Decode(data)
}

// DecodeFile decodes the plan stored at path.
func DecodeFile(path string) (planfilter.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return planfilter.Plan{}, fmt.Errorf("reading plan: %w", err)
	}
	return Decode(data)
}

// ParseKind accepts the engine's kind spellings: KIND_ALWAYS_ALLOWED,
// ALWAYS_ALLOWED, always_allowed and so on.
func ParseKind(s string) (planfilter.PlanKind, error) {
	k := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "KIND_")
	switch k {
	case "ALWAYS_ALLOWED":
		return planfilter.KindAlwaysAllowed, nil
	case "ALWAYS_DENIED":
		return planfilter.KindAlwaysDenied, nil
	case "CONDITIONAL":
		return planfilter.KindConditional, nil
	}
	return planfilter.KindUnset, fmt.Errorf("%w: unknown filter kind %q", ErrInvalidPlan, s)
}

func (f *filter) plan() (planfilter.Plan, error) {
	kind, err := ParseKind(f.Kind)
	if err != nil {
		return planfilter.Plan{}, err
	}
	if kind != planfilter.KindConditional {
		return planfilter.Plan{Kind: kind}, nil
	}
	if f.Condition == nil {
		return planfilter.Plan{}, fmt.Errorf("%w: conditional filter without condition", ErrInvalidPlan)
	}
	cond, err := f.Condition.operand()
	if err != nil {
		return planfilter.Plan{}, err
	}
	return planfilter.Conditional(cond), nil
}

func (o *operand) operand() (planfilter.Operand, error) {
	switch {
	case o.Expression != nil:
		return o.Expression.operand()
	case o.Operator != "":
		operands := make([]planfilter.Operand, len(o.Operands))
		for i := range o.Operands {
			op, err := o.Operands[i].operand()
			if err != nil {
				return nil, err
			}
			operands[i] = op
		}
		return planfilter.Expr(planfilter.Operator(o.Operator), operands...), nil
	case o.Variable != nil:
		return planfilter.Var(*o.Variable), nil
	case o.Value != nil:
		return decodeValue(o.Value)
	}
	return nil, fmt.Errorf("%w: operand has no expression, variable or value", ErrInvalidPlan)
}

func decodeValue(raw json.RawMessage) (planfilter.Literal, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return planfilter.Literal{}, fmt.Errorf("%w: value: %v", ErrInvalidPlan, err)
	}

	v, err := numbers(v)
	if err != nil {
		return planfilter.Literal{}, fmt.Errorf("%w: value: %v", ErrInvalidPlan, err)
	}
	lit, err := planfilter.NewLiteral(v)
	if err != nil {
		return planfilter.Literal{}, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	return lit, nil
}

// numbers replaces json.Number with int64 when integral, float64 otherwise.
// Integers outside the int64 range are rejected rather than rounded.
// Objects are left untouched and rejected by NewLiteral.
func numbers(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		if !strings.ContainsAny(x.String(), ".eE") {
			return nil, fmt.Errorf("integer %s out of range", x)
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", x, err)
		}
		return f, nil
	case []any:
		for i := range x {
			n, err := numbers(x[i])
			if err != nil {
				return nil, err
			}
			x[i] = n
		}
		return x, nil
	}
	return v, nil
}
