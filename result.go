package planfilter

import "encoding/json"

// Result is the outcome of translating a plan.
//
//   - KindAlwaysAllowed: Filter is nil. Issue the query unfiltered.
//   - KindAlwaysDenied: Filter is nil. Skip the query and return no records.
//   - KindConditional: Filter holds the predicate records must satisfy.
type Result struct {
	Kind   PlanKind
	Filter Filter
}

// Allowed reports whether every record is visible.
func (r Result) Allowed() bool { return r.Kind == KindAlwaysAllowed }

// Denied reports whether no record is visible. Callers must not issue a query.
func (r Result) Denied() bool { return r.Kind == KindAlwaysDenied }

// MarshalJSON renders the result envelope:
//
//	{"kind": "ALWAYS_ALLOWED", "filters": {}}
//	{"kind": "ALWAYS_DENIED"}
//	{"kind": "CONDITIONAL", "filters": {...}}
func (r Result) MarshalJSON() ([]byte, error) {
	type envelope struct {
		Kind    string `json:"kind"`
		Filters any    `json:"filters,omitempty"`
	}
	switch r.Kind {
	case KindAlwaysAllowed:
		return json.Marshal(envelope{Kind: r.Kind.String(), Filters: struct{}{}})
	case KindConditional:
		return json.Marshal(envelope{Kind: r.Kind.String(), Filters: r.Filter})
	}
	return json.Marshal(envelope{Kind: r.Kind.String()})
}
