package planfilter

// PlanKind tags a query plan with its outcome.
type PlanKind int

const (
	// KindUnset is the zero value. Translating a plan with this kind fails.
	KindUnset PlanKind = iota

	// KindAlwaysAllowed means every record is visible; no filter is needed.
	KindAlwaysAllowed

	// KindAlwaysDenied means no record is visible. Callers must skip the
	// query entirely and return zero records.
	KindAlwaysDenied

	// KindConditional means records are visible when they satisfy the
	// plan's condition.
	KindConditional
)

// String returns the kind name used in the JSON result envelope.
func (k PlanKind) String() string {
	switch k {
	case KindAlwaysAllowed:
		return "ALWAYS_ALLOWED"
	case KindAlwaysDenied:
		return "ALWAYS_DENIED"
	case KindConditional:
		return "CONDITIONAL"
	default:
		return "UNSET"
	}
}

// Plan is the policy engine's answer to "which resources of this kind may the
// principal act on". Condition is only meaningful for KindConditional.
type Plan struct {
	Kind      PlanKind
	Condition Operand
}

// AllowAll returns an always-allowed plan.
func AllowAll() Plan {
	return Plan{Kind: KindAlwaysAllowed}
}

// DenyAll returns an always-denied plan.
func DenyAll() Plan {
	return Plan{Kind: KindAlwaysDenied}
}

// Conditional returns a plan restricted by the given condition.
func Conditional(condition Operand) Plan {
	return Plan{Kind: KindConditional, Condition: condition}
}
