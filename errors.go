package planfilter

import (
	"errors"
	"fmt"
)

// Sentinel errors for translation failures.
// Every failure aborts the whole translation: there is never a partial filter.
// Callers must treat any of these as "cannot determine access" and deny.
//
// Use the Is*Err helper functions, or errors.Is, to check for a specific kind.
var (
	// ErrUnmappedField is returned when a plain attribute path has no
	// Field Mapping entry.
	ErrUnmappedField = errors.New("planfilter: unmapped field")

	// ErrUnmappedRelation is returned when a relation-quantified attribute
	// path has no Relation Mapping entry.
	ErrUnmappedRelation = errors.New("planfilter: unmapped relation")

	// ErrUnsupportedOperator is returned when the expression tree uses an
	// operator the translator does not recognise.
	ErrUnsupportedOperator = errors.New("planfilter: unsupported operator")

	// ErrMalformedExpression is returned for arity mismatches, wrong operand
	// kinds, empty composites and leaves used as the translation root.
	ErrMalformedExpression = errors.New("planfilter: malformed expression")

	// ErrAmbiguousMapping is returned when a path is present in both the
	// Field Mapping and the Relation Mapping.
	ErrAmbiguousMapping = errors.New("planfilter: ambiguous mapping")
)

// TranslationError describes where a translation failed.
// It unwraps to one of the sentinel errors above.
type TranslationError struct {
	Kind     error
	Operator Operator // empty when not tied to an operator
	Path     string   // empty when not tied to an attribute path
	Reason   string
}

func (e *TranslationError) Error() string {
	msg := e.Kind.Error()
	if e.Operator != "" {
		msg += fmt.Sprintf(" (operator %q)", e.Operator)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (path %q)", e.Path)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TranslationError) Unwrap() error {
	return e.Kind
}

func malformed(op Operator, format string, args ...any) error {
	return &TranslationError{Kind: ErrMalformedExpression, Operator: op, Reason: fmt.Sprintf(format, args...)}
}

// IsUnmappedFieldErr returns true if err is or wraps ErrUnmappedField.
func IsUnmappedFieldErr(err error) bool {
	return errors.Is(err, ErrUnmappedField)
}

// IsUnmappedRelationErr returns true if err is or wraps ErrUnmappedRelation.
func IsUnmappedRelationErr(err error) bool {
	return errors.Is(err, ErrUnmappedRelation)
}

// IsUnsupportedOperatorErr returns true if err is or wraps ErrUnsupportedOperator.
func IsUnsupportedOperatorErr(err error) bool {
	return errors.Is(err, ErrUnsupportedOperator)
}

// IsMalformedExpressionErr returns true if err is or wraps ErrMalformedExpression.
func IsMalformedExpressionErr(err error) bool {
	return errors.Is(err, ErrMalformedExpression)
}

// IsAmbiguousMappingErr returns true if err is or wraps ErrAmbiguousMapping.
func IsAmbiguousMappingErr(err error) bool {
	return errors.Is(err, ErrAmbiguousMapping)
}
