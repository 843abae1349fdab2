package planfilter_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	pf "github.com/pthm/planfilter"
)

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name     string
		sentinel error
		is       func(error) bool
	}{
		{"IsUnmappedFieldErr", pf.ErrUnmappedField, pf.IsUnmappedFieldErr},
		{"IsUnmappedRelationErr", pf.ErrUnmappedRelation, pf.IsUnmappedRelationErr},
		{"IsUnsupportedOperatorErr", pf.ErrUnsupportedOperator, pf.IsUnsupportedOperatorErr},
		{"IsMalformedExpressionErr", pf.ErrMalformedExpression, pf.IsMalformedExpressionErr},
		{"IsAmbiguousMappingErr", pf.ErrAmbiguousMapping, pf.IsAmbiguousMappingErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(fmt.Errorf("wrapped: %w", tt.sentinel)))
			assert.True(t, tt.is(&pf.TranslationError{Kind: tt.sentinel}))
			assert.False(t, tt.is(errors.New("other error")))
		})
	}
}

func TestTranslationError_Error(t *testing.T) {
	err := &pf.TranslationError{
		Kind:     pf.ErrMalformedExpression,
		Operator: pf.OpIn,
		Path:     "request.resource.attr.a",
		Reason:   "expected a list value",
	}
	assert.Equal(t, `planfilter: malformed expression (operator "in") (path "request.resource.attr.a"): expected a list value`, err.Error())
	assert.Equal(t, "planfilter: unmapped field", (&pf.TranslationError{Kind: pf.ErrUnmappedField}).Error())
}
