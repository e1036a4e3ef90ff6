package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New("42P01", "relation does not exist").WithTable("orders")
	assert.Contains(t, err.Error(), "SQLSTATE 42P01")
	assert.NotContains(t, err.Error(), "DETAIL")

	err = err.WithDetailf("relation %q was dropped", "orders")
	assert.Contains(t, err.Error(), "DETAIL")
	assert.Equal(t, "orders", err.Table)
}

func TestOptimizerErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		code string
		pred func(error) bool
	}{
		{NoPhysicalPlan("no candidates"), CodeNoPhysicalPlan, IsNoPhysicalPlan},
		{Cancelled("context canceled"), CodeCancelled, IsCancelled},
		{DeadlineExceeded("10ms deadline"), CodeDeadlineExceeded, IsDeadlineExceeded},
		{Internal("unreachable match"), CodeInternal, IsInternal},
		{Catalog(fmt.Errorf("boom")), CodeCatalog, IsCatalog},
		{BindingInvariantViolation("missing child"), CodeBindingInvariant, func(e error) bool {
			return CodeOf(e) == CodeBindingInvariant
		}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, CodeOf(tt.err))
		assert.True(t, tt.pred(tt.err))
		assert.False(t, IsNoPhysicalPlan(fmt.Errorf("plain")))
	}
}

func TestWrappedCauseUnwraps(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Catalog(cause)

	assert.True(t, errors.Is(err, cause))

	var e *Error
	require.True(t, errors.As(fmt.Errorf("outer: %w", err), &e))
	assert.Equal(t, CodeCatalog, e.Code)
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, "", CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, "", CodeOf(nil))
}
