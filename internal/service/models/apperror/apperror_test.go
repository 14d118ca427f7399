package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "validation", err: Validation("quantity must be positive"), want: KindValidation},
		{name: "not found", err: NotFound("product with id %d not found", 7), want: KindNotFound},
		{name: "conflict", err: Conflict(errors.New("fk"), "product is in use"), want: KindConflict},
		{name: "internal", err: Internal(errors.New("boom"), "failed"), want: KindInternal},
		{name: "wrapped not found", err: fmt.Errorf("get order: %w", NotFound("order not found")), want: KindNotFound},
		{name: "unclassified", err: errors.New("plain"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestInternalKeepsClassifiedErrors(t *testing.T) {
	notFound := NotFound("order with id %d not found", 3)

	err := Internal(notFound, "failed to load order")

	assert.Same(t, notFound, err)
	assert.True(t, IsNotFound(err))
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause, "failed to create order")

	assert.Equal(t, "failed to create order: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "failed to create order", appErr.Message)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsValidation(Validation("bad")))
	assert.False(t, IsValidation(NotFound("missing")))
	assert.True(t, IsConflict(Conflict(nil, "in use")))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.Equal(t, "not_found", KindNotFound.String())
}
