package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"foreign", errors.New("boom"), KindUnknown},
		{"not found", NotFound("recipe", "r1"), KindNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", NotFound("recipe", "r1")), KindNotFound},
		{"invalid", Invalid("batch_multiplier", "must be greater than zero"), KindInvalidInput},
		{"validation", &ValidationError{Errors: []string{"name is required"}}, KindInvalidInput},
		{"stock", &InsufficientStockError{Item: "ingredient", ID: "flour"}, KindInsufficientStock},
		{"conflict", &ConflictError{Entity: "ingredient", ID: "flour", Reason: "in use"}, KindConflict},
		{"tx", &TransactionFailure{Op: "produce", Err: errors.New("conn reset")}, KindTransactionFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestTransactionFailure_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("produce: %w", &TransactionFailure{Op: "commit", Err: cause})

	assert.True(t, errors.Is(err, ErrTransactionFailed))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsRetryable(err))
	assert.False(t, IsRetryable(NotFound("recipe", "x")))
}

func TestInsufficientStockError_Message(t *testing.T) {
	err := &InsufficientStockError{
		Item:      "ingredient",
		ID:        "sugar",
		Requested: decimal.RequireFromString("2.5"),
		Available: decimal.RequireFromString("1"),
	}

	assert.Equal(t, `insufficient stock for ingredient "sugar": requested 2.5, available 1`, err.Error())

	var target *InsufficientStockError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &target))
	assert.Equal(t, "sugar", target.ID)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Errors: []string{"name is required", "yield_quantity must be greater than zero"}}
	assert.Equal(t, "validation failed: name is required; yield_quantity must be greater than zero", err.Error())
	assert.True(t, IsDomain(err))
}
