// Package apperror defines the error taxonomy shared by every layer of the service.
package apperror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can
// branch with errors.Is without knowing the concrete type.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrTransactionFailed = errors.New("transaction failed")
)

// Kind classifies an error for transport mapping and logging.
type Kind string

const (
	KindUnknown            Kind = "unknown"
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
	KindInsufficientStock  Kind = "insufficient_stock"
	KindConflict           Kind = "conflict"
	KindTransactionFailure Kind = "transaction_failure"
)

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound is shorthand for &NotFoundError{...}.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InvalidInputError reports a single malformed field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// Invalid is shorthand for &InvalidInputError{...}.
func Invalid(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// ValidationError carries every rule violated by a request, not only the first.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// InsufficientStockError names the stock item that blocked an operation.
// Item is "ingredient" for production shortfalls and "finished_good" for sales.
type InsufficientStockError struct {
	Item      string
	ID        string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s %q: requested %s, available %s",
		e.Item, e.ID, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ConflictError reports an operation rejected by the current state of an entity,
// e.g. deleting an ingredient still referenced by a recipe.
type ConflictError struct {
	Entity string
	ID     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Entity, e.ID, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// TransactionFailure wraps a failure of the atomic commit itself. The unit of
// work has been rolled back and the call is safe to retry.
type TransactionFailure struct {
	Op  string
	Err error
}

func (e *TransactionFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: transaction failed", e.Op)
	}
	return fmt.Sprintf("%s: transaction failed: %v", e.Op, e.Err)
}

func (e *TransactionFailure) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransactionFailed}
	}
	return []error{ErrTransactionFailed, e.Err}
}

// KindOf returns the classification of err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrTransactionFailed):
		return KindTransactionFailure
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindUnknown
	}
}

// IsNotFound returns true if err is, or wraps, a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDomain reports whether err belongs to the taxonomy above. Anything else
// coming out of a store is treated as an infrastructure failure.
func IsDomain(err error) bool {
	return KindOf(err) != KindUnknown
}

// IsRetryable returns true if the operation can be retried as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}
