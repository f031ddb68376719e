package pricing

import (
	"errors"
	"fmt"

	"pedidos-restaurante/models"
)

// ValidationError reports a malformed cart request
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a catalog id referenced by the cart that does not exist
// or was soft-deleted
type NotFoundError struct {
	Entity string // "product" or "package"
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Entity, e.ID)
}

// TypeMismatchError reports an id that resolves to the wrong kind of record,
// e.g. a discount promotion sent as a packageId
type TypeMismatchError struct {
	ID       string
	Expected models.RecordType
	Actual   models.RecordType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("id '%s' does not correspond to a %s (found %s)", e.ID, e.Expected, e.Actual)
}

// IsClientError reports whether err was caused by the caller's input
func IsClientError(err error) bool {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		mismatchErr   *TypeMismatchError
	)
	return errors.As(err, &validationErr) || errors.As(err, &notFoundErr) || errors.As(err, &mismatchErr)
}
