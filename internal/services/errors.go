// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/javajoker/abc-retail/internal/storage"
)

var (
	ErrNotFound    = storage.ErrNotFound
	ErrConflict    = storage.ErrConflict
	ErrUnavailable = storage.ErrUnavailable

	ErrValidation       = errors.New("validation failed")
	ErrUnauthenticated  = errors.New("identity required")
	ErrEmptyCart        = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrOutOfStock       = fmt.Errorf("%w: product is out of stock", ErrValidation)
	ErrInvalidStatus    = fmt.Errorf("%w: order status does not allow this action", ErrValidation)
	ErrMalformedMessage = errors.New("malformed queue message")
	ErrUnknownQueue     = fmt.Errorf("%w: unknown queue", ErrNotFound)
)

// FieldError reports a validation failure tied to one input field.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// WorkflowError names the step of a multi-step workflow that failed. Steps
// completed before it are not rolled back.
type WorkflowError struct {
	Workflow string
	Step     string
	EntityID string
	Err      error
}

func (e *WorkflowError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s (%s) failed at %s: %v", e.Workflow, e.EntityID, e.Step, e.Err)
	}
	return fmt.Sprintf("%s failed at %s: %v", e.Workflow, e.Step, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}
