package rock

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidInputError reports a missing, malformed or out-of-domain input value.
type InvalidInputError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s=%v %s", e.Field, e.Value, e.Reason)
}

// NewInvalidInputError builds an InvalidInputError carrying the caller's stack.
func NewInvalidInputError(field string, value interface{}, reason string) error {
	return errors.WithStack(&InvalidInputError{
		Field:  field,
		Value:  value,
		Reason: reason,
	})
}

// IsInvalidInput extracts the InvalidInputError from an error chain
func IsInvalidInput(err error) (*InvalidInputError, bool) {
	var invalid *InvalidInputError
	if errors.As(err, &invalid) {
		return invalid, true
	}
	return nil, false
}
