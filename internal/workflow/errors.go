package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when no transition row matches the
	// current status, actor role and action.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrValidation is returned when a legal action lacks required data.
	ErrValidation = errors.New("validation failed")
)

// ValidationError names the offending field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
