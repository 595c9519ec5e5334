package core

import (
	"errors"
	"fmt"
	"strings"
)

// errors on building and validating a step.
var (
	ErrStepNameRequired     = errors.New("step name must be specified")
	ErrStepNameInvalidChars = errors.New("step name must not contain path separators or be a relative path element")
	ErrStepNameDuplicate    = errors.New("step name must be unique")
	ErrUnknownExecutor      = errors.New("unknown executor type")
	ErrStepScriptRequired   = errors.New("step script is required")
	ErrStepScriptSyntax     = errors.New("step script is not valid shell")
	ErrStepOutputsRequired  = errors.New("step must declare at least one output")
	ErrInvalidEnvValue      = errors.New("env must be formatted as key=value")
)

// errors on running a batch.
var (
	ErrUnknownMode         = errors.New("mode must be set to `predict` or `align`")
	ErrInputLengthMismatch = errors.New("input_pdbs and alignment_dirs must be equal in length")
	ErrNoEntityName        = errors.New("path has no resolvable file name")
)

// NameResolutionError is returned when no entity name can be derived from a path.
type NameResolutionError struct {
	Path string
}

func (e *NameResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve entity name from %q: %v", e.Path, ErrNoEntityName)
}

func (e *NameResolutionError) Unwrap() error {
	return ErrNoEntityName
}

// IoError is a filesystem failure scoped to one entity.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// ErrorList is just a list of errors.
// It is used to collect multiple errors in validating a step.
type ErrorList []error

// ToStringList returns the list of errors as a slice of strings.
func (e *ErrorList) ToStringList() []string {
	errStrings := make([]string, len(*e))
	for i, err := range *e {
		errStrings[i] = err.Error()
	}
	return errStrings
}

// Error implements the error interface.
// It returns a string with all the errors separated by a semicolon.
func (e ErrorList) Error() string {
	errStrings := make([]string, len(e))
	for i, err := range e {
		errStrings[i] = err.Error()
	}
	return strings.Join(errStrings, "; ")
}

// Unwrap implements the errors.Unwrap interface.
func (e ErrorList) Unwrap() []error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ValidationError represents an error in a specific field of a step
type ValidationError struct {
	Field string
	Value any
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("field '%s': %v (value: %+v)", e.Field, e.Err, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps an error with field context.
func NewValidationError(field string, value any, err error) error {
	return &ValidationError{
		Field: field,
		Value: value,
		Err:   err,
	}
}
