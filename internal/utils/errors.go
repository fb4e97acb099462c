package utils

import "fmt"

// ContextError represents an error annotated with the operation that failed.
type ContextError struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *ContextError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// WrapError creates a contextual error.
func WrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &ContextError{
		Context: context,
		Cause:   cause,
	}
}

// Unwrap provides compatibility with errors.Unwrap().
func (e *ContextError) Unwrap() error {
	return e.Cause
}

// KindError is a contextual error that also belongs to a category.
// Both the category sentinel and the cause match with errors.Is.
type KindError struct {
	Kind    error
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *KindError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Context)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Context, e.Cause)
}

// Unwrap returns both the category and the cause.
func (e *KindError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// KindErrorf creates a categorized error. cause may be nil.
func KindErrorf(kind, cause error, format string, args ...interface{}) error {
	return &KindError{
		Kind:    kind,
		Context: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}
