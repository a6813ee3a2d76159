package optimization

import "fmt"

// Error is an optimization error carrying the operation and component in
// which it occurred.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	switch {
	case e.Component != "" && e.Op != "":
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	case e.Component != "":
		prefix = e.Component
	case e.Op != "":
		prefix = e.Op
	}

	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		} else {
			msg = e.Err.Error()
		}
	}
	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, msg)
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewError creates a new optimization error with the given message.
func NewError(message string) *Error {
	return &Error{Message: message}
}

// NewErrorf creates a new optimization error with a formatted message.
func NewErrorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps an existing error with additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: message, Err: err}
}

// WrapErrorf wraps an existing error with additional formatted context.
// If err is nil, WrapErrorf returns nil.
func WrapErrorf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: fmt.Sprintf(format, args...), Err: err}
}

// ShapeError reports an acquisition function whose output violates the
// [n, 1] score-column contract. The caller supplied an incompatible
// function; this is not recoverable within the optimizer.
type ShapeError struct {
	// Rows, Cols is the observed output shape.
	Rows, Cols int
	// WantRows, WantCols is the required output shape.
	WantRows, WantCols int
}

// Error returns the string representation of the error.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("acquisition function returned an invalid shape: got [%d, %d], want [%d, %d]",
		e.Rows, e.Cols, e.WantRows, e.WantCols)
}

// UnsupportedSpaceError reports that no maximization strategy exists for
// the given search space kind. This is an extension gap: new space kinds
// opt in by implementing Maximizer.
type UnsupportedSpaceError struct {
	Space SearchSpace
}

// Error returns the string representation of the error.
func (e *UnsupportedSpaceError) Error() string {
	return fmt.Sprintf("maximization is not implemented for search space type %T", e.Space)
}

// InvalidSpaceTypeError reports a search space that was required to be a
// Box but is of another kind.
type InvalidSpaceTypeError struct {
	Space SearchSpace
}

// Error returns the string representation of the error.
func (e *InvalidSpaceTypeError) Error() string {
	return fmt.Sprintf("expected a box search space, got %T", e.Space)
}
