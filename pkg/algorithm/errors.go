// Package algorithm defines the error taxonomy shared by the surface algorithms.
// Every failure raised by the flattener and the areal estimation converter is an
// *Error carrying one Kind and a short human-readable cause.
package algorithm

import "fmt"

// Kind classifies why an algorithm aborted
type Kind int

const (
	// PreconditionViolation covers missing or inconsistent inputs
	PreconditionViolation Kind = iota + 1
	// IslandsPresent means a closed topology has more than one connected piece
	IslandsPresent
	// BordersMissing means a required named or prefixed border was not found
	BordersMissing
	// StructureInvalid means the surface structure is neither left nor right
	StructureInvalid
	// GeometryDegenerate is an unrecoverable degeneracy in the geometry
	GeometryDegenerate
	// PersistenceFailure wraps a file write failure during auto-save
	PersistenceFailure
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case PreconditionViolation:
		return "PreconditionViolation"
	case IslandsPresent:
		return "IslandsPresent"
	case BordersMissing:
		return "BordersMissing"
	case StructureInvalid:
		return "StructureInvalid"
	case GeometryDegenerate:
		return "GeometryDegenerate"
	case PersistenceFailure:
		return "PersistenceFailure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the error type returned by the algorithms
type Error struct {
	Kind  Kind
	Cause string
	Err   error
}

// Sentinels for errors.Is comparisons. They match any *Error of the same Kind.
var (
	ErrPreconditionViolation = &Error{Kind: PreconditionViolation}
	ErrIslandsPresent        = &Error{Kind: IslandsPresent}
	ErrBordersMissing        = &Error{Kind: BordersMissing}
	ErrStructureInvalid      = &Error{Kind: StructureInvalid}
	ErrGeometryDegenerate    = &Error{Kind: GeometryDegenerate}
	ErrPersistenceFailure    = &Error{Kind: PersistenceFailure}
)

// New creates an error of the given kind
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Cause: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind wrapping err
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Cause: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Cause != "" {
		msg += ": " + e.Cause
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or zero if err is not an *Error
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0
		}
		err = u.Unwrap()
	}
	return 0
}
