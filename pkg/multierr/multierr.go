package multierr

import (
	"bytes"
	"errors"
	"fmt"
)

// Error is a list of errors that is itself an error. The zero value is usable:
//
//	var e Error
//	e.Append(doThing())
//	return e.ErrOrNil()
type Error []error

func (e Error) Error() string {
	switch len(e) {
	case 0:
		return "<nil>"

	case 1:
		return e[0].Error()

	default:
		buf := new(bytes.Buffer)
		fmt.Fprintf(buf, "%d errors occurred:", len(e))
		for _, err := range e {
			fmt.Fprintf(buf, `
	* %v`, err)
		}
		return buf.String()
	}
}

// Append mutates e, appending err. No-op when err is nil.
func (e *Error) Append(err error) {
	switch {
	case e == nil:
		// can't do anything with a nil pointer; callers should hold Error by value

	case err == nil:
		// do nothing

	case *e == nil:
		*e = Error{err}

	default:
		*e = append(*e, err)
	}
}

// Append adds err2 to err1 without mutating err1.
func Append(err1, err2 error) Error {
	switch {
	case err1 == nil && err2 == nil:
		return nil

	case err1 == nil:
		return Error{err2}

	case err2 == nil:
		return Error{err1}
	}

	if merr, ok := err1.(Error); ok {
		merr.Append(err2)
		return merr
	}
	return Error{err1, err2}
}

// ErrOrNil converts e into an error, avoiding the typed-nil pitfall where
// `(Error)(nil) != nil`. A single-element list unwraps to its sole member.
func (e Error) ErrOrNil() error {
	switch len(e) {
	case 0:
		return nil

	case 1:
		return e[0]

	default:
		return e
	}
}

// Unwrap implements the interface used by [errors.Unwrap].
func (e Error) Unwrap() error {
	switch len(e) {
	case 0:
		return nil

	case 1:
		return e[0]

	default:
		return e[1:]
	}
}

// As implements the interface used by [errors.As], matching the first member that does.
func (e Error) As(target interface{}) bool {
	for _, err := range e {
		if errors.As(err, target) {
			return true
		}
	}
	return false
}

// Is implements the interface used by [errors.Is], matching the first member that does.
func (e Error) Is(target error) bool {
	for _, err := range e {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
