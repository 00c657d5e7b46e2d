package schedule

import (
	"errors"
	"fmt"
)

// ErrMalformed matches every *MalformedError via errors.Is.
var ErrMalformed = errors.New("malformed schedule")

// MalformedError reports a day-of-month entry that is not an integer.
type MalformedError struct {
	Expr  string
	Token string
	Err   error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed schedule %q: day %q is not an integer", e.Expr, e.Token)
}

func (e *MalformedError) Unwrap() error { return e.Err }

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }
