package errorcode

import "errors"

// Error is an error carrying a Code and the arguments of its template.
type Error struct {
	Code Code
	Args []any
	Err  error
}

// New creates an Error for code with the given template arguments.
func New(code Code, args ...any) *Error {
	return &Error{Code: code, Args: args}
}

// Wrap creates an Error for code wrapping cause.
func Wrap(cause error, code Code, args ...any) *Error {
	return &Error{Code: code, Args: args, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Code.Format(e.Args...)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Code == e.Code && other.Err == nil && len(other.Args) == 0
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return NoError, false
}
