package inject

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pitabwire/resources/errorcode"
)

// Warning reports a problem with a single field or holder. Injection goes on
// after a warning; the affected field keeps its value or receives a fallback.
type Warning struct {
	Code errorcode.Code
	// Args are the arguments of the code's message template.
	Args []any
	// Holder is the type name of the top level holder.
	Holder string
	// Field is the dotted Go field path, empty for holder level warnings.
	Field string
	// Key is the resource key or file looked up, if any.
	Key string
	// Fallback is the value installed for a missing string.
	Fallback string
	Err      error
}

// Message renders the code template without the diagnostic prefix.
func (w *Warning) Message() string {
	return w.Code.Message(w.Args...)
}

func (w *Warning) Error() string {
	msg := w.Code.Format(w.Args...)
	if w.Field != "" {
		msg += fmt.Sprintf(" (field %s of %s)", w.Field, w.Holder)
	}
	if w.Err != nil {
		msg += ": " + w.Err.Error()
	}
	return msg
}

func (w *Warning) Unwrap() error {
	return w.Err
}

// Is lets errors.Is match warnings against errorcode values.
func (w *Warning) Is(target error) bool {
	code, ok := target.(*errorcode.Error)
	return ok && code.Code == w.Code && code.Err == nil && len(code.Args) == 0
}

// Warnings are the warnings of one injection in the order they occurred.
type Warnings []*Warning

// Err joins the warnings into one error, nil if there are none.
func (ws Warnings) Err() error {
	if len(ws) == 0 {
		return nil
	}
	errs := make([]error, len(ws))
	for i, w := range ws {
		errs[i] = w
	}
	return errors.Join(errs...)
}

// Codes returns the code of every warning.
func (ws Warnings) Codes() []errorcode.Code {
	codes := make([]errorcode.Code, len(ws))
	for i, w := range ws {
		codes[i] = w.Code
	}
	return codes
}

// Has reports whether a warning with code occurred.
func (ws Warnings) Has(code errorcode.Code) bool {
	return slices.ContainsFunc(ws, func(w *Warning) bool { return w.Code == code })
}

// ByCode returns the warnings with code.
func (ws Warnings) ByCode(code errorcode.Code) Warnings {
	var out Warnings
	for _, w := range ws {
		if w.Code == code {
			out = append(out, w)
		}
	}
	return out
}
