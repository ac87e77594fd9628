package validate

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pitabwire/resources/errorcode"
)

// Severity grades a diagnostic.
type Severity int

const (
	SeverityNote Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "note"
	case SeverityWarning:
		return "warning"
	default:
		return "error"
	}
}

// Diagnostic is one finding. Notes trace the checked keys and carry no code.
type Diagnostic struct {
	Severity Severity
	Code     errorcode.Code
	Holder   string
	Field    string
	Key      string
	Message  string
}

// String renders the diagnostic in a form errorcode.Parse understands:
//
//	error: [ResProcErrID#1101] : Resource with identifier »titleAbout« not found (ui.About.TitleAbout)
func (d Diagnostic) String() string {
	var sb strings.Builder
	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	if d.Code != errorcode.NoError {
		fmt.Fprintf(&sb, errorcode.Prefix, d.Code.Number())
		sb.WriteString(" : ")
	}
	sb.WriteString(d.Message)
	if location := d.location(); location != "" {
		sb.WriteString(" (")
		sb.WriteString(location)
		sb.WriteString(")")
	}
	return sb.String()
}

func (d Diagnostic) location() string {
	switch {
	case d.Holder != "" && d.Field != "":
		return d.Holder + "." + d.Field
	default:
		return d.Holder + d.Field
	}
}

// Diagnostics is the result of a validation run.
type Diagnostics []Diagnostic

// Filter returns the diagnostics of the given severity.
func (ds Diagnostics) Filter(severity Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == severity {
			out = append(out, d)
		}
	}
	return out
}

func (ds Diagnostics) HasErrors() bool {
	return len(ds.Filter(SeverityError)) > 0
}

// Codes returns the codes of errors and warnings in order.
func (ds Diagnostics) Codes() []errorcode.Code {
	var codes []errorcode.Code
	for _, d := range ds {
		if d.Severity != SeverityNote {
			codes = append(codes, d.Code)
		}
	}
	return codes
}

// Err joins the errors into one error value, nil without errors. Each
// joined error unwraps to an *errorcode.Error of its code.
func (ds Diagnostics) Err() error {
	var errs []error
	for _, d := range ds.Filter(SeverityError) {
		errs = append(errs, diagnosticError{d})
	}
	return errors.Join(errs...)
}

type diagnosticError struct {
	d Diagnostic
}

func (e diagnosticError) Error() string {
	return e.d.String()
}

func (e diagnosticError) Unwrap() error {
	return errorcode.New(e.d.Code)
}

// WriteTo writes one diagnostic per line.
func (ds Diagnostics) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, d := range ds {
		n, err := fmt.Fprintln(w, d.String())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
