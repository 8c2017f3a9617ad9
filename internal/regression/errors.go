package regression

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the dataset cannot be fitted at all,
	// e.g. it is empty or carries non-finite values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDegenerateInput is returned when the sizes have no variance, so the
	// slope is undefined.
	ErrDegenerateInput = errors.New("degenerate input")
)

// FitError names which precondition of a fit failed.
type FitError struct {
	Kind   error
	Reason string
}

func (e *FitError) Error() string {
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *FitError) Unwrap() error { return e.Kind }

func invalid(reason string) error    { return &FitError{Kind: ErrInvalidInput, Reason: reason} }
func degenerate(reason string) error { return &FitError{Kind: ErrDegenerateInput, Reason: reason} }

// UserMessage turns a fit failure into text suitable for end users. Errors
// that did not come from Fit are returned verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe *FitError
	switch {
	case errors.As(err, &fe) && errors.Is(fe.Kind, ErrDegenerateInput):
		return "not enough distinct comparable sizes to fit a trend (" + fe.Reason + ")"
	case errors.As(err, &fe) && errors.Is(fe.Kind, ErrInvalidInput):
		return "cannot fit a trend: " + fe.Reason
	default:
		return err.Error()
	}
}
