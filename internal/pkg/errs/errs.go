package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ticketdesk/internal/pkg/logx"
)

// CustomError is the error structure used throughout the application.
// It carries a business code, a client-facing message and an HTTP status code.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int `json:"code"`

	// Message is the user-friendly error description.
	Message string `json:"message"`

	// Status is the HTTP status code corresponding to this error.
	Status int `json:"-"`
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Is reports whether target carries the same business code, so sentinel-style
// comparisons work with errors.Is(err, errs.NewError(errs.ErrTicketNotFound)).
func (e *CustomError) Is(target error) bool {
	var other *CustomError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewError builds a *CustomError from a predefined code. details are printf
// arguments for messages containing verbs; for ErrUnknown the first detail may be
// the underlying error, which is logged. Unknown codes degrade to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &unknownErr
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	switch {
	case code == ErrUnknown && len(details) > 0:
		if originalErr, ok := details[0].(error); ok {
			logx.Error(originalErr, "Handling ErrUnknown with underlying error")
		}
	case len(details) > 0 && strings.Contains(customErr.Message, "%"):
		customErr.Message = fmt.Sprintf(customErr.Message, details...)
	case len(details) > 0:
		logx.Warn("Details provided for error, but message template has no formatting placeholders. Details ignored.",
			"code", code)
	}

	return &customErr
}

// From extracts the *CustomError carried by err. Any other non-nil error is
// reported as ErrUnknown.
func From(err error) *CustomError {
	if err == nil {
		return nil
	}

	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}

	return NewError(ErrUnknown, err)
}

// HasCode reports whether err carries the given business code.
func HasCode(err error, code int) bool {
	var customErr *CustomError
	return errors.As(err, &customErr) && customErr.Code == code
}
