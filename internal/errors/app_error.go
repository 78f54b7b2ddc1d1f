package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind classifies an AppError into one of the three response families.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindUnexpected
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "unexpected"
	}
}

// AppError is the error type services hand back to controllers.
// Message is safe to show to clients; Err is kept for logs only.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches sentinel AppErrors by kind and code so wrapped copies still compare equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code && e.Message == t.Message
}

// Status maps the error kind to an HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func Validation(code, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func Unauthorized(code, message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Code: code, Message: message}
}

func Forbidden(code, message string) *AppError {
	return &AppError{Kind: KindForbidden, Code: code, Message: message}
}

func Unexpected(err error) *AppError {
	return &AppError{
		Kind:    KindUnexpected,
		Code:    InternalServerError,
		Message: "unexpected server error, please retry later",
		Err:     err,
	}
}

// Wrap returns a copy of e carrying cause for logging.
func (e *AppError) Wrap(cause error) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

// As extracts an AppError from err, if there is one in the chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
