// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// GenericFailure is the message returned when the cause must not leak to callers.
const GenericFailure = "Error interno del servidor"

// messageError pairs a sentinel kind with the message shown to the caller.
type messageError struct {
	kind error
	msg  string
}

func (e *messageError) Error() string { return e.msg }

func (e *messageError) Unwrap() error { return e.kind }

// Errorf builds an error of the given kind whose text is safe to show to callers.
func Errorf(kind error, format string, args ...any) error {
	return &messageError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Status maps an error onto an HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-facing text for err.
func Message(err error) string {
	var me *messageError
	if errors.As(err, &me) {
		return me.msg
	}
	if Status(err) == http.StatusInternalServerError {
		return GenericFailure
	}
	return err.Error()
}

// RespondError maps domain errors to the JSON failure envelope.
func RespondError(w http.ResponseWriter, err error) {
	Fail(w, Status(err), Message(err))
}
