package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/cffkit/pkg/cff"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// statusOf maps codec errors to an HTTP status and error type.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, cff.ErrTableNotFound),
		errors.Is(err, cff.ErrRowIndex),
		errors.Is(err, cff.ErrRelationNotFound):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, cff.ErrNoMatch), errors.Is(err, cff.ErrAmbiguousMatch):
		return http.StatusConflict, "conflict_error"
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, cff.ErrUnknownField),
		errors.Is(err, cff.ErrValueRange),
		errors.Is(err, cff.ErrTypeMismatch),
		errors.Is(err, cff.ErrWidth),
		errors.Is(err, cff.ErrInvalidBool),
		errors.Is(err, cff.ErrStringTooLong),
		errors.Is(err, cff.ErrUnencodable),
		errors.Is(err, cff.ErrRelationWrite):
		return http.StatusBadRequest, "invalid_request_error"
	}
	return http.StatusInternalServerError, "server_error"
}
