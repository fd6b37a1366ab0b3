package handler

import (
	"errors"
	"net/http"
)

var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError pairs a status code with a stable machine-readable code.
type HTTPError struct {
	Status int
	Code   string
	// Message overrides the text of the wrapped error in responses.
	Message string
	Err     error
}

func (e HTTPError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Code
}

func (e HTTPError) Unwrap() error { return e.Err }

// NewHTTPError wraps err with a status and code.
func NewHTTPError(status int, code string, err error) HTTPError {
	return HTTPError{Status: status, Code: code, Err: err}
}

var (
	ErrBadRequest   = HTTPError{Status: http.StatusBadRequest, Code: "bad_request", Message: "bad request"}
	ErrUnauthorized = HTTPError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "authentication required"}
	ErrForbidden    = HTTPError{Status: http.StatusForbidden, Code: "forbidden", Message: "forbidden"}
	ErrNotFound     = HTTPError{Status: http.StatusNotFound, Code: "not_found", Message: "not found"}
	ErrConflict     = HTTPError{Status: http.StatusConflict, Code: "conflict", Message: "conflict"}
	ErrInternal     = HTTPError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
)

// Classifier maps an error to the HTTPError rendered for it.
type Classifier func(err error) HTTPError

// DefaultClassifier honours HTTPError values in the chain and reports
// everything else as an internal error.
func DefaultClassifier(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return ErrInternal
}
