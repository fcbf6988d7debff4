package response

import (
	"errors"
	"net/http"
)

type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// StatusOf returns the HTTP status carried by err, or 500 for anything that is
// not a *Error.
func StatusOf(err error) int {
	var respErr *Error
	if errors.As(err, &respErr) {
		return respErr.Code
	}
	return http.StatusInternalServerError
}
