// Package apperr defines error values that carry the HTTP status code and
// client-facing detail message for expected failures. Anything that is not an
// *Error is treated by the handlers as an internal fault.
package apperr

import "net/http"

type Error struct {
	code int
	msg  string
}

func (e *Error) Error() string   { return e.msg }
func (e *Error) Code() int       { return e.code }
func (e *Error) Message() string { return e.msg }

type Enricher func(*Error)

func WithCode(code int) Enricher {
	return func(e *Error) { e.code = code }
}

func BadRequest() Enricher { return WithCode(http.StatusBadRequest) }
func Forbidden() Enricher  { return WithCode(http.StatusForbidden) }

func New(msg string, fs ...Enricher) *Error {
	err := &Error{code: http.StatusInternalServerError, msg: msg}
	for _, f := range fs {
		f(err)
	}
	return err
}
