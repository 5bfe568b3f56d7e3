package request

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is matched by errors returned from New when a supplied
	// client does not implement httpclient.Client.
	ErrTypeMismatch = errors.New("client type mismatch")
	// ErrUnsupportedValue is returned when a query value has no string form.
	ErrUnsupportedValue = errors.New("unsupported query value")
)

// TypeMismatchError names the value that failed the client capability check.
type TypeMismatchError struct {
	Got string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("supplied client %s does not implement httpclient.Client", e.Got)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// RequestError wraps any failure returned by the client during Make.
type RequestError struct {
	Message string
	// Code is the HTTP status when the cause carries one, otherwise 0.
	Code int
	Err  error
}

func (e *RequestError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("http request failed (code %d): %s", e.Code, e.Message)
	}
	return "http request failed: " + e.Message
}

func (e *RequestError) Unwrap() error { return e.Err }

// statusCoder is satisfied by errors that know the HTTP status they stem from.
type statusCoder interface {
	StatusCode() int
}

func newRequestError(err error) *RequestError {
	re := &RequestError{Message: err.Error(), Err: err}
	var sc statusCoder
	if errors.As(err, &sc) {
		re.Code = sc.StatusCode()
	}
	return re
}
