package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched (errors.Is) by a StatusError carrying a 404.
var ErrNotFound = errors.New("todo not found")

// TransportError means the request could not be sent or no response came back.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: transport: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// StatusError means the server answered outside the 2xx range.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: server returned %d %s", e.Op, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// ParseError means the body did not have the expected shape.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: parse: %v", e.Op, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Kind names the failure class for logs and notices.
func Kind(err error) string {
	var (
		te *TransportError
		se *StatusError
		pe *ParseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &se):
		return "status"
	case errors.As(err, &pe):
		return "parse"
	default:
		return "other"
	}
}
