package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrorNotConfigured ErrorCode = "NOT_CONFIGURED"
	ErrorUpstream      ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal      ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// upstreamStatusError is implemented by transport errors that carry the
// upstream HTTP status and raw body.
type upstreamStatusError interface {
	error
	HTTPStatusCode() int
	ResponseBody() string
}

// UpstreamStatus extracts the upstream status code and raw body from err, if
// err wraps a non-success upstream response.
func UpstreamStatus(err error) (status int, body string, ok bool) {
	var statusErr upstreamStatusError
	if !errors.As(err, &statusErr) {
		return 0, "", false
	}
	return statusErr.HTTPStatusCode(), statusErr.ResponseBody(), true
}
