package usecase

import "fmt"

type ErrorCode string

const (
	// ErrorInvalidInput covers malformed or missing request fields.
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrorNotConfigured covers missing external-service configuration.
	ErrorNotConfigured ErrorCode = "NOT_CONFIGURED"
	// ErrorUpstream covers inference endpoint failures. The detail is logged
	// only; Public carries a generic message.
	ErrorUpstream ErrorCode = "UPSTREAM_ERROR"
	// ErrorStore covers persistence failures. The store-provided message is
	// surfaced to the caller.
	ErrorStore ErrorCode = "STORE_ERROR"
	// ErrorInternal covers everything else.
	ErrorInternal ErrorCode = "INTERNAL_ERROR"
)

// Error carries a machine-readable code and reason for logs plus the
// user-safe message returned to the caller. Err holds the underlying cause
// and is never sent over the wire.
type Error struct {
	Code   ErrorCode
	Reason string
	Public string
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

func newError(code ErrorCode, reason, public string, err error) *Error {
	return &Error{Code: code, Reason: reason, Public: public, Err: err}
}
