package extsort

import (
	"errors"
	"fmt"
)

// Error is a structured extsort error carrying a stable numeric code.
type Error struct {
	Code    ErrCode
	Message string
	Err     error // wrapped error, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extsort: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("extsort: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrCode is the numeric error kind returned to callers, per the sort
// entry point's contract: 0 success, 9 write error, 10 read error, 11 an
// out-of-memory condition, 12 an invalid configuration.
type ErrCode int

const (
	// ErrCodeSuccess indicates no error.
	ErrCodeSuccess ErrCode = 0

	// ErrCodeWrite indicates a short or failed write to the scratch store.
	ErrCodeWrite ErrCode = 9

	// ErrCodeRead indicates a read from the scratch store or the input
	// iterator returned zero bytes or fewer than expected.
	ErrCodeRead ErrCode = 10

	// ErrCodeOOM indicates an auxiliary allocation failed, or an internal
	// invariant that depends on bounded auxiliary memory was violated
	// (see the NOB-merge destBlk bound check).
	ErrCodeOOM ErrCode = 11

	// ErrCodeInvalidConfig indicates a Config failed Validate.
	ErrCodeInvalidConfig ErrCode = 12
)

var errCodeMessages = map[ErrCode]string{
	ErrCodeSuccess:       "success",
	ErrCodeWrite:         "write error",
	ErrCodeRead:          "read error",
	ErrCodeOOM:           "out of memory",
	ErrCodeInvalidConfig: "invalid configuration",
}

// NewError creates a new Error with the given code and a default message.
func NewError(code ErrCode) *Error {
	msg, ok := errCodeMessages[code]
	if !ok {
		msg = fmt.Sprintf("unknown error code %d", code)
	}
	return &Error{Code: code, Message: msg}
}

// WrapError creates a new Error of the given code wrapping err.
func WrapError(code ErrCode, err error) *Error {
	e := NewError(code)
	e.Err = err
	return e
}

// WrapErrorf is WrapError with a formatted message.
func WrapErrorf(code ErrCode, err error, format string, args ...any) *Error {
	e := WrapError(code, err)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// IsReadError returns true if err is (or wraps) an ErrCodeRead Error.
func IsReadError(err error) bool {
	return codeOf(err) == ErrCodeRead
}

// IsWriteError returns true if err is (or wraps) an ErrCodeWrite Error.
func IsWriteError(err error) bool {
	return codeOf(err) == ErrCodeWrite
}

// IsOOM returns true if err is (or wraps) an ErrCodeOOM Error.
func IsOOM(err error) bool {
	return codeOf(err) == ErrCodeOOM
}

func codeOf(err error) ErrCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeSuccess
}

// Code returns the numeric error code for err, matching the sort entry
// point's integer-return contract (0 on success).
func Code(err error) ErrCode {
	if err == nil {
		return ErrCodeSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeOOM
}
