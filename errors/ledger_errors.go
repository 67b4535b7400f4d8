package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/starnotary/notary/jsonx"
)

// ErrorCode represents standardized error codes for ledger and api operations
type ErrorCode string

const (
	// System errors
	ErrCodeIO       ErrorCode = "io_error"
	ErrCodeAppend   ErrorCode = "append_error"
	ErrCodeInternal ErrorCode = "internal_error"

	// Caller errors
	ErrCodeNotFound       ErrorCode = "not_found"
	ErrCodeAuthorization  ErrorCode = "authorization_error"
	ErrCodeSignature      ErrorCode = "signature_error"
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeRateLimited    ErrorCode = "rate_limited"
)

// Error message constants - user-friendly and concise
const (
	ErrMsgNotInitialized       = "Ledger has not been initialized"
	ErrMsgBlockNotFound        = "Block with height %d does not exist"
	ErrMsgInvalidHeight        = "Invalid value/type for block height"
	ErrMsgPreviousBlockMissing = "Previous block %d could not be read"
	ErrMsgNoValidationRequest  = "Validation request was not made within validation window or the given wallet address never made a prior validation request"
	ErrMsgSignatureInvalid     = "The provided credentials failed to sign the message"
	ErrMsgRequestBodyTooLarge  = "Request body exceeds maximum allowed size (%d bytes)"
	ErrMsgFieldRequired        = "Field '%s' is required"
	ErrMsgFieldTooShort        = "Field '%s' must be at least %d characters long"
	ErrMsgFieldTooLong         = "Field '%s' must be at most %d characters long"
	ErrMsgInvalidCharacters    = "Field '%s' contains invalid characters"
	ErrMsgStoryTooManyWords    = "Star story has to be %d or less words"
	ErrMsgRateLimited          = "Too many requests, please slow down"
	ErrMsgInternal             = "Server error, please try again"
)

// LedgerError carries a code, a human readable message and, for storage
// failures, the offending key and the underlying cause.
type LedgerError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Key     string    `json:"key,omitempty"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *LedgerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Key != "" {
		msg = fmt.Sprintf("%s (key=%s)", msg, e.Key)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// Is matches any LedgerError carrying the same code, so callers can test
// against the sentinels below with errors.Is.
func (e *LedgerError) Is(target error) bool {
	var t *LedgerError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// JSON renders the error as {code, message}.
func (e *LedgerError) JSON() string {
	b, _ := jsonx.Marshal(e)
	return string(b)
}

var (
	ErrNotFound       = &LedgerError{Code: ErrCodeNotFound}
	ErrIO             = &LedgerError{Code: ErrCodeIO}
	ErrAppend         = &LedgerError{Code: ErrCodeAppend}
	ErrAuthorization  = &LedgerError{Code: ErrCodeAuthorization}
	ErrSignature      = &LedgerError{Code: ErrCodeSignature}
	ErrInvalidRequest = &LedgerError{Code: ErrCodeInvalidRequest}
)

// NewError creates a new LedgerError and returns it as error interface
func NewError(code ErrorCode, message string) error {
	return &LedgerError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a LedgerError with an underlying cause.
func Wrap(code ErrorCode, message string, err error) error {
	return &LedgerError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewIOError reports a storage failure for key.
func NewIOError(key string, err error) error {
	return &LedgerError{
		Code:    ErrCodeIO,
		Message: "storage failure",
		Key:     key,
		Err:     err,
	}
}

// NewNotFound reports a missing key.
func NewNotFound(key string, message string) error {
	return &LedgerError{
		Code:    ErrCodeNotFound,
		Message: message,
		Key:     key,
	}
}

// CodeOf returns the code of the outermost LedgerError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var le *LedgerError
	if stderrors.As(err, &le) {
		return le.Code
	}
	return ErrCodeInternal
}

// MessageOf returns the user facing message of err.
func MessageOf(err error) string {
	var le *LedgerError
	if stderrors.As(err, &le) && le.Message != "" {
		return le.Message
	}
	return ErrMsgInternal
}
