package pgrstjwt

import (
	"errors"
	"fmt"
)

// ErrorCode classifies issuing and verification failures.
type ErrorCode string

const (
	ErrCodeInvalidSecret    ErrorCode = "invalid_secret"
	ErrCodeSecretEncoding   ErrorCode = "secret_encoding"
	ErrCodeTTLOutOfRange    ErrorCode = "ttl_out_of_range"
	ErrCodeSigningFailed    ErrorCode = "signing_failed"
	ErrCodeInvalidToken     ErrorCode = "invalid_token"
	ErrCodeInvalidSignature ErrorCode = "invalid_signature"
	ErrCodeExpired          ErrorCode = "token_expired"
)

// Message returns the human readable summary for the code.
func (c ErrorCode) Message() string {
	switch c {
	case ErrCodeInvalidSecret:
		return "Invalid secret"
	case ErrCodeSecretEncoding:
		return "Secret encoding"
	case ErrCodeTTLOutOfRange:
		return "TTL out of range"
	case ErrCodeSigningFailed:
		return "Signing failed"
	case ErrCodeInvalidToken:
		return "Invalid token"
	case ErrCodeInvalidSignature:
		return "Invalid signature"
	case ErrCodeExpired:
		return "Token expired"
	}
	return string(c)
}

// Error carries a stable code next to the underlying cause.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, err error) error {
	return &Error{Code: code, Message: code.Message(), Err: err}
}

// IsCode reports whether err, or any error it wraps, is an *Error with code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
