package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of gateway error. The categories map
// onto the failure-handling postures of the access pipeline: credential
// and provider-rejection errors end the session, unavailable errors are
// waved through, exchange errors get dedicated cookie-clearing recovery.
type ErrorCode string

const (
	// ErrCodeCredential indicates a malformed or expired bearer credential.
	ErrCodeCredential ErrorCode = "credential"
	// ErrCodeProviderRejected indicates the identity provider explicitly
	// rejected the account (401/403).
	ErrCodeProviderRejected ErrorCode = "provider_rejected"
	// ErrCodeRefreshFailed indicates an upstream refresh-token failure.
	ErrCodeRefreshFailed ErrorCode = "refresh_failed"
	// ErrCodeExchange indicates a failed authorization-code exchange.
	ErrCodeExchange ErrorCode = "exchange_failed"
	// ErrCodeUnavailable indicates a transient infrastructure failure
	// (timeout, connection refused, 5xx from the provider).
	ErrCodeUnavailable ErrorCode = "unavailable"
	// ErrCodeNotFound indicates a missing record (session, profile).
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "internal"
)

// ErrExchangeFailed is the sentinel for the one error class the session
// layer is allowed to surface as an error rather than a structured
// result: a failed proof-of-possession code exchange. The pipeline
// recognizes it with errors.Is and applies cookie-clearing recovery;
// any other error from session retrieval propagates unchanged.
var ErrExchangeFailed = &AppError{
	Code:    ErrCodeExchange,
	Message: "authorization code exchange failed",
}

// AppError is a structured gateway error with a code, message, and
// optional cause. It supports errors.Is and errors.As via Unwrap, and
// two AppErrors with the same Code match under errors.Is.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches AppErrors by code so sentinel values like ErrExchangeFailed
// work with errors.Is regardless of message or cause.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Credential creates a fatal credential error.
func Credential(message string) *AppError {
	return &AppError{Code: ErrCodeCredential, Message: message}
}

// ProviderRejected creates an explicit-provider-rejection error.
func ProviderRejected(message string) *AppError {
	return &AppError{Code: ErrCodeProviderRejected, Message: message}
}

// RefreshFailed creates a session-refresh failure error wrapping cause.
func RefreshFailed(cause error) *AppError {
	return &AppError{Code: ErrCodeRefreshFailed, Message: "access token refresh failed", Cause: cause}
}

// ExchangeFailed creates a code-exchange failure error wrapping cause.
// The result matches ErrExchangeFailed under errors.Is.
func ExchangeFailed(cause error) *AppError {
	return &AppError{Code: ErrCodeExchange, Message: "authorization code exchange failed", Cause: cause}
}

// Unavailable creates a transient infrastructure error wrapping cause.
func Unavailable(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeUnavailable, Message: message, Cause: cause}
}

// NotFound creates a missing-record error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Validation creates an invalid-input error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// CodeOf extracts the ErrorCode from err, or ErrCodeInternal when err
// is not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsExchangeFailure reports whether err belongs to the code-exchange
// failure class.
func IsExchangeFailure(err error) bool {
	return errors.Is(err, ErrExchangeFailed)
}
