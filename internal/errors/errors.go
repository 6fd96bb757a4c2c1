// Package errors provides the structured error type returned by every service
// in the chowvest API. Handlers render AppError values directly; anything else
// is reported as an internal error so driver or gateway details never reach
// clients.
package errors

import (
	stderrors "errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Retryable  bool   `json:"retryable"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so a wrapped
// sentinel still matches errors.Is(err, ErrNotFound).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Retryable:  sentinel.Retryable,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Retryable:  sentinel.Retryable,
		Internal:   sentinel.Internal,
	}
}

// As extracts the AppError from err, if there is one.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsRetryable reports whether err is an AppError the caller may safely retry.
func IsRetryable(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Retryable
}

// Authentication & request errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrRateLimited  = &AppError{Code: "RATE_LIMITED", Message: "Too many attempts, please try again later", StatusCode: http.StatusTooManyRequests}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Ledger errors. Missing and foreign-owned records share NOT_FOUND so callers
// cannot enumerate other users' IDs.
var (
	ErrInvalidAmount         = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be a positive value with at most two decimal places", StatusCode: http.StatusBadRequest}
	ErrWalletNotFound        = &AppError{Code: "NOT_FOUND", Message: "Wallet not found", StatusCode: http.StatusNotFound}
	ErrBasketNotFound        = &AppError{Code: "NOT_FOUND", Message: "Basket not found", StatusCode: http.StatusNotFound}
	ErrTransactionNotFound   = &AppError{Code: "NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrPaymentMethodNotFound = &AppError{Code: "NOT_FOUND", Message: "Payment method not found", StatusCode: http.StatusNotFound}
	ErrInvalidState          = &AppError{Code: "INVALID_STATE", Message: "Operation not allowed in the current state", StatusCode: http.StatusConflict}
	ErrInsufficientFunds     = &AppError{Code: "INSUFFICIENT_FUNDS", Message: "Insufficient wallet balance", StatusCode: http.StatusBadRequest}
	ErrStoreUnavailable      = &AppError{Code: "STORE_UNAVAILABLE", Message: "Ledger store is temporarily unavailable", StatusCode: http.StatusServiceUnavailable, Retryable: true}
)

// Payment errors.
var (
	ErrPaymentNotConfirmed  = &AppError{Code: "PAYMENT_NOT_CONFIRMED", Message: "Payment has not been confirmed by the processor", StatusCode: http.StatusPaymentRequired}
	ErrExternalServiceError = &AppError{Code: "EXTERNAL_SERVICE_ERROR", Message: "Payment processor is unavailable, please try again", StatusCode: http.StatusBadGateway, Retryable: true}
)
