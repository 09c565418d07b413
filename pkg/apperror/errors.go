package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes surfaced to gateway callers.
const (
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeWalletNotFound       = "WALLET_NOT_FOUND"
	CodeWalletSuspended      = "WALLET_SUSPENDED"
	CodeWalletArchived       = "WALLET_ARCHIVED"
	CodeLegacyMainnetBlocked = "LEGACY_MAINNET_BLOCKED"
	CodePolicyViolation      = "POLICY_VIOLATION"
	CodeAmountLimitExceeded  = "AMOUNT_LIMIT_EXCEEDED"
	CodeMultiSignRequired    = "MULTI_SIGN_REQUIRED"
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	CodeVaultError           = "VAULT_ERROR"
	CodeInternalError        = "INTERNAL_ERROR"
	CodeInvalidRequest       = "INVALID_REQUEST"

	// Admin API only.
	CodeNotFound = "NOT_FOUND"
	CodeConflict = "CONFLICT"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"errorCode"`
	Message    string `json:"error"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// CodeOf returns the code of an *AppError anywhere in err's chain,
// or INTERNAL_ERROR for anything else.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

// ---- Caller identity ----

func ErrUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func ErrForbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

// ---- Wallet guards ----

func ErrWalletNotFound() *AppError {
	return New(CodeWalletNotFound, "Wallet not found", http.StatusNotFound)
}

func ErrWalletSuspended() *AppError {
	return New(CodeWalletSuspended, "Wallet is suspended", http.StatusForbidden)
}

func ErrWalletArchived() *AppError {
	return New(CodeWalletArchived, "Wallet is archived", http.StatusForbidden)
}

func ErrLegacyMainnetBlocked() *AppError {
	return New(CodeLegacyMainnetBlocked,
		"Legacy key storage cannot sign on mainnet; migration to vault storage is required",
		http.StatusForbidden)
}

// ---- Policy guards ----

func ErrPolicyViolation(message string) *AppError {
	return New(CodePolicyViolation, message, http.StatusForbidden)
}

func ErrAmountLimitExceeded(amount, limit string) *AppError {
	return New(CodeAmountLimitExceeded,
		fmt.Sprintf("Amount %s exceeds policy limit of %s XRP", amount, limit),
		http.StatusForbidden)
}

func ErrMultiSignRequired(minSigners int) *AppError {
	return New(CodeMultiSignRequired,
		fmt.Sprintf("Policy requires multi-signature with at least %d signers; wallet is not multi-sign enabled", minSigners),
		http.StatusForbidden)
}

func ErrRateLimitExceeded(limit int) *AppError {
	return New(CodeRateLimitExceeded,
		fmt.Sprintf("Signing rate limit of %d per minute exceeded", limit),
		http.StatusTooManyRequests)
}

// ---- Signing backends ----

func ErrVault(err error) *AppError {
	return Wrap(CodeVaultError, "Key vault signing failed", http.StatusInternalServerError, err)
}

// ---- Generic ----

// InternalError wraps an internal error as INTERNAL_ERROR.
func InternalError(err error) *AppError {
	return Wrap(CodeInternalError, "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns an INVALID_REQUEST error.
func Validation(message string) *AppError {
	return New(CodeInvalidRequest, message, http.StatusBadRequest)
}

// ErrDuplicateInFlight reports a concurrent signing attempt for the same transaction.
func ErrDuplicateInFlight() *AppError {
	return New(CodeInvalidRequest, "Signing already in progress for this transaction", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrConflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

// ErrTooManyRequests is HTTP throttling, distinct from the per-wallet signing limit.
func ErrTooManyRequests() *AppError {
	return New(CodeRateLimitExceeded, "Too many requests", http.StatusTooManyRequests)
}

func ErrPayloadTooLarge() *AppError {
	return New(CodeInvalidRequest, "Request body too large", http.StatusRequestEntityTooLarge)
}
