package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New(CodeWalletNotFound, "Wallet not found", http.StatusNotFound),
			expected: "[WALLET_NOT_FOUND] Wallet not found",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap(CodeInternalError, "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[INTERNAL_ERROR] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(CodeInternalError, "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New(CodeInvalidRequest, "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeRateLimitExceeded, CodeOf(ErrRateLimitExceeded(5)))
	assert.Equal(t, CodeVaultError, CodeOf(fmt.Errorf("outer: %w", ErrVault(errors.New("timeout")))))
	assert.Equal(t, CodeInternalError, CodeOf(errors.New("plain")))
}

func TestGatewayErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"Unauthorized", ErrUnauthorized("missing token"), "UNAUTHORIZED", 401},
		{"Forbidden", ErrForbidden("nope"), "FORBIDDEN", 403},
		{"WalletNotFound", ErrWalletNotFound(), "WALLET_NOT_FOUND", 404},
		{"WalletSuspended", ErrWalletSuspended(), "WALLET_SUSPENDED", 403},
		{"WalletArchived", ErrWalletArchived(), "WALLET_ARCHIVED", 403},
		{"LegacyMainnetBlocked", ErrLegacyMainnetBlocked(), "LEGACY_MAINNET_BLOCKED", 403},
		{"PolicyViolation", ErrPolicyViolation("no policy"), "POLICY_VIOLATION", 403},
		{"AmountLimitExceeded", ErrAmountLimitExceeded("1000.01", "1000"), "AMOUNT_LIMIT_EXCEEDED", 403},
		{"MultiSignRequired", ErrMultiSignRequired(2), "MULTI_SIGN_REQUIRED", 403},
		{"RateLimitExceeded", ErrRateLimitExceeded(5), "RATE_LIMIT_EXCEEDED", 429},
		{"Vault", ErrVault(errors.New("x")), "VAULT_ERROR", 500},
		{"Internal", InternalError(errors.New("x")), "INTERNAL_ERROR", 500},
		{"Validation", Validation("bad"), "INVALID_REQUEST", 400},
		{"DuplicateInFlight", ErrDuplicateInFlight(), "INVALID_REQUEST", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestLegacyMainnetBlocked_MentionsMigration(t *testing.T) {
	assert.Contains(t, ErrLegacyMainnetBlocked().Message, "migration")
}

func TestAdminErrors(t *testing.T) {
	nf := ErrNotFound("policy")
	assert.Equal(t, "policy not found", nf.Message)
	assert.Equal(t, http.StatusNotFound, nf.HTTPStatus)

	c := ErrConflict("invalid transition")
	assert.Equal(t, CodeConflict, c.Code)
	assert.Equal(t, http.StatusConflict, c.HTTPStatus)
}
