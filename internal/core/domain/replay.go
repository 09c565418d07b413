package domain

import (
	"strings"

	"github.com/google/uuid"
)

// SignedResult is the cached answer for a transaction that was already signed.
type SignedResult struct {
	SignedTxBlob  string  `json:"signedTxBlob"`
	TxHash        string  `json:"txHash"`
	AuditLogID    string  `json:"auditLogId"` // entry of the original signing
	PolicyApplied *string `json:"policyApplied,omitempty"`
}

// BuildReplayKey constructs the key a signed transaction is remembered under.
// Format: "wallet_id:UNSIGNED_TX_HASH".
func BuildReplayKey(walletID uuid.UUID, unsignedTxHash string) string {
	return walletID.String() + ":" + strings.ToUpper(unsignedTxHash)
}
