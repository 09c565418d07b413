package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SigningStatus is the outcome recorded for a signing attempt.
type SigningStatus string

const (
	SigningStatusSigned   SigningStatus = "SIGNED"
	SigningStatusRejected SigningStatus = "REJECTED"
	SigningStatusFailed   SigningStatus = "FAILED"
)

// AuditLogFailedID is returned in place of an audit id when the audit write itself failed.
const AuditLogFailedID = "AUDIT_LOG_FAILED"

// SigningAuditEntry is the append-only compliance record of one signing attempt.
type SigningAuditEntry struct {
	ID              uuid.UUID        `json:"id"`
	WalletID        uuid.UUID        `json:"walletId"`
	WalletAddress   string           `json:"walletAddress"`
	Network         Network          `json:"network,omitempty"`
	KeyStorageType  KeyStorageType   `json:"keyStorageType,omitempty"`
	TxType          string           `json:"txType"`
	UnsignedTxHash  string           `json:"unsignedTxHash"`
	TxHash          *string          `json:"txHash,omitempty"`
	SignedTxBlob    *string          `json:"signedTxBlob,omitempty"`
	PolicyID        *string          `json:"policyId,omitempty"`
	RequestedBy     string           `json:"requestedBy"`
	RequestedByName string           `json:"requestedByName,omitempty"`
	RequestedByRole string           `json:"requestedByRole"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Currency        string           `json:"currency,omitempty"`
	Destination     string           `json:"destination,omitempty"`
	DestinationName string           `json:"destinationName,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
	Status          SigningStatus    `json:"status"`
	ErrorCode       string           `json:"errorCode,omitempty"`
	RejectionReason *string          `json:"rejectionReason,omitempty"`
	ErrorMessage    *string          `json:"errorMessage,omitempty"`
	Warning         *string          `json:"warning,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// AdminAction represents an audited administrative action.
type AdminAction string

const (
	AdminActionSuspendWallet    AdminAction = "SUSPEND_WALLET"
	AdminActionArchiveWallet    AdminAction = "ARCHIVE_WALLET"
	AdminActionReactivateWallet AdminAction = "REACTIVATE_WALLET"
	AdminActionCreatePolicy     AdminAction = "CREATE_POLICY"
	AdminActionUpdatePolicy     AdminAction = "UPDATE_POLICY"
	AdminActionDeactivatePolicy AdminAction = "DEACTIVATE_POLICY"
)

// AdminAuditLog records a single administrative change to wallets or policies.
type AdminAuditLog struct {
	ID           uuid.UUID   `json:"id"`
	Actor        string      `json:"actor"`
	Action       AdminAction `json:"action"`
	ResourceType string      `json:"resourceType"`
	ResourceID   string      `json:"resourceId,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ipAddress"`
	CreatedAt    time.Time   `json:"createdAt"`
}
