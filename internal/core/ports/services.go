package ports

import (
	"context"
	"time"

	"rwa-signing-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TokenService handles bearer identity tokens.
type TokenService interface {
	Generate(identity Identity) (string, time.Time, error)
	Validate(tokenString string) (*Identity, error)
}

// Identity is the authenticated caller behind a bearer token.
type Identity struct {
	UserID string
	Name   string
	Role   string
}

// SigningAdapter signs an unsigned transaction with key material of one storage type.
type SigningAdapter interface {
	StorageType() domain.KeyStorageType
	Sign(ctx context.Context, unsignedTxBlob string, key domain.KeyMaterial) (*SignedTx, error)
}

// SignedTx is what every signing adapter returns.
type SignedTx struct {
	SignedTxBlob string
	TxHash       string
}

// AdapterRegistry selects the signing adapter for a storage type.
type AdapterRegistry interface {
	Adapter(storageType domain.KeyStorageType) (SigningAdapter, error)
}

// RateCounter is the durable per-wallet sliding-window signing counter.
type RateCounter interface {
	// CheckAndIncrement atomically records one attempt if fewer than limit attempts
	// happened within window. Returns false without recording when the limit is reached.
	CheckAndIncrement(ctx context.Context, walletID string, limit int, window time.Duration) (bool, error)
}

// SigningLock guarantees at most one in-flight signing per transaction.
type SigningLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// SignedResultCache is the fast path for replaying a signed response.
type SignedResultCache interface {
	Get(ctx context.Context, key string) (*domain.SignedResult, error) // nil when absent
	Set(ctx context.Context, key string, result *domain.SignedResult, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// PolicyResolver picks the applicable policy for a (role, network, txType) triple.
type PolicyResolver interface {
	// Resolve returns nil, nil when no policy is configured.
	Resolve(ctx context.Context, role string, network domain.Network, txType string) (*domain.SigningPolicy, error)
}

// SigningGateway is the guarded signing entry point.
type SigningGateway interface {
	// Sign always returns a non-nil result. On rejection the error is an *apperror.AppError
	// and the result still carries the audit id.
	Sign(ctx context.Context, bearerToken string, req SigningRequest) (*SignResult, error)
}

// SigningRequest is one transaction's signing intent.
type SigningRequest struct {
	WalletID        uuid.UUID
	TxType          string
	UnsignedTxBlob  string
	UnsignedTxHash  string
	RequestedBy     string
	RequestedByName string
	RequestedByRole string
	Amount          *decimal.Decimal
	Currency        string
	Destination     string
	DestinationName string
	Metadata        map[string]any
}

// SignResult is the gateway outcome.
type SignResult struct {
	SignedTxBlob  string
	TxHash        string
	AuditLogID    string
	PolicyApplied *string
	Replayed      bool
	ReplayOf      string // audit entry of the original signing when Replayed
}

// SigningResponse is the wire shape of a gateway answer, used by batch signers.
type SigningResponse struct {
	Success       bool    `json:"success"`
	SignedTxBlob  string  `json:"signedTxBlob,omitempty"`
	TxHash        string  `json:"txHash,omitempty"`
	AuditLogID    string  `json:"auditLogId,omitempty"`
	PolicyApplied *string `json:"policyApplied,omitempty"`
	ReplayOf      string  `json:"replayOf,omitempty"`
	Error         string  `json:"error,omitempty"`
	ErrorCode     string  `json:"errorCode,omitempty"`
}

// TransactionSigner sends one signing request to a gateway.
// A structured rejection is a response with Success=false; a returned error means the call itself failed.
type TransactionSigner interface {
	SignTransaction(ctx context.Context, req SigningRequest) (*SigningResponse, error)
}

// WalletLookup loads a wallet for batch review.
type WalletLookup interface {
	GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
}

// WalletService defines wallet administration.
type WalletService interface {
	WalletLookup
	ListWallets(ctx context.Context, params WalletListParams) ([]domain.Wallet, int64, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, to domain.WalletStatus) (*domain.Wallet, error)
}

// PolicyService defines policy administration.
type PolicyService interface {
	Create(ctx context.Context, policy *domain.SigningPolicy) (*domain.SigningPolicy, error)
	Get(ctx context.Context, id string) (*domain.SigningPolicy, error)
	List(ctx context.Context, params PolicyListParams) ([]domain.SigningPolicy, error)
	// Update replaces a policy's mutable fields. A nil active keeps its current activation.
	Update(ctx context.Context, policy *domain.SigningPolicy, active *bool) (*domain.SigningPolicy, error)
	Deactivate(ctx context.Context, id string) error
}

// SigningAuditService exposes the signing audit trail for review.
type SigningAuditService interface {
	List(ctx context.Context, params AuditListParams) ([]domain.SigningAuditEntry, int64, error)
}

// AuditService records administrative audit logs (fire-and-forget).
type AuditService interface {
	Log(ctx context.Context, entry *domain.AdminAuditLog)
}
