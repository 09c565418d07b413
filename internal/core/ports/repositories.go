package ports

import (
	"context"

	"rwa-signing-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// WalletRepository defines persistence operations for wallets.
// Wallets are provisioned elsewhere; the gateway only reads them and admins change status.
type WalletRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	List(ctx context.Context, params WalletListParams) ([]domain.Wallet, int64, error)
	// UpdateStatus moves the wallet from one status to another.
	// Returns false if the wallet was not in the expected status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.WalletStatus) (bool, error)
}

// WalletListParams holds filter + pagination for listing wallets.
type WalletListParams struct {
	Status   *domain.WalletStatus
	Network  *domain.Network
	Role     string
	Page     int
	PageSize int
}

// PolicyRepository defines persistence operations for signing policies.
type PolicyRepository interface {
	// FindCandidates returns active policies whose role is role or "*",
	// whose network equals network, and whose txType is txType or "*".
	FindCandidates(ctx context.Context, role string, network domain.Network, txType string) ([]domain.SigningPolicy, error)
	GetByID(ctx context.Context, id string) (*domain.SigningPolicy, error)
	List(ctx context.Context, params PolicyListParams) ([]domain.SigningPolicy, error)
	Create(ctx context.Context, policy *domain.SigningPolicy) error
	Update(ctx context.Context, policy *domain.SigningPolicy) error
	Deactivate(ctx context.Context, id string) (bool, error)
}

// PolicyListParams filters the admin policy listing.
type PolicyListParams struct {
	Role       string
	Network    *domain.Network
	ActiveOnly bool
}

// SigningAuditRepository is the append-only store of signing attempts.
type SigningAuditRepository interface {
	Append(ctx context.Context, entry *domain.SigningAuditEntry) (uuid.UUID, error)
	// FindSigned returns the SIGNED entry for a transaction, or nil if it was never signed.
	FindSigned(ctx context.Context, walletID uuid.UUID, unsignedTxHash string) (*domain.SigningAuditEntry, error)
	List(ctx context.Context, params AuditListParams) ([]domain.SigningAuditEntry, int64, error)
}

// AuditListParams holds filter + pagination for listing signing audit entries.
type AuditListParams struct {
	WalletID *uuid.UUID
	Status   *domain.SigningStatus
	Page     int
	PageSize int
}

// AdminAuditRepository persists administrative audit logs.
type AdminAuditRepository interface {
	Create(ctx context.Context, log *domain.AdminAuditLog) error
}
