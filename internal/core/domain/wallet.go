package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WalletStatus represents the lifecycle state of a custody wallet.
type WalletStatus string

const (
	WalletStatusProvisioning WalletStatus = "PROVISIONING"
	WalletStatusActive       WalletStatus = "ACTIVE"
	WalletStatusSuspended    WalletStatus = "SUSPENDED"
	WalletStatusArchived     WalletStatus = "ARCHIVED"
)

// KeyStorageType identifies where a wallet's signing key lives.
type KeyStorageType string

const (
	KeyStorageLegacyDB KeyStorageType = "LEGACY_DB"
	KeyStorageVault    KeyStorageType = "VAULT"
	KeyStorageHSM      KeyStorageType = "HSM"
	KeyStorageExternal KeyStorageType = "EXTERNAL"
)

// Valid reports whether k is a known storage type.
func (k KeyStorageType) Valid() bool {
	switch k {
	case KeyStorageLegacyDB, KeyStorageVault, KeyStorageHSM, KeyStorageExternal:
		return true
	}
	return false
}

// Network is the ledger network a wallet lives on.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkDevnet  Network = "devnet"
)

// Valid reports whether n is one of the three known networks.
func (n Network) Valid() bool {
	switch n {
	case NetworkMainnet, NetworkTestnet, NetworkDevnet:
		return true
	}
	return false
}

// UnknownWalletAddress is recorded on audit entries when the wallet lookup failed.
const UnknownWalletAddress = "UNKNOWN"

// ErrInvalidKeyMaterial means the wallet's key fields don't match its storage type.
var ErrInvalidKeyMaterial = errors.New("wallet key material does not match key storage type")

// Wallet is the identity and custody configuration of a ledger account.
type Wallet struct {
	ID               uuid.UUID      `json:"id"`
	Address          string         `json:"address"`
	Status           WalletStatus   `json:"status"`
	KeyStorageType   KeyStorageType `json:"keyStorageType"`
	Network          Network        `json:"network"`
	Role             string         `json:"role"`
	MultiSignEnabled bool           `json:"multiSignEnabled"`
	VaultKeyRef      *string        `json:"vaultKeyRef,omitempty"`
	EncryptedSeed    *string        `json:"-"` // never expose
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// KeyMaterial is what a signing adapter needs to produce a signature.
// Exactly one of VaultKeyRef and EncryptedSeed is set.
type KeyMaterial struct {
	StorageType   KeyStorageType
	VaultKeyRef   string
	EncryptedSeed string
}

// IsLegacyOnMainnet reports the one combination that must never sign.
func (w *Wallet) IsLegacyOnMainnet() bool {
	return w.KeyStorageType == KeyStorageLegacyDB && w.Network == NetworkMainnet
}

// IsActive returns true if the wallet may be used for signing.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// KeyMaterial extracts the key reference matching the storage type.
func (w *Wallet) KeyMaterial() (KeyMaterial, error) {
	hasRef := w.VaultKeyRef != nil && *w.VaultKeyRef != ""
	hasSeed := w.EncryptedSeed != nil && *w.EncryptedSeed != ""

	switch w.KeyStorageType {
	case KeyStorageLegacyDB:
		if !hasSeed || hasRef {
			return KeyMaterial{}, fmt.Errorf("%w: %s wallet %s", ErrInvalidKeyMaterial, w.KeyStorageType, w.ID)
		}
		return KeyMaterial{StorageType: w.KeyStorageType, EncryptedSeed: *w.EncryptedSeed}, nil
	case KeyStorageVault, KeyStorageHSM, KeyStorageExternal:
		if !hasRef || hasSeed {
			return KeyMaterial{}, fmt.Errorf("%w: %s wallet %s", ErrInvalidKeyMaterial, w.KeyStorageType, w.ID)
		}
		return KeyMaterial{StorageType: w.KeyStorageType, VaultKeyRef: *w.VaultKeyRef}, nil
	default:
		return KeyMaterial{}, fmt.Errorf("%w: unknown storage type %q", ErrInvalidKeyMaterial, w.KeyStorageType)
	}
}

// CanTransition reports whether an admin may move the wallet from its current status to next.
// ARCHIVED is terminal.
func (w *Wallet) CanTransition(next WalletStatus) bool {
	switch w.Status {
	case WalletStatusActive:
		return next == WalletStatusSuspended || next == WalletStatusArchived
	case WalletStatusSuspended:
		return next == WalletStatusActive || next == WalletStatusArchived
	case WalletStatusProvisioning:
		return next == WalletStatusArchived
	default:
		return false
	}
}
