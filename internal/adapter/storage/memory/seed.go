package memory

import (
	"context"
	"fmt"
	"io"
	"time"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Seed is the YAML fixture a memory-backed gateway starts from.
type Seed struct {
	Wallets  []SeedWallet `yaml:"wallets"`
	Policies []SeedPolicy `yaml:"policies"`
}

type SeedWallet struct {
	ID               string `yaml:"id"`
	Address          string `yaml:"address"`
	Status           string `yaml:"status"`
	KeyStorageType   string `yaml:"keyStorageType"`
	Network          string `yaml:"network"`
	Role             string `yaml:"role"`
	MultiSignEnabled bool   `yaml:"multiSignEnabled"`
	VaultKeyRef      string `yaml:"vaultKeyRef"`
	// SeedHex is the plaintext LEGACY_DB seed; it is encrypted on load.
	SeedHex string `yaml:"seedHex"`
}

type SeedPolicy struct {
	ID                 string `yaml:"id"`
	Name               string `yaml:"name"`
	WalletRole         string `yaml:"walletRole"`
	Network            string `yaml:"network"`
	TxType             string `yaml:"txType"`
	MaxAmountXrp       string `yaml:"maxAmountXrp"`
	RequiresMultiSign  bool   `yaml:"requiresMultiSign"`
	MinSigners         int    `yaml:"minSigners"`
	RateLimitPerMinute int    `yaml:"rateLimitPerMinute"`
}

// LoadSeed reads a YAML fixture into the stores.
func LoadSeed(r io.Reader, enc ports.EncryptionService, wallets *WalletStore, policies *PolicyStore) error {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && err != io.EOF {
		return fmt.Errorf("decoding seed: %w", err)
	}
	now := time.Now().UTC()

	for i, sw := range seed.Wallets {
		w, err := sw.toWallet(enc, now)
		if err != nil {
			return fmt.Errorf("wallets[%d]: %w", i, err)
		}
		wallets.Put(*w)
	}

	for i, sp := range seed.Policies {
		p, err := sp.toPolicy(now)
		if err != nil {
			return fmt.Errorf("policies[%d]: %w", i, err)
		}
		if err := policies.Create(context.Background(), p); err != nil {
			return fmt.Errorf("policies[%d]: %w", i, err)
		}
	}
	return nil
}

func (sw SeedWallet) toWallet(enc ports.EncryptionService, now time.Time) (*domain.Wallet, error) {
	id, err := uuid.Parse(sw.ID)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	w := &domain.Wallet{
		ID:               id,
		Address:          sw.Address,
		Status:           domain.WalletStatus(sw.Status),
		KeyStorageType:   domain.KeyStorageType(sw.KeyStorageType),
		Network:          domain.Network(sw.Network),
		Role:             sw.Role,
		MultiSignEnabled: sw.MultiSignEnabled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if w.Status == "" {
		w.Status = domain.WalletStatusActive
	}
	if !w.KeyStorageType.Valid() {
		return nil, fmt.Errorf("unknown keyStorageType %q", sw.KeyStorageType)
	}
	if !w.Network.Valid() {
		return nil, fmt.Errorf("unknown network %q", sw.Network)
	}
	if sw.VaultKeyRef != "" {
		ref := sw.VaultKeyRef
		w.VaultKeyRef = &ref
	}
	if sw.SeedHex != "" {
		ct, err := enc.Encrypt(sw.SeedHex)
		if err != nil {
			return nil, fmt.Errorf("encrypting seed: %w", err)
		}
		w.EncryptedSeed = &ct
	}
	if _, err := w.KeyMaterial(); err != nil {
		return nil, err
	}
	return w, nil
}

func (sp SeedPolicy) toPolicy(now time.Time) (*domain.SigningPolicy, error) {
	p := &domain.SigningPolicy{
		ID:                 sp.ID,
		Name:               sp.Name,
		WalletRole:         sp.WalletRole,
		Network:            domain.Network(sp.Network),
		TxType:             sp.TxType,
		RequiresMultiSign:  sp.RequiresMultiSign,
		MinSigners:         sp.MinSigners,
		RateLimitPerMinute: sp.RateLimitPerMinute,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if p.ID == "" {
		p.ID = domain.NewPolicyID()
	}
	if sp.MaxAmountXrp != "" {
		d, err := decimal.NewFromString(sp.MaxAmountXrp)
		if err != nil {
			return nil, fmt.Errorf("maxAmountXrp: %w", err)
		}
		p.MaxAmountXrp = &d
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
