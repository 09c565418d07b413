package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wildcard matches any wallet role or transaction type in a policy key.
const Wildcard = "*"

// ImplicitPolicyID names the policy applied on non-mainnet networks when none is configured.
const ImplicitPolicyID = "implicit-default"

// SigningPolicy is a rule set keyed by (wallet role, network, transaction type).
type SigningPolicy struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	WalletRole         string           `json:"walletRole"`
	Network            Network          `json:"network"`
	TxType             string           `json:"txType"`
	MaxAmountXrp       *decimal.Decimal `json:"maxAmountXrp"` // nil = unbounded
	RequiresMultiSign  bool             `json:"requiresMultiSign"`
	MinSigners         int              `json:"minSigners"`
	RateLimitPerMinute int              `json:"rateLimitPerMinute"` // 0 = unlimited
	IsActive           bool             `json:"isActive"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// ImplicitPolicy is the unbounded policy used on testnet/devnet when nothing is configured.
func ImplicitPolicy(role string, network Network, txType string) *SigningPolicy {
	return &SigningPolicy{
		ID:         ImplicitPolicyID,
		Name:       "Implicit non-mainnet default",
		WalletRole: role,
		Network:    network,
		TxType:     txType,
		IsActive:   true,
	}
}

// IsImplicit returns true for the synthetic non-mainnet policy.
func (p *SigningPolicy) IsImplicit() bool {
	return p.ID == ImplicitPolicyID
}

// Specificity scores how precisely the policy matches: exact role +2, exact txType +1.
func (p *SigningPolicy) Specificity() int {
	score := 0
	if p.WalletRole != Wildcard {
		score += 2
	}
	if p.TxType != Wildcard {
		score++
	}
	return score
}

// ExceedsCeiling reports whether amount is strictly above the policy ceiling.
// Equality passes.
func (p *SigningPolicy) ExceedsCeiling(amount decimal.Decimal) bool {
	return p.MaxAmountXrp != nil && amount.GreaterThan(*p.MaxAmountXrp)
}

// HasRateLimit returns true when a per-minute limit applies.
func (p *SigningPolicy) HasRateLimit() bool {
	return p.RateLimitPerMinute > 0
}

// Validate checks a policy before it is stored.
func (p *SigningPolicy) Validate() error {
	if p.WalletRole == "" {
		return errors.New("walletRole is required")
	}
	if !p.Network.Valid() {
		return errors.New("network must be one of mainnet, testnet, devnet")
	}
	if p.TxType == "" {
		return errors.New("txType is required")
	}
	if p.TxType != Wildcard && !TxType(p.TxType).Valid() {
		return errors.New("txType is not a supported transaction type")
	}
	if p.MaxAmountXrp != nil && !p.MaxAmountXrp.IsPositive() {
		return errors.New("maxAmountXrp must be positive when set")
	}
	if p.RequiresMultiSign && p.MinSigners < 1 {
		return errors.New("minSigners must be at least 1 when multi-sign is required")
	}
	if p.MinSigners < 0 {
		return errors.New("minSigners must not be negative")
	}
	if p.RateLimitPerMinute < 0 {
		return errors.New("rateLimitPerMinute must not be negative")
	}
	return nil
}

// NewPolicyID returns a fresh policy identifier.
func NewPolicyID() string {
	return uuid.NewString()
}
