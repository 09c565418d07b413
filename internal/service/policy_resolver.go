package service

import (
	"context"
	"fmt"
	"sort"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// PolicyResolverImpl implements ports.PolicyResolver.
type PolicyResolverImpl struct {
	repo ports.PolicyRepository
	log  zerolog.Logger
}

// NewPolicyResolver creates a new policy resolver.
func NewPolicyResolver(repo ports.PolicyRepository, log zerolog.Logger) *PolicyResolverImpl {
	return &PolicyResolverImpl{repo: repo, log: log}
}

// Resolve returns the single applicable policy for (role, network, txType), or nil when none is configured.
//
// Among the active candidates the most specific one wins (exact role +2, exact txType +1).
// Equally specific candidates are ordered most restrictive first: lowest ceiling
// (unbounded last), multi-sign required, more signers, lowest positive rate limit, then id.
func (r *PolicyResolverImpl) Resolve(ctx context.Context, role string, network domain.Network, txType string) (*domain.SigningPolicy, error) {
	if role == "" || network == "" || txType == "" {
		return nil, apperror.Validation("role, network and txType are required")
	}
	if !network.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown network %q", network))
	}

	candidates, err := r.repo.FindCandidates(ctx, role, network, txType)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("loading policy candidates: %w", err))
	}

	applicable := make([]domain.SigningPolicy, 0, len(candidates))
	for _, p := range candidates {
		if !p.IsActive || p.Network != network {
			continue
		}
		if p.WalletRole != role && p.WalletRole != domain.Wildcard {
			continue
		}
		if p.TxType != txType && p.TxType != domain.Wildcard {
			continue
		}
		applicable = append(applicable, p)
	}
	if len(applicable) == 0 {
		return nil, nil
	}

	sort.SliceStable(applicable, func(i, j int) bool {
		return morePreferred(&applicable[i], &applicable[j])
	})

	chosen := applicable[0]
	if len(applicable) > 1 {
		r.log.Debug().
			Str("role", role).
			Str("network", string(network)).
			Str("tx_type", txType).
			Int("candidates", len(applicable)).
			Str("policy_id", chosen.ID).
			Msg("multiple policies matched, picked most specific and restrictive")
	}
	return &chosen, nil
}

// morePreferred reports whether a should be chosen over b.
func morePreferred(a, b *domain.SigningPolicy) bool {
	if sa, sb := a.Specificity(), b.Specificity(); sa != sb {
		return sa > sb
	}

	switch {
	case a.MaxAmountXrp != nil && b.MaxAmountXrp == nil:
		return true
	case a.MaxAmountXrp == nil && b.MaxAmountXrp != nil:
		return false
	case a.MaxAmountXrp != nil && b.MaxAmountXrp != nil && !a.MaxAmountXrp.Equal(*b.MaxAmountXrp):
		return a.MaxAmountXrp.LessThan(*b.MaxAmountXrp)
	}

	if a.RequiresMultiSign != b.RequiresMultiSign {
		return a.RequiresMultiSign
	}
	if a.MinSigners != b.MinSigners {
		return a.MinSigners > b.MinSigners
	}

	switch {
	case a.HasRateLimit() && !b.HasRateLimit():
		return true
	case !a.HasRateLimit() && b.HasRateLimit():
		return false
	case a.RateLimitPerMinute != b.RateLimitPerMinute:
		return a.RateLimitPerMinute < b.RateLimitPerMinute
	}

	return a.ID < b.ID
}
