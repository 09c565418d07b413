package service

import (
	"context"
	"time"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/pkg/apperror"
)

type policyService struct {
	policyRepo ports.PolicyRepository
	now        func() time.Time
}

// NewPolicyService creates the policy administration service.
func NewPolicyService(policyRepo ports.PolicyRepository) ports.PolicyService {
	return &policyService{policyRepo: policyRepo, now: time.Now}
}

func (s *policyService) Create(ctx context.Context, policy *domain.SigningPolicy) (*domain.SigningPolicy, error) {
	if err := policy.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	now := s.now().UTC()
	policy.ID = domain.NewPolicyID()
	policy.IsActive = true
	policy.CreatedAt = now
	policy.UpdatedAt = now

	if err := s.policyRepo.Create(ctx, policy); err != nil {
		return nil, apperror.InternalError(err)
	}
	return policy, nil
}

func (s *policyService) Get(ctx context.Context, id string) (*domain.SigningPolicy, error) {
	policy, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if policy == nil {
		return nil, apperror.ErrNotFound("policy")
	}
	return policy, nil
}

func (s *policyService) List(ctx context.Context, params ports.PolicyListParams) ([]domain.SigningPolicy, error) {
	policies, err := s.policyRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return policies, nil
}

// Update replaces the mutable fields of an existing policy. The key triple may change too.
// A deactivated policy is brought back by passing active=true.
func (s *policyService) Update(ctx context.Context, policy *domain.SigningPolicy, active *bool) (*domain.SigningPolicy, error) {
	existing, err := s.Get(ctx, policy.ID)
	if err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	policy.CreatedAt = existing.CreatedAt
	policy.IsActive = existing.IsActive
	if active != nil {
		policy.IsActive = *active
	}
	policy.UpdatedAt = s.now().UTC()

	if err := s.policyRepo.Update(ctx, policy); err != nil {
		return nil, apperror.InternalError(err)
	}
	return policy, nil
}

// Deactivate marks a policy inactive. Policy rows are never deleted.
func (s *policyService) Deactivate(ctx context.Context, id string) error {
	ok, err := s.policyRepo.Deactivate(ctx, id)
	if err != nil {
		return apperror.InternalError(err)
	}
	if !ok {
		return apperror.ErrNotFound("policy")
	}
	return nil
}
