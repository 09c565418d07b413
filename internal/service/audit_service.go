package service

import (
	"context"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.AdminAuditRepository
	log  zerolog.Logger
}

// NewAuditService creates the administrative audit service.
// If repo is nil, audit logs are only written to the logger.
func NewAuditService(repo ports.AdminAuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Log records an audit entry asynchronously (fire-and-forget).
func (s *auditService) Log(ctx context.Context, entry *domain.AdminAuditLog) {
	go func() {
		s.log.Info().
			Str("actor", entry.Actor).
			Str("action", string(entry.Action)).
			Str("resource_type", entry.ResourceType).
			Str("resource_id", entry.ResourceID).
			Str("ip", entry.IPAddress).
			Msg("admin audit")

		if s.repo != nil {
			if err := s.repo.Create(context.Background(), entry); err != nil {
				s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to persist admin audit log")
			}
		}
	}()
}

// SigningAuditServiceImpl serves the signing audit trail to reviewers.
type SigningAuditServiceImpl struct {
	repo ports.SigningAuditRepository
}

func NewSigningAuditService(repo ports.SigningAuditRepository) *SigningAuditServiceImpl {
	return &SigningAuditServiceImpl{repo: repo}
}

// List returns one page of entries, newest first.
func (s *SigningAuditServiceImpl) List(ctx context.Context, params ports.AuditListParams) ([]domain.SigningAuditEntry, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.repo.List(ctx, params)
}
