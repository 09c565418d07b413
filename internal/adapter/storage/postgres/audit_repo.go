package postgres

import (
	"context"
	"fmt"

	"rwa-signing-gateway/internal/core/domain"
)

// AdminAuditRepo implements ports.AdminAuditRepository.
type AdminAuditRepo struct {
	pool Pool
}

// NewAdminAuditRepo creates a PostgreSQL-backed admin audit repository.
func NewAdminAuditRepo(pool Pool) *AdminAuditRepo {
	return &AdminAuditRepo{pool: pool}
}

func (r *AdminAuditRepo) Create(ctx context.Context, log *domain.AdminAuditLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admin_audit_logs (id, actor, action, resource_type, resource_id, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, log.Actor, string(log.Action), log.ResourceType,
		log.ResourceID, log.Details, log.IPAddress, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert admin audit log: %w", err)
	}
	return nil
}
