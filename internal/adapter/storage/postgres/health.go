package postgres

import "context"

// HealthCheck probes the audit log table. Signing without a writable audit log
// is never allowed, so a failure here takes the gateway out of rotation.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	_, err := h.pool.Exec(ctx, "SELECT 1 FROM signing_audit_log LIMIT 1")
	return err
}

func (h *HealthCheck) Name() string   { return "postgresql" }
func (h *HealthCheck) Critical() bool { return true }
