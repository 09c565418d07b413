package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

const policyColumns = `id, name, wallet_role, network, tx_type, max_amount_xrp::text, requires_multi_sign,
		min_signers, rate_limit_per_minute, is_active, created_at, updated_at`

// PolicyRepo implements ports.PolicyRepository.
type PolicyRepo struct {
	pool Pool
}

// NewPolicyRepo creates a new PolicyRepo.
func NewPolicyRepo(pool Pool) *PolicyRepo {
	return &PolicyRepo{pool: pool}
}

func scanPolicy(row pgx.Row) (*domain.SigningPolicy, error) {
	p := &domain.SigningPolicy{}
	var maxAmount *string
	err := row.Scan(
		&p.ID, &p.Name, &p.WalletRole, &p.Network, &p.TxType, &maxAmount, &p.RequiresMultiSign,
		&p.MinSigners, &p.RateLimitPerMinute, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.MaxAmountXrp, err = parseDecimal(maxAmount); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PolicyRepo) queryPolicies(ctx context.Context, query string, args ...any) ([]domain.SigningPolicy, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []domain.SigningPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy row: %w", err)
		}
		policies = append(policies, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy rows: %w", err)
	}
	return policies, nil
}

// FindCandidates returns the active policies that could apply to the triple.
// Picking among them is the resolver's job.
func (r *PolicyRepo) FindCandidates(ctx context.Context, role string, network domain.Network, txType string) ([]domain.SigningPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM signing_policies
		WHERE is_active AND network = $1 AND wallet_role IN ($2, '*') AND tx_type IN ($3, '*')`

	policies, err := r.queryPolicies(ctx, query, network, role, txType)
	if err != nil {
		return nil, fmt.Errorf("find candidate policies: %w", err)
	}
	return policies, nil
}

// GetByID fetches a policy. Returns nil, nil if it does not exist.
func (r *PolicyRepo) GetByID(ctx context.Context, id string) (*domain.SigningPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM signing_policies WHERE id = $1`

	p, err := scanPolicy(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get policy by id: %w", err)
	}
	return p, nil
}

// List returns policies ordered by their key triple.
func (r *PolicyRepo) List(ctx context.Context, params ports.PolicyListParams) ([]domain.SigningPolicy, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("wallet_role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}
	if params.Network != nil {
		conditions = append(conditions, fmt.Sprintf("network = $%d", argIdx))
		args = append(args, *params.Network)
	}
	if params.ActiveOnly {
		conditions = append(conditions, "is_active")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf(`SELECT %s FROM signing_policies %s ORDER BY network, wallet_role, tx_type, id`, policyColumns, where)

	policies, err := r.queryPolicies(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	return policies, nil
}

// Create inserts a new policy.
func (r *PolicyRepo) Create(ctx context.Context, p *domain.SigningPolicy) error {
	query := `INSERT INTO signing_policies (id, name, wallet_role, network, tx_type, max_amount_xrp, requires_multi_sign,
		min_signers, rate_limit_per_minute, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.WalletRole, p.Network, p.TxType, decimalArg(p.MaxAmountXrp), p.RequiresMultiSign,
		p.MinSigners, p.RateLimitPerMinute, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}

// Update replaces every mutable field of a policy.
func (r *PolicyRepo) Update(ctx context.Context, p *domain.SigningPolicy) error {
	query := `UPDATE signing_policies SET name = $1, wallet_role = $2, network = $3, tx_type = $4,
		max_amount_xrp = $5::numeric, requires_multi_sign = $6, min_signers = $7, rate_limit_per_minute = $8,
		is_active = $9, updated_at = $10
		WHERE id = $11`

	tag, err := r.pool.Exec(ctx, query,
		p.Name, p.WalletRole, p.Network, p.TxType,
		decimalArg(p.MaxAmountXrp), p.RequiresMultiSign, p.MinSigners, p.RateLimitPerMinute,
		p.IsActive, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("policy not found: %s", p.ID)
	}
	return nil
}

// Deactivate marks a policy inactive. Returns false if no such policy exists.
func (r *PolicyRepo) Deactivate(ctx context.Context, id string) (bool, error) {
	query := `UPDATE signing_policies SET is_active = FALSE, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("deactivate policy: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
