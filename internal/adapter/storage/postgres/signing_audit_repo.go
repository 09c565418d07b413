package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const signingAuditColumns = `id, wallet_id, wallet_address, network, key_storage_type, tx_type, unsigned_tx_hash,
		tx_hash, signed_tx_blob, policy_id, requested_by, requested_by_name, requested_by_role,
		amount::text, currency, destination, destination_name, metadata, status, error_code,
		rejection_reason, error_message, warning, created_at`

// SigningAuditRepo implements ports.SigningAuditRepository. It only ever inserts;
// the table also carries a trigger refusing UPDATE and DELETE.
type SigningAuditRepo struct {
	pool Pool
	now  func() time.Time
}

// NewSigningAuditRepo creates a new SigningAuditRepo.
func NewSigningAuditRepo(pool Pool) *SigningAuditRepo {
	return &SigningAuditRepo{pool: pool, now: time.Now}
}

// Append writes one entry and returns its id.
func (r *SigningAuditRepo) Append(ctx context.Context, e *domain.SigningAuditEntry) (uuid.UUID, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}

	var metadata []byte
	if len(e.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(e.Metadata); err != nil {
			return uuid.Nil, fmt.Errorf("encode audit metadata: %w", err)
		}
	}

	query := `INSERT INTO signing_audit_log (id, wallet_id, wallet_address, network, key_storage_type, tx_type,
		unsigned_tx_hash, tx_hash, signed_tx_blob, policy_id, requested_by, requested_by_name, requested_by_role,
		amount, currency, destination, destination_name, metadata, status, error_code,
		rejection_reason, error_message, warning, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::numeric, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.WalletID, e.WalletAddress, e.Network, e.KeyStorageType, e.TxType,
		e.UnsignedTxHash, e.TxHash, e.SignedTxBlob, e.PolicyID, e.RequestedBy, e.RequestedByName, e.RequestedByRole,
		decimalArg(e.Amount), e.Currency, e.Destination, e.DestinationName, metadata, e.Status, e.ErrorCode,
		e.RejectionReason, e.ErrorMessage, e.Warning, e.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert signing audit entry: %w", err)
	}
	return e.ID, nil
}

func scanSigningAudit(row pgx.Row) (*domain.SigningAuditEntry, error) {
	e := &domain.SigningAuditEntry{}
	var amount *string
	var metadata []byte
	err := row.Scan(
		&e.ID, &e.WalletID, &e.WalletAddress, &e.Network, &e.KeyStorageType, &e.TxType, &e.UnsignedTxHash,
		&e.TxHash, &e.SignedTxBlob, &e.PolicyID, &e.RequestedBy, &e.RequestedByName, &e.RequestedByRole,
		&amount, &e.Currency, &e.Destination, &e.DestinationName, &metadata, &e.Status, &e.ErrorCode,
		&e.RejectionReason, &e.ErrorMessage, &e.Warning, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if e.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("decode audit metadata: %w", err)
		}
	}
	return e, nil
}

// FindSigned returns the most recent SIGNED entry for the transaction, or nil, nil.
// unsignedTxHash is expected in its stored (uppercase) form.
func (r *SigningAuditRepo) FindSigned(ctx context.Context, walletID uuid.UUID, unsignedTxHash string) (*domain.SigningAuditEntry, error) {
	query := `SELECT ` + signingAuditColumns + ` FROM signing_audit_log
		WHERE wallet_id = $1 AND unsigned_tx_hash = $2 AND status = $3
		ORDER BY created_at DESC LIMIT 1`

	e, err := scanSigningAudit(r.pool.QueryRow(ctx, query, walletID, unsignedTxHash, domain.SigningStatusSigned))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find signed entry: %w", err)
	}
	return e, nil
}

// List fetches entries newest first with filtering and pagination.
func (r *SigningAuditRepo) List(ctx context.Context, params ports.AuditListParams) ([]domain.SigningAuditEntry, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.WalletID != nil {
		conditions = append(conditions, fmt.Sprintf("wallet_id = $%d", argIdx))
		args = append(args, *params.WalletID)
		argIdx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM signing_audit_log %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count signing audit entries: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM signing_audit_log %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		signingAuditColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list signing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.SigningAuditEntry
	for rows.Next() {
		e, err := scanSigningAudit(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan signing audit row: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate signing audit rows: %w", err)
	}
	return entries, total, nil
}
