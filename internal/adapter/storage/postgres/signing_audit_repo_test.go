package postgres

import (
	"context"
	"testing"
	"time"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signingAuditColumnNames() []string {
	return []string{"id", "wallet_id", "wallet_address", "network", "key_storage_type", "tx_type", "unsigned_tx_hash",
		"tx_hash", "signed_tx_blob", "policy_id", "requested_by", "requested_by_name", "requested_by_role",
		"amount", "currency", "destination", "destination_name", "metadata", "status", "error_code",
		"rejection_reason", "error_message", "warning", "created_at"}
}

func signedAuditRow(id, walletID uuid.UUID, hash string, amount *string, metadata []byte) []any {
	txHash := "TXHASH"
	blob := "SIGNEDBLOB"
	policyID := "p1"
	var none *string
	return []any{id, walletID, "rIssuer", domain.NetworkMainnet, domain.KeyStorageVault, "Payment", hash,
		&txHash, &blob, &policyID, "ops-1", "Ops One", "issuer",
		amount, "XRP", "rDest", "", metadata, domain.SigningStatusSigned, "",
		none, none, none, time.Now().UTC().Truncate(time.Microsecond)}
}

func TestSigningAuditRepo_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSigningAuditRepo(mock)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	amount := decimal.RequireFromString("12.5")
	reason := "Wallet is suspended"
	entry := &domain.SigningAuditEntry{
		WalletID:        uuid.New(),
		WalletAddress:   "rIssuer",
		TxType:          "Payment",
		UnsignedTxHash:  "ABC",
		RequestedBy:     "ops-1",
		RequestedByRole: "issuer",
		Amount:          &amount,
		Metadata:        map[string]any{"batchId": "b1"},
		Status:          domain.SigningStatusRejected,
		ErrorCode:       "WALLET_SUSPENDED",
		RejectionReason: &reason,
	}
	amountText := "12.5"

	mock.ExpectExec("INSERT INTO signing_audit_log").
		WithArgs(pgxmock.AnyArg(), entry.WalletID, "rIssuer", domain.Network(""), domain.KeyStorageType(""), "Payment",
			"ABC", (*string)(nil), (*string)(nil), (*string)(nil), "ops-1", "", "issuer",
			&amountText, "", "", "", []byte(`{"batchId":"b1"}`), domain.SigningStatusRejected, "WALLET_SUSPENDED",
			&reason, (*string)(nil), (*string)(nil), fixed).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := repo.Append(context.Background(), entry)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, id, entry.ID)
	assert.Equal(t, fixed, entry.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSigningAuditRepo_FindSigned(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSigningAuditRepo(mock)
	id, walletID := uuid.New(), uuid.New()
	amount := "5.000000"

	mock.ExpectQuery("SELECT .+ FROM signing_audit_log WHERE wallet_id .+ AND unsigned_tx_hash .+ AND status").
		WithArgs(walletID, "ABC", domain.SigningStatusSigned).
		WillReturnRows(pgxmock.NewRows(signingAuditColumnNames()).
			AddRow(signedAuditRow(id, walletID, "ABC", &amount, []byte(`{"order":1}`))...))

	e, err := repo.FindSigned(context.Background(), walletID, "ABC")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, "TXHASH", *e.TxHash)
	assert.Equal(t, "SIGNEDBLOB", *e.SignedTxBlob)
	assert.True(t, decimal.NewFromInt(5).Equal(*e.Amount))
	assert.Equal(t, float64(1), e.Metadata["order"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSigningAuditRepo_FindSigned_None(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSigningAuditRepo(mock)
	walletID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM signing_audit_log").
		WithArgs(walletID, "ABC", domain.SigningStatusSigned).
		WillReturnRows(pgxmock.NewRows(signingAuditColumnNames()))

	e, err := repo.FindSigned(context.Background(), walletID, "ABC")
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestSigningAuditRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSigningAuditRepo(mock)
	walletID := uuid.New()
	status := domain.SigningStatusSigned

	mock.ExpectQuery("SELECT COUNT.+ FROM signing_audit_log WHERE wallet_id .+ AND status").
		WithArgs(walletID, status).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(21)))
	mock.ExpectQuery("SELECT .+ FROM signing_audit_log WHERE .+ ORDER BY created_at DESC LIMIT").
		WithArgs(walletID, status, 20, 20).
		WillReturnRows(pgxmock.NewRows(signingAuditColumnNames()).
			AddRow(signedAuditRow(uuid.New(), walletID, "ABC", nil, nil)...))

	entries, total, err := repo.List(context.Background(), ports.AuditListParams{
		WalletID: &walletID, Status: &status, Page: 2, PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(21), total)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Amount)
	assert.Nil(t, entries[0].Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminAuditRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAdminAuditRepo(mock)
	log := &domain.AdminAuditLog{
		ID:           uuid.New(),
		Actor:        "admin-1",
		Action:       domain.AdminActionSuspendWallet,
		ResourceType: "wallet",
		ResourceID:   "w1",
		Details:      `{"status":200}`,
		IPAddress:    "10.0.0.1",
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO admin_audit_logs").
		WithArgs(log.ID, log.Actor, "SUSPEND_WALLET", log.ResourceType, log.ResourceID, log.Details, log.IPAddress, log.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), log))
	assert.NoError(t, mock.ExpectationsWereMet())
}
