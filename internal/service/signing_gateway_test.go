package service

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/internal/core/ports/mocks"
	"rwa-signing-gateway/internal/ledger"
	"rwa-signing-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testToken = "tok"

func strPtr(s string) *string { return &s }

type gatewayTestDeps struct {
	gw       *SigningGatewayImpl
	tokens   *mocks.MockTokenService
	wallets  *mocks.MockWalletRepository
	policies *mocks.MockPolicyResolver
	registry *mocks.MockAdapterRegistry
	adapter  *mocks.MockSigningAdapter
	counter  *mocks.MockRateCounter
	lock     *mocks.MockSigningLock
	cache    *mocks.MockSignedResultCache
	audit    *mocks.MockSigningAuditRepository

	entries []domain.SigningAuditEntry
	auditID uuid.UUID
}

func setupGateway(t *testing.T) *gatewayTestDeps {
	ctrl := gomock.NewController(t)
	d := &gatewayTestDeps{
		tokens:   mocks.NewMockTokenService(ctrl),
		wallets:  mocks.NewMockWalletRepository(ctrl),
		policies: mocks.NewMockPolicyResolver(ctrl),
		registry: mocks.NewMockAdapterRegistry(ctrl),
		adapter:  mocks.NewMockSigningAdapter(ctrl),
		counter:  mocks.NewMockRateCounter(ctrl),
		lock:     mocks.NewMockSigningLock(ctrl),
		cache:    mocks.NewMockSignedResultCache(ctrl),
		audit:    mocks.NewMockSigningAuditRepository(ctrl),
		auditID:  uuid.New(),
	}
	d.gw = NewSigningGateway(
		d.tokens, d.wallets, d.policies, d.registry,
		d.counter, d.lock, d.cache, d.audit,
		GatewayConfig{
			PermittedRoles: []string{"issuer", "operator", "treasury", "admin"},
			RateWindow:     time.Minute,
			LockTTL:        30 * time.Second,
			ReplayTTL:      24 * time.Hour,
		},
		newTestLogger(),
	)
	return d
}

// authOK makes the bearer token resolve to testIdentity.
func (d *gatewayTestDeps) authOK() {
	identity := testIdentity
	d.tokens.EXPECT().Validate(testToken).Return(&identity, nil)
}

func (d *gatewayTestDeps) noReplay() {
	d.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	d.audit.EXPECT().FindSigned(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
}

// captureAudit records every appended entry. The gateway must write exactly one per request.
func (d *gatewayTestDeps) captureAudit() {
	d.audit.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e *domain.SigningAuditEntry) (uuid.UUID, error) {
			d.entries = append(d.entries, *e)
			return d.auditID, nil
		},
	).Times(1)
}

// lockOK grants the in-flight lock; the replay lookup is repeated once it is held.
func (d *gatewayTestDeps) lockOK(key string) {
	d.lock.EXPECT().Acquire(gomock.Any(), key, 30*time.Second).Return(true, nil)
	d.lock.EXPECT().Release(gomock.Any(), key).Return(nil)
	d.noReplay()
}

// xrpPayment is an unsigned Payment of xrp from the test wallet's address.
func xrpPayment(t *testing.T, xrp string) (string, string) {
	t.Helper()
	blob, err := ledger.Encode("rIssuerAddress", &domain.Payment{
		Destination: "rDest",
		Value:       domain.Amount{Currency: domain.NativeCurrency, Value: decimal.RequireFromString(xrp)},
	})
	require.NoError(t, err)
	hash, err := ledger.UnsignedHash(blob)
	require.NoError(t, err)
	return blob, hash
}

// rawBlob hex encodes raw JSON and returns it with its hash.
func rawBlob(t *testing.T, raw string) (string, string) {
	t.Helper()
	blob := strings.ToUpper(hex.EncodeToString([]byte(raw)))
	hash, err := ledger.UnsignedHash(blob)
	require.NoError(t, err)
	return blob, hash
}

func newSignReq(t *testing.T, walletID uuid.UUID) ports.SigningRequest {
	return newSignReqXRP(t, walletID, "250")
}

func newSignReqXRP(t *testing.T, walletID uuid.UUID, xrp string) ports.SigningRequest {
	blob, hash := xrpPayment(t, xrp)
	return ports.SigningRequest{
		WalletID:       walletID,
		TxType:         "Payment",
		UnsignedTxBlob: blob,
		UnsignedTxHash: hash,
		RequestedBy:    testIdentity.UserID,
		Amount:         decPtr(xrp),
		Currency:       "XRP",
		Destination:    "rDest",
	}
}

func testWallet(storage domain.KeyStorageType, network domain.Network) *domain.Wallet {
	w := &domain.Wallet{
		ID:             uuid.New(),
		Address:        "rIssuerAddress",
		Status:         domain.WalletStatusActive,
		KeyStorageType: storage,
		Network:        network,
		Role:           "issuer",
	}
	if storage == domain.KeyStorageLegacyDB {
		seed := "enc-seed"
		w.EncryptedSeed = &seed
	} else {
		ref := "hashicorp://transit/keys/issuer"
		w.VaultKeyRef = &ref
	}
	return w
}

func (d *gatewayTestDeps) only(t *testing.T) domain.SigningAuditEntry {
	t.Helper()
	require.Len(t, d.entries, 1)
	return d.entries[0]
}

// ==================== Success ====================

func TestSigningGateway_Sign_Success(t *testing.T) {
	d := setupGateway(t)
	ctx := context.Background()
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	req := newSignReq(t, w.ID)
	key := domain.BuildReplayKey(w.ID, req.UnsignedTxHash)
	p := policy("pol-1", "issuer", "Payment", func(p *domain.SigningPolicy) { p.MaxAmountXrp = decPtr("1000"); p.RateLimitPerMinute = 5 })

	d.authOK()
	d.noReplay()
	d.wallets.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.policies.EXPECT().Resolve(ctx, "issuer", domain.NetworkMainnet, "Payment").Return(&p, nil)
	d.counter.EXPECT().CheckAndIncrement(ctx, w.ID.String(), 5, time.Minute).Return(true, nil)
	d.lockOK(key)
	d.registry.EXPECT().Adapter(domain.KeyStorageVault).Return(d.adapter, nil)
	d.adapter.EXPECT().Sign(ctx, req.UnsignedTxBlob, domain.KeyMaterial{
		StorageType: domain.KeyStorageVault,
		VaultKeyRef: *w.VaultKeyRef,
	}).Return(&ports.SignedTx{SignedTxBlob: "SIGNED", TxHash: "HASH"}, nil)
	d.captureAudit()
	d.cache.EXPECT().Set(ctx, key, gomock.Any(), 24*time.Hour).DoAndReturn(
		func(_ context.Context, _ string, r *domain.SignedResult, _ time.Duration) error {
			assert.Equal(t, "HASH", r.TxHash)
			assert.Equal(t, d.auditID.String(), r.AuditLogID)
			return nil
		},
	)

	res, err := d.gw.Sign(ctx, "Bearer "+testToken, req)
	require.NoError(t, err)
	assert.Equal(t, "SIGNED", res.SignedTxBlob)
	assert.Equal(t, "HASH", res.TxHash)
	assert.Equal(t, d.auditID.String(), res.AuditLogID)
	require.NotNil(t, res.PolicyApplied)
	assert.Equal(t, "pol-1", *res.PolicyApplied)
	assert.False(t, res.Replayed)

	e := d.only(t)
	assert.Equal(t, domain.SigningStatusSigned, e.Status)
	assert.Equal(t, "rIssuerAddress", e.WalletAddress)
	assert.Equal(t, "pol-1", *e.PolicyID)
	assert.Equal(t, "HASH", *e.TxHash)
	assert.Equal(t, "SIGNED", *e.SignedTxBlob)
	assert.Equal(t, testIdentity.UserID, e.RequestedBy)
	assert.Equal(t, testIdentity.Role, e.RequestedByRole)
	assert.Empty(t, e.ErrorCode)
}

func TestSigningGateway_Sign_ImplicitPolicyOffMainnet(t *testing.T) {
	d := setupGateway(t)
	ctx := context.Background()
	w := testWallet(domain.KeyStorageLegacyDB, domain.NetworkTestnet)
	req := newSignReqXRP(t, w.ID, "99999999")

	d.authOK()
	d.noReplay()
	d.wallets.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.policies.EXPECT().Resolve(ctx, "issuer", domain.NetworkTestnet, "Payment").Return(nil, nil)
	d.lockOK(domain.BuildReplayKey(w.ID, req.UnsignedTxHash))
	d.registry.EXPECT().Adapter(domain.KeyStorageLegacyDB).Return(d.adapter, nil)
	d.adapter.EXPECT().Sign(ctx, req.UnsignedTxBlob, gomock.Any()).Return(&ports.SignedTx{SignedTxBlob: "S", TxHash: "H"}, nil)
	d.captureAudit()
	d.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	res, err := d.gw.Sign(ctx, testToken, req)
	require.NoError(t, err)
	assert.Nil(t, res.PolicyApplied)

	e := d.only(t)
	assert.Equal(t, domain.SigningStatusSigned, e.Status)
	assert.Nil(t, e.PolicyID)
	require.NotNil(t, e.Warning)
	assert.Contains(t, *e.Warning, "implicit")
}

func TestSigningGateway_Sign_AuditFailureReturnsSentinel(t *testing.T) {
	d := setupGateway(t)
	ctx := context.Background()
	w := testWallet(domain.KeyStorageVault, domain.NetworkDevnet)
	req := newSignReq(t, w.ID)
	p := policy("pol-dev", "issuer", "Payment", func(p *domain.SigningPolicy) { p.Network = domain.NetworkDevnet })

	d.authOK()
	d.noReplay()
	d.wallets.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.policies.EXPECT().Resolve(ctx, "issuer", domain.NetworkDevnet, "Payment").Return(&p, nil)
	d.lockOK(domain.BuildReplayKey(w.ID, req.UnsignedTxHash))
	d.registry.EXPECT().Adapter(domain.KeyStorageVault).Return(d.adapter, nil)
	d.adapter.EXPECT().Sign(ctx, gomock.Any(), gomock.Any()).Return(&ports.SignedTx{SignedTxBlob: "S", TxHash: "H"}, nil)
	d.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(uuid.Nil, errors.New("audit db down"))
	d.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	res, err := d.gw.Sign(ctx, testToken, req)
	require.NoError(t, err)
	assert.Equal(t, "S", res.SignedTxBlob)
	assert.Equal(t, domain.AuditLogFailedID, res.AuditLogID)
}

// ==================== Authentication & validation ====================

func TestSigningGateway_Sign_AuthFailures(t *testing.T) {
	walletID := uuid.New()

	t.Run("missing token", func(t *testing.T) {
		d := setupGateway(t)
		_, err := d.gw.Sign(context.Background(), "", newSignReq(t, walletID))
		assert.Equal(t, apperror.CodeUnauthorized, apperror.CodeOf(err))
	})

	t.Run("invalid token", func(t *testing.T) {
		d := setupGateway(t)
		d.tokens.EXPECT().Validate("bad").Return(nil, errors.New("signature is invalid"))
		_, err := d.gw.Sign(context.Background(), "Bearer bad", newSignReq(t, walletID))
		assert.Equal(t, apperror.CodeUnauthorized, apperror.CodeOf(err))
	})

	t.Run("role not permitted", func(t *testing.T) {
		d := setupGateway(t)
		d.tokens.EXPECT().Validate(testToken).Return(&ports.Identity{UserID: "user-1", Role: "auditor"}, nil)
		_, err := d.gw.Sign(context.Background(), testToken, newSignReq(t, walletID))
		assert.Equal(t, apperror.CodeUnauthorized, apperror.CodeOf(err))
	})

	t.Run("requestedBy mismatch", func(t *testing.T) {
		d := setupGateway(t)
		d.authOK()
		req := newSignReq(t, walletID)
		req.RequestedBy = "someone-else"
		res, err := d.gw.Sign(context.Background(), testToken, req)
		assert.Equal(t, apperror.CodeForbidden, apperror.CodeOf(err))
		assert.Empty(t, res.AuditLogID)
	})
}

func TestSigningGateway_Sign_InvalidRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *ports.SigningRequest)
	}{
		{"missing wallet", func(r *ports.SigningRequest) { r.WalletID = uuid.Nil }},
		{"unknown tx type", func(r *ports.SigningRequest) { r.TxType = "EscrowCreate" }},
		{"blob not hex", func(r *ports.SigningRequest) { r.UnsignedTxBlob = "ZZZZ" }},
		{"hash mismatch", func(r *ports.SigningRequest) { r.UnsignedTxHash = strings.Repeat("A", 64) }},
		{"short hash", func(r *ports.SigningRequest) { r.UnsignedTxHash = "ABCD" }},
		{"negative amount", func(r *ports.SigningRequest) { r.Amount = decPtr("-1") }},
		{"tx type differs from blob", func(r *ports.SigningRequest) { r.TxType = "TrustSet" }},
		{"declared amount differs from blob", func(r *ports.SigningRequest) { r.Amount = decPtr("1") }},
		{"issued currency declared for native payment", func(r *ports.SigningRequest) { r.Currency = "USD" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupGateway(t)
			d.authOK()
			req := newSignReq(t, uuid.New())
			tt.mutate(&req)

			res, err := d.gw.Sign(context.Background(), testToken, req)
			assert.Equal(t, apperror.CodeInvalidRequest, apperror.CodeOf(err))
			assert.Empty(t, res.AuditLogID)
		})
	}
}

func TestSigningGateway_Sign_UnreadableBlob(t *testing.T) {
	tests := map[string]string{
		"not json":          `plain text`,
		"missing account":   `{"Fee":"12","TransactionType":"Payment"}`,
		"fractional drops":  `{"Account":"rIssuerAddress","Amount":"1.5","TransactionType":"Payment"}`,
		"no native outflow": `{"Account":"rIssuerAddress","Amount":{"currency":"USD","issuer":"rI","value":"250"},"TransactionType":"Payment"}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			d := setupGateway(t)
			d.authOK()
			req := newSignReq(t, uuid.New())
			req.UnsignedTxBlob, req.UnsignedTxHash = rawBlob(t, raw)

			res, err := d.gw.Sign(context.Background(), testToken, req)
			assert.Equal(t, apperror.CodeInvalidRequest, apperror.CodeOf(err))
			assert.Empty(t, res.AuditLogID)
		})
	}
}

func TestSigningGateway_Sign_BlobFromAnotherAccount(t *testing.T) {
	d := setupGateway(t)
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	w.Address = "rSomeoneElse"
	req := newSignReq(t, w.ID)

	d.authOK()
	d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
	d.captureAudit()

	res, err := d.gw.Sign(context.Background(), testToken, req)
	assert.Equal(t, apperror.CodeInvalidRequest, apperror.CodeOf(err))
	assert.Equal(t, d.auditID.String(), res.AuditLogID)

	e := d.only(t)
	assert.Equal(t, domain.SigningStatusRejected, e.Status)
	require.NotNil(t, e.RejectionReason)
	assert.Contains(t, *e.RejectionReason, "rIssuerAddress")
}

func TestSigningGateway_Sign_CeilingUsesBlobAmount(t *testing.T) {
	d := setupGateway(t)
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	req := newSignReqXRP(t, w.ID, "5000")
	req.Amount = nil
	req.Currency = ""
	p := policy("pol-cap", "issuer", "Payment", func(p *domain.SigningPolicy) { p.MaxAmountXrp = decPtr("1000") })

	d.authOK()
	d.guardsPass(w, &p)
	d.captureAudit()

	_, err := d.gw.Sign(context.Background(), testToken, req)
	assert.Equal(t, apperror.CodeAmountLimitExceeded, apperror.CodeOf(err))

	e := d.only(t)
	require.NotNil(t, e.Amount)
	assert.Equal(t, "5000", e.Amount.String())
	assert.Equal(t, domain.NativeCurrency, e.Currency)
}

func TestSigningGateway_Sign_HashIsCaseInsensitive(t *testing.T) {
	d := setupGateway(t)
	ctx := context.Background()
	req := newSignReq(t, uuid.New())
	req.UnsignedTxHash = strings.ToLower(req.UnsignedTxHash)

	d.authOK()
	d.wallets.EXPECT().GetByID(ctx, req.WalletID).Return(nil, nil)
	d.captureAudit()

	_, err := d.gw.Sign(ctx, testToken, req)
	assert.Equal(t, apperror.CodeWalletNotFound, apperror.CodeOf(err))
	assert.Equal(t, strings.ToUpper(req.UnsignedTxHash), d.only(t).UnsignedTxHash)
}

// ==================== Replay ====================

// guardsPass lets a request for w through every wallet and policy guard.
func (d *gatewayTestDeps) guardsPass(w *domain.Wallet, p *domain.SigningPolicy) {
	d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
	d.policies.EXPECT().Resolve(gomock.Any(), w.Role, w.Network, "Payment").Return(p, nil)
}

func TestSigningGateway_Sign_ReplayFromCache(t *testing.T) {
	d := setupGateway(t)
	ctx := context.Background()
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	req := newSignReq(t, w.ID)
	p := policy("pol-1", "issuer", "Payment", func(p *domain.SigningPolicy) { p.RateLimitPerMinute = 1 })
	pol := "pol-1"

	d.authOK()
	d.guardsPass(w, &p)
	d.cache.EXPECT().Get(ctx, domain.BuildReplayKey(req.WalletID, req.UnsignedTxHash)).Return(&domain.SignedResult{
		SignedTxBlob: "S", TxHash: "H", AuditLogID: "audit-1", PolicyApplied: &pol,
	}, nil)
	d.captureAudit()

	res, err := d.gw.Sign(ctx, testToken, req)
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, "H", res.TxHash)
	assert.Equal(t, d.auditID.String(), res.AuditLogID)
	assert.Equal(t, "audit-1", res.ReplayOf)
	assert.Equal(t, &pol, res.PolicyApplied)

	e := d.only(t)
	assert.Equal(t, domain.SigningStatusSigned, e.Status)
	assert.Equal(t, "H", *e.TxHash)
	assert.Equal(t, "S", *e.SignedTxBlob)
	require.NotNil(t, e.Warning)
	assert.Contains(t, *e.Warning, "audit-1")
}

func TestSigningGateway_Sign_ReplayFromAuditStore(t *testing.T) {
	d := setupGateway(t)
	ctx := context.Background()
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	req := newSignReq(t, w.ID)
	p := policy("pol-1", "issuer", "Payment")
	prior := domain.SigningAuditEntry{
		ID:           uuid.New(),
		Status:       domain.SigningStatusSigned,
		TxHash:       strPtr("H"),
		SignedTxBlob: strPtr("S"),
	}

	d.authOK()
	d.guardsPass(w, &p)
	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, errors.New("redis down"))
	d.audit.EXPECT().FindSigned(ctx, req.WalletID, req.UnsignedTxHash).Return(&prior, nil)
	d.captureAudit()

	res, err := d.gw.Sign(ctx, testToken, req)
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, "S", res.SignedTxBlob)
	assert.Equal(t, prior.ID.String(), res.ReplayOf)
	assert.NotEqual(t, prior.ID.String(), res.AuditLogID)

	e := d.only(t)
	assert.Equal(t, domain.SigningStatusSigned, e.Status)
	require.NotNil(t, e.Warning)
	assert.Contains(t, *e.Warning, prior.ID.String())
}

func TestSigningGateway_Sign_ReplayOnImplicitPolicyKeepsBothWarnings(t *testing.T) {
	d := setupGateway(t)
	w := testWallet(domain.KeyStorageLegacyDB, domain.NetworkTestnet)
	req := newSignReq(t, w.ID)

	d.authOK()
	d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
	d.policies.EXPECT().Resolve(gomock.Any(), "issuer", domain.NetworkTestnet, "Payment").Return(nil, nil)
	d.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(&domain.SignedResult{SignedTxBlob: "S", TxHash: "H", AuditLogID: "audit-7"}, nil)
	d.captureAudit()

	_, err := d.gw.Sign(context.Background(), testToken, req)
	require.NoError(t, err)

	e := d.only(t)
	require.NotNil(t, e.Warning)
	assert.Contains(t, *e.Warning, "implicit")
	assert.Contains(t, *e.Warning, "audit-7")
}

func TestSigningGateway_Sign_ReplayStillRunsWalletGuards(t *testing.T) {
	d := setupGateway(t)
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	w.Status = domain.WalletStatusSuspended
	req := newSignReq(t, w.ID)

	// The transaction was signed while the wallet was active; no lookup is expected.
	d.authOK()
	d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
	d.captureAudit()

	res, err := d.gw.Sign(context.Background(), testToken, req)
	assert.Equal(t, apperror.CodeWalletSuspended, apperror.CodeOf(err))
	assert.False(t, res.Replayed)
	assert.Empty(t, res.SignedTxBlob)
	assert.Equal(t, domain.SigningStatusRejected, d.only(t).Status)
}

func TestSigningGateway_Sign_ReplayLookupErrorIsAudited(t *testing.T) {
	d := setupGateway(t)
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	req := newSignReq(t, w.ID)
	p := policy("pol-1", "issuer", "Payment")

	d.authOK()
	d.guardsPass(w, &p)
	d.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	d.audit.EXPECT().FindSigned(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	d.captureAudit()

	res, err := d.gw.Sign(context.Background(), testToken, req)
	assert.Equal(t, apperror.CodeInternalError, apperror.CodeOf(err))
	assert.Equal(t, d.auditID.String(), res.AuditLogID)

	e := d.only(t)
	assert.Equal(t, domain.SigningStatusFailed, e.Status)
	assert.Equal(t, w.Address, e.WalletAddress)
}

// ==================== Wallet guards ====================

func TestSigningGateway_Sign_WalletNotFound(t *testing.T) {
	d := setupGateway(t)
	req := newSignReq(t, uuid.New())

	d.authOK()
	d.wallets.EXPECT().GetByID(gomock.Any(), req.WalletID).Return(nil, nil)
	d.captureAudit()

	res, err := d.gw.Sign(context.Background(), testToken, req)
	assert.Equal(t, apperror.CodeWalletNotFound, apperror.CodeOf(err))
	assert.Equal(t, d.auditID.String(), res.AuditLogID)

	e := d.only(t)
	assert.Equal(t, domain.SigningStatusRejected, e.Status)
	assert.Equal(t, domain.UnknownWalletAddress, e.WalletAddress)
	assert.Equal(t, apperror.CodeWalletNotFound, e.ErrorCode)
}

func TestSigningGateway_Sign_WalletStatus(t *testing.T) {
	tests := []struct {
		status domain.WalletStatus
		code   string
	}{
		{domain.WalletStatusSuspended, apperror.CodeWalletSuspended},
		{domain.WalletStatusArchived, apperror.CodeWalletArchived},
		{domain.WalletStatusProvisioning, apperror.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			d := setupGateway(t)
			w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
			w.Status = tt.status
			req := newSignReq(t, w.ID)

			d.authOK()
					d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
			d.captureAudit()

			_, err := d.gw.Sign(context.Background(), testToken, req)
			assert.Equal(t, tt.code, apperror.CodeOf(err))

			e := d.only(t)
			assert.Equal(t, domain.SigningStatusRejected, e.Status)
			assert.Equal(t, tt.code, e.ErrorCode)
			assert.Equal(t, w.Address, e.WalletAddress)
		})
	}
}

func TestSigningGateway_Sign_LegacyMainnetBlocked(t *testing.T) {
	d := setupGateway(t)
	w := testWallet(domain.KeyStorageLegacyDB, domain.NetworkMainnet)
	req := newSignReq(t, w.ID)

	d.authOK()
	d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
	d.captureAudit()

	_, err := d.gw.Sign(context.Background(), testToken, req)
	assert.Equal(t, apperror.CodeLegacyMainnetBlocked, apperror.CodeOf(err))

	e := d.only(t)
	require.NotNil(t, e.RejectionReason)
	assert.Contains(t, *e.RejectionReason, "migration")
}

// ==================== Policy guards ====================

func TestSigningGateway_Sign_NoPolicyOnMainnet(t *testing.T) {
	d := setupGateway(t)
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	req := newSignReq(t, w.ID)

	d.authOK()
	d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
	d.policies.EXPECT().Resolve(gomock.Any(), "issuer", domain.NetworkMainnet, "Payment").Return(nil, nil)
	d.captureAudit()

	_, err := d.gw.Sign(context.Background(), testToken, req)
	assert.Equal(t, apperror.CodePolicyViolation, apperror.CodeOf(err))
	assert.Equal(t, domain.SigningStatusRejected, d.only(t).Status)
}

func TestSigningGateway_Sign_AmountCeilingIsInclusive(t *testing.T) {
	tests := []struct {
		amount  string
		wantErr string
	}{
		{"1000", ""},
		{"1000.01", apperror.CodeAmountLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			d := setupGateway(t)
			w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
			req := newSignReqXRP(t, w.ID, tt.amount)
			p := policy("pol-cap", "issuer", "Payment", func(p *domain.SigningPolicy) { p.MaxAmountXrp = decPtr("1000") })

			d.authOK()
			d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
			d.policies.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&p, nil)
			d.captureAudit()
			if tt.wantErr == "" {
				d.noReplay()
				d.lockOK(domain.BuildReplayKey(w.ID, req.UnsignedTxHash))
				d.registry.EXPECT().Adapter(domain.KeyStorageVault).Return(d.adapter, nil)
				d.adapter.EXPECT().Sign(gomock.Any(), gomock.Any(), gomock.Any()).Return(&ports.SignedTx{SignedTxBlob: "S", TxHash: "H"}, nil)
				d.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			}

			_, err := d.gw.Sign(context.Background(), testToken, req)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, domain.SigningStatusSigned, d.only(t).Status)
				return
			}
			assert.Equal(t, tt.wantErr, apperror.CodeOf(err))
			e := d.only(t)
			assert.Equal(t, domain.SigningStatusRejected, e.Status)
			assert.Equal(t, "pol-cap", *e.PolicyID)
		})
	}
}

func TestSigningGateway_Sign_MultiSignRequired(t *testing.T) {
	d := setupGateway(t)
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	req := newSignReq(t, w.ID)
	p := policy("pol-ms", "issuer", "Payment", func(p *domain.SigningPolicy) { p.RequiresMultiSign = true; p.MinSigners = 2 })

	d.authOK()
	d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
	d.policies.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&p, nil)
	d.captureAudit()

	_, err := d.gw.Sign(context.Background(), testToken, req)
	assert.Equal(t, apperror.CodeMultiSignRequired, apperror.CodeOf(err))
}

func TestSigningGateway_Sign_RateLimit(t *testing.T) {
	p := policy("pol-rl", "issuer", "Payment", func(p *domain.SigningPolicy) { p.RateLimitPerMinute = 5 })

	t.Run("exceeded", func(t *testing.T) {
		d := setupGateway(t)
		w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
		d.authOK()
		d.noReplay()
		d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
		d.policies.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&p, nil)
		d.counter.EXPECT().CheckAndIncrement(gomock.Any(), w.ID.String(), 5, time.Minute).Return(false, nil)
		d.captureAudit()

		_, err := d.gw.Sign(context.Background(), testToken, newSignReq(t, w.ID))
		assert.Equal(t, apperror.CodeRateLimitExceeded, apperror.CodeOf(err))
		assert.Equal(t, domain.SigningStatusRejected, d.only(t).Status)
	})

	t.Run("counter unavailable fails closed", func(t *testing.T) {
		d := setupGateway(t)
		w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
		d.authOK()
		d.noReplay()
		d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
		d.policies.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&p, nil)
		d.counter.EXPECT().CheckAndIncrement(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))
		d.captureAudit()

		_, err := d.gw.Sign(context.Background(), testToken, newSignReq(t, w.ID))
		assert.Equal(t, apperror.CodeInternalError, apperror.CodeOf(err))
		assert.Equal(t, domain.SigningStatusFailed, d.only(t).Status)
	})
}

// ==================== Lock & delegation ====================

func TestSigningGateway_Sign_DuplicateInFlight(t *testing.T) {
	d := setupGateway(t)
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	req := newSignReq(t, w.ID)
	p := policy("pol-1", "issuer", "Payment")

	d.authOK()
	d.noReplay()
	d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
	d.policies.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&p, nil)
	d.lock.EXPECT().Acquire(gomock.Any(), domain.BuildReplayKey(w.ID, req.UnsignedTxHash), 30*time.Second).Return(false, nil)
	d.captureAudit()

	_, err := d.gw.Sign(context.Background(), testToken, req)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeInvalidRequest, appErr.Code)
	assert.Equal(t, 409, appErr.HTTPStatus)
}

func TestSigningGateway_Sign_ReplayAfterLockSkipsSigning(t *testing.T) {
	d := setupGateway(t)
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	req := newSignReq(t, w.ID)
	p := policy("pol-1", "issuer", "Payment")
	key := domain.BuildReplayKey(w.ID, req.UnsignedTxHash)

	d.authOK()
	d.noReplay()
	d.guardsPass(w, &p)
	d.lock.EXPECT().Acquire(gomock.Any(), key, 30*time.Second).Return(true, nil)
	d.lock.EXPECT().Release(gomock.Any(), key).Return(nil)
	d.cache.EXPECT().Get(gomock.Any(), key).Return(&domain.SignedResult{SignedTxBlob: "AB", TxHash: "CD", AuditLogID: "prior"}, nil)
	d.captureAudit()

	res, err := d.gw.Sign(context.Background(), testToken, req)
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, "prior", res.ReplayOf)
	assert.Equal(t, d.auditID.String(), res.AuditLogID)

	e := d.only(t)
	assert.Equal(t, domain.SigningStatusSigned, e.Status)
	assert.Equal(t, "CD", *e.TxHash)
}

func TestSigningGateway_Sign_AdapterFailure(t *testing.T) {
	tests := []struct {
		storage domain.KeyStorageType
		network domain.Network
		code    string
	}{
		{domain.KeyStorageVault, domain.NetworkMainnet, apperror.CodeVaultError},
		{domain.KeyStorageLegacyDB, domain.NetworkTestnet, apperror.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(string(tt.storage), func(t *testing.T) {
			d := setupGateway(t)
			w := testWallet(tt.storage, tt.network)
			req := newSignReq(t, w.ID)
			p := policy("pol-1", "issuer", "Payment", func(p *domain.SigningPolicy) { p.Network = tt.network })

			d.authOK()
			d.noReplay()
			d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
			d.policies.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&p, nil)
			d.lockOK(domain.BuildReplayKey(w.ID, req.UnsignedTxHash))
			d.registry.EXPECT().Adapter(tt.storage).Return(d.adapter, nil)
			d.adapter.EXPECT().Sign(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("backend timeout"))
			d.captureAudit()

			res, err := d.gw.Sign(context.Background(), testToken, req)
			assert.Equal(t, tt.code, apperror.CodeOf(err))
			assert.Equal(t, d.auditID.String(), res.AuditLogID)

			e := d.only(t)
			assert.Equal(t, domain.SigningStatusFailed, e.Status)
			assert.Equal(t, tt.code, e.ErrorCode)
			require.NotNil(t, e.ErrorMessage)
			assert.Contains(t, *e.ErrorMessage, "backend timeout")
		})
	}
}

func TestSigningGateway_Sign_PanicIsRecoveredAndAudited(t *testing.T) {
	d := setupGateway(t)
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	req := newSignReq(t, w.ID)
	p := policy("pol-1", "issuer", "Payment")

	d.authOK()
	d.noReplay()
	d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
	d.policies.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&p, nil)
	d.lockOK(domain.BuildReplayKey(w.ID, req.UnsignedTxHash))
	d.registry.EXPECT().Adapter(domain.KeyStorageVault).Return(d.adapter, nil)
	d.adapter.EXPECT().Sign(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string, domain.KeyMaterial) (*ports.SignedTx, error) {
			panic("nil key handle")
		},
	)
	d.captureAudit()

	res, err := d.gw.Sign(context.Background(), testToken, req)
	require.NotNil(t, res)
	assert.Equal(t, apperror.CodeInternalError, apperror.CodeOf(err))
	assert.Equal(t, d.auditID.String(), res.AuditLogID)
	assert.Equal(t, domain.SigningStatusFailed, d.only(t).Status)
}

func TestSigningGateway_Sign_BadKeyMaterial(t *testing.T) {
	d := setupGateway(t)
	w := testWallet(domain.KeyStorageVault, domain.NetworkMainnet)
	w.VaultKeyRef = nil
	req := newSignReq(t, w.ID)
	p := policy("pol-1", "issuer", "Payment")

	d.authOK()
	d.noReplay()
	d.wallets.EXPECT().GetByID(gomock.Any(), w.ID).Return(w, nil)
	d.policies.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&p, nil)
	d.lockOK(domain.BuildReplayKey(w.ID, req.UnsignedTxHash))
	d.captureAudit()

	_, err := d.gw.Sign(context.Background(), testToken, req)
	assert.Equal(t, apperror.CodeInternalError, apperror.CodeOf(err))
	assert.ErrorIs(t, err, domain.ErrInvalidKeyMaterial)
}
