package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/internal/ledger"
	"rwa-signing-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var txHashRe = regexp.MustCompile(`^[0-9A-Fa-f]{64}$`)

// GatewayConfig tunes the signing guard chain.
type GatewayConfig struct {
	PermittedRoles []string
	RateWindow     time.Duration
	LockTTL        time.Duration
	ReplayTTL      time.Duration
}

// SigningGatewayImpl implements ports.SigningGateway.
type SigningGatewayImpl struct {
	tokens    ports.TokenService
	wallets   ports.WalletRepository
	policies  ports.PolicyResolver
	adapters  ports.AdapterRegistry
	counter   ports.RateCounter
	lock      ports.SigningLock
	cache     ports.SignedResultCache
	audit     ports.SigningAuditRepository
	cfg       GatewayConfig
	permitted map[string]struct{}
	log       zerolog.Logger
	now       func() time.Time
}

// NewSigningGateway creates a new SigningGatewayImpl.
func NewSigningGateway(
	tokens ports.TokenService,
	wallets ports.WalletRepository,
	policies ports.PolicyResolver,
	adapters ports.AdapterRegistry,
	counter ports.RateCounter,
	lock ports.SigningLock,
	cache ports.SignedResultCache,
	audit ports.SigningAuditRepository,
	cfg GatewayConfig,
	log zerolog.Logger,
) *SigningGatewayImpl {
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.ReplayTTL <= 0 {
		cfg.ReplayTTL = 24 * time.Hour
	}
	permitted := make(map[string]struct{}, len(cfg.PermittedRoles))
	for _, r := range cfg.PermittedRoles {
		permitted[strings.ToLower(r)] = struct{}{}
	}
	return &SigningGatewayImpl{
		tokens:    tokens,
		wallets:   wallets,
		policies:  policies,
		adapters:  adapters,
		counter:   counter,
		lock:      lock,
		cache:     cache,
		audit:     audit,
		cfg:       cfg,
		permitted: permitted,
		log:       log,
		now:       time.Now,
	}
}

// attempt carries the state of one signing call through the guard chain.
type attempt struct {
	req      ports.SigningRequest
	tx       *checkedTx
	identity *ports.Identity
	wallet   *domain.Wallet
	entry    *domain.SigningAuditEntry
	audited  bool
}

// Sign runs the guard chain for one transaction. The returned result is never nil.
//
// Authentication and request validation failures are answered without an audit entry,
// since no wallet-scoped action took place. Every other path writes exactly one entry,
// including the replay of an already signed transaction.
func (g *SigningGatewayImpl) Sign(ctx context.Context, bearerToken string, req ports.SigningRequest) (res *ports.SignResult, err error) {
	identity, err := g.authenticate(bearerToken, req)
	if err != nil {
		g.log.Warn().
			Str("wallet_id", req.WalletID.String()).
			Str("tx_type", req.TxType).
			Str("error_code", apperror.CodeOf(err)).
			Msg("signing request not authenticated")
		return &ports.SignResult{}, err
	}
	tx, err := validateSigningRequest(req)
	if err != nil {
		g.log.Warn().
			Str("wallet_id", req.WalletID.String()).
			Str("tx_type", req.TxType).
			Str("user_id", identity.UserID).
			Err(err).
			Msg("invalid signing request")
		return &ports.SignResult{}, err
	}

	att := &attempt{req: req, tx: tx, identity: identity, entry: g.newEntry(req, tx, identity)}

	defer func() {
		if r := recover(); r != nil {
			g.log.Error().
				Interface("panic", r).
				Str("wallet_id", req.WalletID.String()).
				Msg("panic recovered in signing gateway")
			appErr := apperror.InternalError(fmt.Errorf("panic: %v", r))
			res = &ports.SignResult{}
			if !att.audited {
				res.AuditLogID = g.record(ctx, att, domain.SigningStatusFailed, appErr)
			}
			err = appErr
		}
	}()

	return g.run(ctx, att)
}

func (g *SigningGatewayImpl) run(ctx context.Context, att *attempt) (*ports.SignResult, error) {
	req := att.req

	wallet, err := g.wallets.GetByID(ctx, req.WalletID)
	if err != nil {
		return g.fail(ctx, att, apperror.InternalError(fmt.Errorf("loading wallet: %w", err)))
	}
	if wallet == nil {
		return g.reject(ctx, att, apperror.ErrWalletNotFound())
	}
	att.wallet = wallet
	att.entry.WalletAddress = wallet.Address
	att.entry.Network = wallet.Network
	att.entry.KeyStorageType = wallet.KeyStorageType

	switch wallet.Status {
	case domain.WalletStatusActive:
	case domain.WalletStatusSuspended:
		return g.reject(ctx, att, apperror.ErrWalletSuspended())
	case domain.WalletStatusArchived:
		return g.reject(ctx, att, apperror.ErrWalletArchived())
	default:
		return g.reject(ctx, att, apperror.ErrForbidden(fmt.Sprintf("Wallet is %s and cannot sign", wallet.Status)))
	}

	if wallet.IsLegacyOnMainnet() {
		return g.reject(ctx, att, apperror.ErrLegacyMainnetBlocked())
	}

	if att.tx.account != wallet.Address {
		return g.reject(ctx, att, apperror.Validation(fmt.Sprintf(
			"unsignedTxBlob is sent from %s, not from the wallet address %s", att.tx.account, wallet.Address)))
	}

	policy, err := g.policies.Resolve(ctx, wallet.Role, wallet.Network, req.TxType)
	if err != nil {
		return g.fail(ctx, att, asAppError(err))
	}
	if policy == nil {
		if wallet.Network == domain.NetworkMainnet {
			return g.reject(ctx, att, apperror.ErrPolicyViolation(fmt.Sprintf(
				"No signing policy configured for role %q and %s on mainnet", wallet.Role, req.TxType)))
		}
		policy = domain.ImplicitPolicy(wallet.Role, wallet.Network, req.TxType)
		g.warn(att, fmt.Sprintf("No signing policy configured for role %q and %s on %s; implicit unbounded policy applied",
			wallet.Role, req.TxType, wallet.Network))
		g.log.Warn().
			Str("wallet_id", wallet.ID.String()).
			Str("network", string(wallet.Network)).
			Str("tx_type", req.TxType).
			Msg("implicit policy applied")
	} else {
		id := policy.ID
		att.entry.PolicyID = &id
	}

	if amount := att.tx.amount; amount != nil && policy.ExceedsCeiling(*amount) {
		return g.reject(ctx, att, apperror.ErrAmountLimitExceeded(amount.String(), policy.MaxAmountXrp.String()))
	}

	if policy.RequiresMultiSign && !wallet.MultiSignEnabled {
		return g.reject(ctx, att, apperror.ErrMultiSignRequired(policy.MinSigners))
	}

	// An already signed transaction is answered from the record, after every
	// wallet and policy guard has passed again, without touching the rate counter.
	replayKey := domain.BuildReplayKey(req.WalletID, req.UnsignedTxHash)
	if prior, err := g.findSigned(ctx, replayKey, req); err != nil {
		return g.fail(ctx, att, apperror.InternalError(err))
	} else if prior != nil {
		return g.replay(ctx, att, prior)
	}

	if policy.HasRateLimit() {
		allowed, err := g.counter.CheckAndIncrement(ctx, wallet.ID.String(), policy.RateLimitPerMinute, g.cfg.RateWindow)
		if err != nil {
			return g.fail(ctx, att, apperror.InternalError(fmt.Errorf("rate counter: %w", err)))
		}
		if !allowed {
			return g.reject(ctx, att, apperror.ErrRateLimitExceeded(policy.RateLimitPerMinute))
		}
	}

	acquired, err := g.lock.Acquire(ctx, replayKey, g.cfg.LockTTL)
	if err != nil {
		return g.fail(ctx, att, apperror.InternalError(fmt.Errorf("signing lock: %w", err)))
	}
	if !acquired {
		return g.reject(ctx, att, apperror.ErrDuplicateInFlight())
	}
	defer func() {
		if err := g.lock.Release(context.WithoutCancel(ctx), replayKey); err != nil {
			g.log.Warn().Err(err).Str("key", replayKey).Msg("failed to release signing lock")
		}
	}()

	// A concurrent duplicate may have signed between the first lookup and the lock.
	if prior, err := g.findSigned(ctx, replayKey, req); err != nil {
		return g.fail(ctx, att, apperror.InternalError(err))
	} else if prior != nil {
		return g.replay(ctx, att, prior)
	}

	signed, appErr := g.delegate(ctx, wallet, req.UnsignedTxBlob)
	if appErr != nil {
		return g.fail(ctx, att, appErr)
	}

	att.entry.TxHash = &signed.TxHash
	att.entry.SignedTxBlob = &signed.SignedTxBlob
	auditID := g.record(ctx, att, domain.SigningStatusSigned, nil)

	var policyApplied *string
	if !policy.IsImplicit() {
		id := policy.ID
		policyApplied = &id
	}
	result := &ports.SignResult{
		SignedTxBlob:  signed.SignedTxBlob,
		TxHash:        signed.TxHash,
		AuditLogID:    auditID,
		PolicyApplied: policyApplied,
	}

	if err := g.cache.Set(ctx, replayKey, &domain.SignedResult{
		SignedTxBlob:  result.SignedTxBlob,
		TxHash:        result.TxHash,
		AuditLogID:    result.AuditLogID,
		PolicyApplied: result.PolicyApplied,
	}, g.cfg.ReplayTTL); err != nil {
		g.log.Warn().Err(err).Str("key", replayKey).Msg("failed to cache signed result")
	}

	g.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("tx_type", req.TxType).
		Str("tx_hash", signed.TxHash).
		Str("audit_id", auditID).
		Str("user_id", att.identity.UserID).
		Msg("transaction signed")

	return result, nil
}

// delegate hands the blob to the adapter matching the wallet's storage type.
func (g *SigningGatewayImpl) delegate(ctx context.Context, wallet *domain.Wallet, blob string) (*ports.SignedTx, *apperror.AppError) {
	key, err := wallet.KeyMaterial()
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	adapter, err := g.adapters.Adapter(wallet.KeyStorageType)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	signed, err := adapter.Sign(ctx, blob, key)
	if err != nil {
		if wallet.KeyStorageType == domain.KeyStorageVault {
			return nil, apperror.ErrVault(err)
		}
		return nil, apperror.InternalError(fmt.Errorf("%s signing: %w", wallet.KeyStorageType, err))
	}
	if signed == nil || signed.SignedTxBlob == "" || signed.TxHash == "" {
		return nil, apperror.InternalError(errors.New("adapter returned an empty signature"))
	}
	return signed, nil
}

// findSigned looks up a previous signature of the transaction: cache first, then the audit store.
func (g *SigningGatewayImpl) findSigned(ctx context.Context, key string, req ports.SigningRequest) (*domain.SignedResult, error) {
	cached, err := g.cache.Get(ctx, key)
	if err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("signed result cache lookup failed, falling through to audit store")
	}
	if cached != nil {
		return cached, nil
	}

	entry, err := g.audit.FindSigned(ctx, req.WalletID, strings.ToUpper(req.UnsignedTxHash))
	if err != nil {
		return nil, fmt.Errorf("audit replay lookup: %w", err)
	}
	if entry == nil || entry.TxHash == nil || entry.SignedTxBlob == nil {
		return nil, nil
	}
	return &domain.SignedResult{
		SignedTxBlob:  *entry.SignedTxBlob,
		TxHash:        *entry.TxHash,
		AuditLogID:    entry.ID.String(),
		PolicyApplied: entry.PolicyID,
	}, nil
}

// replay answers with a previous signature and records the request as its own SIGNED entry.
func (g *SigningGatewayImpl) replay(ctx context.Context, att *attempt, prior *domain.SignedResult) (*ports.SignResult, error) {
	att.entry.TxHash = &prior.TxHash
	att.entry.SignedTxBlob = &prior.SignedTxBlob
	g.warn(att, fmt.Sprintf("Replay of signing audit entry %s; no new signature produced", prior.AuditLogID))
	auditID := g.record(ctx, att, domain.SigningStatusSigned, nil)

	g.log.Info().
		Str("wallet_id", att.req.WalletID.String()).
		Str("tx_hash", prior.TxHash).
		Str("audit_id", auditID).
		Str("replay_of", prior.AuditLogID).
		Msg("replaying signed result")

	return &ports.SignResult{
		SignedTxBlob:  prior.SignedTxBlob,
		TxHash:        prior.TxHash,
		AuditLogID:    auditID,
		PolicyApplied: prior.PolicyApplied,
		Replayed:      true,
		ReplayOf:      prior.AuditLogID,
	}, nil
}

// warn appends a note to the attempt's audit entry.
func (g *SigningGatewayImpl) warn(att *attempt, msg string) {
	if att.entry.Warning != nil {
		msg = *att.entry.Warning + "; " + msg
	}
	att.entry.Warning = &msg
}

func (g *SigningGatewayImpl) reject(ctx context.Context, att *attempt, appErr *apperror.AppError) (*ports.SignResult, error) {
	return &ports.SignResult{AuditLogID: g.record(ctx, att, domain.SigningStatusRejected, appErr)}, appErr
}

func (g *SigningGatewayImpl) fail(ctx context.Context, att *attempt, appErr *apperror.AppError) (*ports.SignResult, error) {
	return &ports.SignResult{AuditLogID: g.record(ctx, att, domain.SigningStatusFailed, appErr)}, appErr
}

// record writes the single audit entry of an attempt and returns its id,
// or the AUDIT_LOG_FAILED sentinel when the write itself failed.
func (g *SigningGatewayImpl) record(ctx context.Context, att *attempt, status domain.SigningStatus, appErr *apperror.AppError) string {
	att.audited = true
	entry := att.entry
	entry.Status = status
	entry.CreatedAt = g.now().UTC()

	if appErr != nil {
		entry.ErrorCode = appErr.Code
		if status == domain.SigningStatusRejected {
			reason := appErr.Message
			entry.RejectionReason = &reason
		} else {
			msg := appErr.Error()
			entry.ErrorMessage = &msg
		}

		event := g.log.Warn()
		if status == domain.SigningStatusFailed {
			event = g.log.Error().Err(appErr)
		}
		event.
			Str("wallet_id", att.req.WalletID.String()).
			Str("tx_type", att.req.TxType).
			Str("error_code", appErr.Code).
			Str("status", string(status)).
			Msg("signing request not completed")
	}

	id, err := g.audit.Append(context.WithoutCancel(ctx), entry)
	if err != nil {
		g.log.Error().
			Err(err).
			Str("wallet_id", att.req.WalletID.String()).
			Str("unsigned_tx_hash", entry.UnsignedTxHash).
			Str("status", string(status)).
			Msg("failed to write signing audit entry")
		return domain.AuditLogFailedID
	}
	return id.String()
}

func (g *SigningGatewayImpl) newEntry(req ports.SigningRequest, tx *checkedTx, identity *ports.Identity) *domain.SigningAuditEntry {
	name := identity.Name
	if name == "" {
		name = req.RequestedByName
	}
	currency := req.Currency
	if tx.native && currency == "" {
		currency = domain.NativeCurrency
	}
	return &domain.SigningAuditEntry{
		WalletID:        req.WalletID,
		WalletAddress:   domain.UnknownWalletAddress,
		TxType:          req.TxType,
		UnsignedTxHash:  strings.ToUpper(req.UnsignedTxHash),
		RequestedBy:     identity.UserID,
		RequestedByName: name,
		RequestedByRole: identity.Role,
		Amount:          tx.amount,
		Currency:        currency,
		Destination:     req.Destination,
		DestinationName: req.DestinationName,
		Metadata:        req.Metadata,
	}
}

func (g *SigningGatewayImpl) authenticate(bearerToken string, req ports.SigningRequest) (*ports.Identity, error) {
	token := strings.TrimSpace(strings.TrimPrefix(bearerToken, "Bearer "))
	if token == "" {
		return nil, apperror.ErrUnauthorized("Missing bearer token")
	}
	identity, err := g.tokens.Validate(token)
	if err != nil {
		return nil, apperror.ErrUnauthorized("Invalid or expired token")
	}
	if _, ok := g.permitted[strings.ToLower(identity.Role)]; !ok {
		return nil, apperror.ErrUnauthorized(fmt.Sprintf("Role %q is not permitted to sign", identity.Role))
	}
	if req.RequestedBy != "" && req.RequestedBy != identity.UserID {
		return nil, apperror.ErrForbidden("requestedBy does not match the authenticated user")
	}
	return identity, nil
}

// checkedTx is what the gateway takes from the blob it will actually sign.
type checkedTx struct {
	account string
	// amount feeds the ceiling: the blob's native outflow, else the declared amount.
	amount *decimal.Decimal
	native bool
}

func validateSigningRequest(req ports.SigningRequest) (*checkedTx, error) {
	if req.WalletID == uuid.Nil {
		return nil, apperror.Validation("walletId is required")
	}
	if req.TxType == "" {
		return nil, apperror.Validation("txType is required")
	}
	if !domain.TxType(req.TxType).Valid() {
		return nil, apperror.Validation(fmt.Sprintf("txType %q is not supported", req.TxType))
	}
	if req.UnsignedTxBlob == "" || req.UnsignedTxHash == "" {
		return nil, apperror.Validation("unsignedTxBlob and unsignedTxHash are required")
	}
	if !txHashRe.MatchString(req.UnsignedTxHash) {
		return nil, apperror.Validation("unsignedTxHash must be 64 hex characters")
	}
	hash, err := ledger.UnsignedHash(req.UnsignedTxBlob)
	if err != nil {
		return nil, apperror.Validation("unsignedTxBlob must be hex encoded")
	}
	if !strings.EqualFold(hash, req.UnsignedTxHash) {
		return nil, apperror.Validation("unsignedTxHash does not match unsignedTxBlob")
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		return nil, apperror.Validation("amount must not be negative")
	}

	sum, err := ledger.Summarize(req.UnsignedTxBlob)
	if err != nil {
		return nil, apperror.Validation(fmt.Sprintf("unsignedTxBlob is not a readable transaction: %v", err))
	}
	if sum.TransactionType != req.TxType {
		return nil, apperror.Validation(fmt.Sprintf("txType %s does not match the %s in unsignedTxBlob", req.TxType, sum.TransactionType))
	}

	declaresXRP := req.Currency == "" || strings.EqualFold(req.Currency, domain.NativeCurrency)
	tx := &checkedTx{account: sum.Account, amount: req.Amount}
	if sum.NativeOutflow != nil {
		if req.Amount != nil && (!declaresXRP || !req.Amount.Equal(*sum.NativeOutflow)) {
			return nil, apperror.Validation(fmt.Sprintf("declared amount %s %s does not match the %s XRP in unsignedTxBlob",
				req.Amount.String(), req.Currency, sum.NativeOutflow.String()))
		}
		tx.amount = sum.NativeOutflow
		tx.native = true
	} else if req.Amount != nil && declaresXRP {
		return nil, apperror.Validation(fmt.Sprintf("declared amount %s XRP but unsignedTxBlob moves no XRP", req.Amount.String()))
	}
	return tx, nil
}

func asAppError(err error) *apperror.AppError {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.InternalError(err)
}
