// Package batch drives an ordered batch of transactions through a signing
// gateway, one transaction at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/internal/ledger"
	"rwa-signing-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the lifecycle state of a signing session.
type State string

const (
	StateReview     State = "REVIEW"
	StateValidating State = "VALIDATING"
	StateSigning    State = "SIGNING"
	StateComplete   State = "COMPLETE"
	StateError      State = "ERROR"
	StateCancelled  State = "CANCELLED"
)

// ErrInvalidTransition is returned when an operation is not allowed in the current state.
var ErrInvalidTransition = errors.New("operation not allowed in current session state")

// TxResult pairs an attempted transaction with the gateway's answer.
type TxResult struct {
	TransactionID uuid.UUID              `json:"transactionId"`
	Order         int                    `json:"order"`
	TxType        domain.TxType          `json:"txType"`
	UnsignedHash  string                 `json:"unsignedTxHash,omitempty"`
	Response      *ports.SigningResponse `json:"response"`
	Remediation   *Remediation           `json:"remediation,omitempty"`
}

// Succeeded reports whether the gateway signed the transaction.
func (r TxResult) Succeeded() bool {
	return r.Response != nil && r.Response.Success
}

// ValidationError is a structural problem found before any gateway call.
type ValidationError struct {
	TransactionID uuid.UUID `json:"transactionId,omitempty"`
	Order         int       `json:"order,omitempty"`
	Message       string    `json:"message"`
}

// Preview is what the operator reviews before signing.
type Preview struct {
	Wallet       *domain.Wallet                          `json:"wallet"`
	Mode         domain.BatchAtomicityMode               `json:"mode"`
	Transactions []domain.BatchTransaction               `json:"transactions"`
	Policies     map[domain.TxType]*domain.SigningPolicy `json:"policies"` // nil entry: no policy configured
}

// Report is the terminal view of a session.
type Report struct {
	BatchID          uuid.UUID                 `json:"batchId"`
	Mode             domain.BatchAtomicityMode `json:"mode"`
	State            State                     `json:"state"`
	Results          []TxResult                `json:"results"`
	ValidationErrors []ValidationError         `json:"validationErrors,omitempty"`
	Failure          *TxResult                 `json:"failure,omitempty"`
	Transactions     []domain.BatchTransaction `json:"transactions"`
}

// Session is one pass of a batch through REVIEW, VALIDATING and SIGNING.
// It is not reusable: once COMPLETE, ERROR or CANCELLED it stays there.
type Session struct {
	batch     *domain.Batch
	wallets   ports.WalletLookup
	policies  ports.PolicyResolver
	signer    ports.TransactionSigner
	requester ports.Identity
	log       zerolog.Logger

	mu               sync.Mutex
	state            State
	wallet           *domain.Wallet
	results          []TxResult
	validationErrors []ValidationError
	failure          *TxResult
}

// NewSession starts a session in REVIEW.
func NewSession(
	b *domain.Batch,
	wallets ports.WalletLookup,
	policies ports.PolicyResolver,
	signer ports.TransactionSigner,
	requester ports.Identity,
	log zerolog.Logger,
) (*Session, error) {
	if b == nil {
		return nil, errors.New("batch is required")
	}
	if !b.Mode.Valid() {
		return nil, fmt.Errorf("unknown atomicity mode %q", b.Mode)
	}
	return &Session{
		batch:     b,
		wallets:   wallets,
		policies:  policies,
		signer:    signer,
		requester: requester,
		log:       log.With().Str("batch_id", b.ID.String()).Str("wallet_id", b.WalletID.String()).Logger(),
		state:     StateReview,
	}, nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Review loads the wallet and previews the policy for each transaction type. It has no side effects.
func (s *Session) Review(ctx context.Context) (*Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReview {
		return nil, ErrInvalidTransition
	}

	wallet, err := s.loadWallet(ctx)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	preview := &Preview{
		Wallet:       wallet,
		Mode:         s.batch.Mode,
		Transactions: s.batch.Ordered(),
		Policies:     make(map[domain.TxType]*domain.SigningPolicy),
	}
	for _, tx := range preview.Transactions {
		txType := tx.TxType()
		if _, seen := preview.Policies[txType]; seen {
			continue
		}
		p, err := s.policies.Resolve(ctx, wallet.Role, wallet.Network, string(txType))
		if err != nil {
			return nil, fmt.Errorf("previewing policy for %s: %w", txType, err)
		}
		preview.Policies[txType] = p
	}
	return preview, nil
}

// Validate checks every transaction locally. Any problem moves the session to ERROR.
func (s *Session) Validate(ctx context.Context) ([]ValidationError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReview {
		return nil, ErrInvalidTransition
	}
	s.state = StateValidating

	var problems []ValidationError
	wallet, err := s.loadWallet(ctx)
	switch {
	case err != nil:
		s.state = StateReview
		return nil, err
	case wallet == nil:
		problems = append(problems, ValidationError{Message: "wallet not found"})
	case wallet.IsLegacyOnMainnet():
		problems = append(problems, ValidationError{
			Message: "wallet uses legacy key storage on mainnet and cannot sign; " + RemediationFor(apperror.CodeLegacyMainnetBlocked).Action,
		})
	}

	txs := s.batch.Ordered()
	if len(txs) == 0 {
		problems = append(problems, ValidationError{Message: "batch has no transactions"})
	}
	if len(txs) > domain.MaxBatchTransactions {
		problems = append(problems, ValidationError{Message: domain.ErrBatchFull.Error()})
	}
	for _, tx := range txs {
		if tx.Params == nil {
			problems = append(problems, ValidationError{TransactionID: tx.ID, Order: tx.Order, Message: "params are required"})
			continue
		}
		if err := tx.Params.Validate(); err != nil {
			problems = append(problems, ValidationError{TransactionID: tx.ID, Order: tx.Order, Message: err.Error()})
		}
	}

	if len(problems) > 0 {
		s.validationErrors = problems
		s.state = StateError
		s.log.Warn().Int("problems", len(problems)).Msg("batch failed validation")
	}
	return problems, nil
}

// Sign submits the transactions in ascending order, honoring the batch mode:
//
//	ALL_OR_NOTHING  first failure aborts; the session ends in ERROR
//	UNTIL_FAILURE   first failure stops signing; the session ends COMPLETE
//	ONLY_ONE        first success stops signing; the session ends COMPLETE
//	INDEPENDENT     every transaction is attempted
//
// Transactions that were never attempted are marked SKIPPED and have no result.
func (s *Session) Sign(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateValidating || s.wallet == nil {
		return nil, ErrInvalidTransition
	}
	s.state = StateSigning

	mode := s.batch.Mode
	txs := s.batch.Ordered()
	next := 0
	for ; next < len(txs); next++ {
		if err := ctx.Err(); err != nil {
			s.log.Warn().Err(err).Int("order", txs[next].Order).Msg("batch signing interrupted")
			break
		}

		tx := txs[next]
		result := s.signOne(ctx, tx)
		s.results = append(s.results, result)

		ok := result.Succeeded()
		if ok {
			s.setStatus(tx.ID, domain.BatchTxSuccess)
		} else {
			s.setStatus(tx.ID, domain.BatchTxFailed)
		}

		if (mode == domain.ModeAllOrNothing || mode == domain.ModeUntilFailure) && !ok {
			if mode == domain.ModeAllOrNothing {
				failed := result
				s.failure = &failed
			}
			next++
			break
		}
		if mode == domain.ModeOnlyOne && ok {
			next++
			break
		}
	}
	for _, tx := range txs[next:] {
		s.setStatus(tx.ID, domain.BatchTxSkipped)
	}

	switch {
	case s.failure != nil:
		s.state = StateError
	case ctx.Err() != nil && next < len(txs):
		s.state = StateError
	default:
		s.state = StateComplete
	}

	s.log.Info().
		Str("mode", string(mode)).
		Str("state", string(s.state)).
		Int("attempted", len(s.results)).
		Int("total", len(txs)).
		Msg("batch signing finished")
	return s.report(), nil
}

// Run validates and, when validation passes, signs.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	problems, err := s.Validate(ctx)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return s.Report(), nil
	}
	return s.Sign(ctx)
}

// Cancel abandons the session. Allowed only before signing started or after an abort.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReview && s.state != StateError {
		return ErrInvalidTransition
	}
	s.state = StateCancelled
	return nil
}

// Report returns the current view of the session.
func (s *Session) Report() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report()
}

func (s *Session) report() *Report {
	r := &Report{
		BatchID:          s.batch.ID,
		Mode:             s.batch.Mode,
		State:            s.state,
		Results:          append([]TxResult(nil), s.results...),
		ValidationErrors: append([]ValidationError(nil), s.validationErrors...),
		Transactions:     s.batch.Ordered(),
	}
	if s.failure != nil {
		f := *s.failure
		r.Failure = &f
	}
	return r
}

func (s *Session) signOne(ctx context.Context, tx domain.BatchTransaction) TxResult {
	result := TxResult{TransactionID: tx.ID, Order: tx.Order, TxType: tx.TxType()}

	req, err := s.buildRequest(tx)
	if err != nil {
		result.Response = &ports.SigningResponse{Error: err.Error(), ErrorCode: apperror.CodeInvalidRequest}
		return withRemediation(result)
	}
	result.UnsignedHash = req.UnsignedTxHash

	resp, err := s.signer.SignTransaction(ctx, req)
	if err != nil || resp == nil {
		if err == nil {
			err = errors.New("empty response from signer")
		}
		s.log.Error().Err(err).Int("order", tx.Order).Msg("signing call failed")
		resp = &ports.SigningResponse{Error: err.Error(), ErrorCode: apperror.CodeInternalError}
	}
	result.Response = resp

	event := s.log.Info()
	if !resp.Success {
		event = s.log.Warn().Str("error_code", resp.ErrorCode)
	}
	event.Int("order", tx.Order).Str("tx_type", string(result.TxType)).Str("audit_id", resp.AuditLogID).Msg("batch transaction processed")
	return withRemediation(result)
}

func (s *Session) buildRequest(tx domain.BatchTransaction) (ports.SigningRequest, error) {
	blob, err := ledger.Encode(s.wallet.Address, tx.Params)
	if err != nil {
		return ports.SigningRequest{}, err
	}
	hash, err := ledger.UnsignedHash(blob)
	if err != nil {
		return ports.SigningRequest{}, err
	}

	req := ports.SigningRequest{
		WalletID:        s.wallet.ID,
		TxType:          string(tx.TxType()),
		UnsignedTxBlob:  blob,
		UnsignedTxHash:  hash,
		RequestedBy:     s.requester.UserID,
		RequestedByName: s.requester.Name,
		RequestedByRole: s.requester.Role,
		Metadata:        map[string]any{"batchId": s.batch.ID.String(), "order": tx.Order},
	}
	if amt := tx.Params.Amount(); amt != nil {
		value := amt.Value
		req.Amount = &value
		req.Currency = amt.Currency
	}
	if p, ok := tx.Params.(*domain.Payment); ok {
		req.Destination = p.Destination
	}
	return req, nil
}

// loadWallet caches the wallet for the session.
func (s *Session) loadWallet(ctx context.Context) (*domain.Wallet, error) {
	if s.wallet != nil {
		return s.wallet, nil
	}
	w, err := s.wallets.GetWallet(ctx, s.batch.WalletID)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == apperror.CodeWalletNotFound {
			return nil, nil
		}
		return nil, err
	}
	s.wallet = w
	return w, nil
}

func (s *Session) setStatus(id uuid.UUID, status domain.BatchTxStatus) {
	for i := range s.batch.Transactions {
		if s.batch.Transactions[i].ID == id {
			s.batch.Transactions[i].Status = status
			return
		}
	}
}

func withRemediation(r TxResult) TxResult {
	if r.Response != nil && !r.Response.Success {
		rem := RemediationFor(r.Response.ErrorCode)
		r.Remediation = &rem
	}
	return r
}
