package service

import (
	"context"
	"fmt"

	"rwa-signing-gateway/internal/core/domain"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type walletService struct {
	walletRepo ports.WalletRepository
	log        zerolog.Logger
}

// NewWalletService creates the wallet administration service.
func NewWalletService(walletRepo ports.WalletRepository, log zerolog.Logger) ports.WalletService {
	return &walletService{walletRepo: walletRepo, log: log}
}

func (s *walletService) GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}

func (s *walletService) ListWallets(ctx context.Context, params ports.WalletListParams) ([]domain.Wallet, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	wallets, total, err := s.walletRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return wallets, total, nil
}

// ChangeStatus applies a suspend, archive or reactivate action.
func (s *walletService) ChangeStatus(ctx context.Context, id uuid.UUID, to domain.WalletStatus) (*domain.Wallet, error) {
	wallet, err := s.GetWallet(ctx, id)
	if err != nil {
		return nil, err
	}
	if wallet.Status == to {
		return wallet, nil
	}
	if !wallet.CanTransition(to) {
		return nil, apperror.ErrConflict(fmt.Sprintf("wallet cannot move from %s to %s", wallet.Status, to))
	}

	ok, err := s.walletRepo.UpdateStatus(ctx, id, wallet.Status, to)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !ok {
		// Someone else changed the status between our read and write.
		return nil, apperror.ErrConflict("wallet status changed concurrently, retry")
	}

	s.log.Info().
		Str("wallet_id", id.String()).
		Str("from", string(wallet.Status)).
		Str("to", string(to)).
		Msg("wallet status changed")

	wallet.Status = to
	return wallet, nil
}
