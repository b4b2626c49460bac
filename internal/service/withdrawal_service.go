package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/models"
	"github.com/adpanel/walletcore/internal/money"
	"github.com/adpanel/walletcore/internal/repository"
)

type WithdrawalService interface {
	RequestWithdrawal(ctx context.Context, clientID, accountID int64, currency money.Currency) (models.Withdrawal, error)
	StartProcessing(ctx context.Context, withdrawalID string, adminID int64, actualAmount string, proofRef string) error
	Reject(ctx context.Context, withdrawalID string, adminID int64, reason string) error
	CanWithdraw(ctx context.Context, accountID int64) (bool, error)
	ListByClient(ctx context.Context, clientID int64) ([]models.Withdrawal, error)
}

type withdrawalService struct {
	withdrawalRepo repository.WithdrawalRepository
	accountRepo    repository.AccountRepository
}

func NewWithdrawalService(withdrawalRepo repository.WithdrawalRepository, accountRepo repository.AccountRepository) WithdrawalService {
	return &withdrawalService{
		withdrawalRepo: withdrawalRepo,
		accountRepo:    accountRepo,
	}
}

func (s *withdrawalService) RequestWithdrawal(ctx context.Context, clientID, accountID int64, currency money.Currency) (models.Withdrawal, error) {
	if !currency.Valid() {
		return models.Withdrawal{}, apperrors.ErrInvalidRequest
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return models.Withdrawal{}, err
	}
	if account.ClientID != clientID {
		return models.Withdrawal{}, apperrors.ErrAccountNotFound
	}
	if account.Status != models.AccountStatusActive {
		return models.Withdrawal{}, apperrors.ErrAccountInactive
	}
	if account.Currency != currency {
		return models.Withdrawal{}, apperrors.ErrCurrencyMismatch
	}

	w := models.Withdrawal{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		AccountID: accountID,
		Currency:  currency,
		Status:    models.WithdrawalStatusPending,
		CreatedAt: time.Now(),
	}

	// The gate itself is checked under a row lock inside the repository.
	if err := s.withdrawalRepo.Create(ctx, w); err != nil {
		return models.Withdrawal{}, err
	}
	return w, nil
}

func (s *withdrawalService) StartProcessing(ctx context.Context, withdrawalID string, adminID int64, actualAmount string, proofRef string) error {
	if proofRef == "" {
		return apperrors.ErrInvalidRequest
	}

	w, err := s.withdrawalRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return err
	}

	amount, err := money.ParseAmount(actualAmount, w.Currency)
	if err != nil {
		return apperrors.ErrInvalidRequest
	}

	return s.withdrawalRepo.StartProcessing(ctx, withdrawalID, adminID, amount, proofRef)
}

// Reject declines a withdrawal before it enters the two-phase flow. The
// rejection reason is mandatory, matching action rejections.
func (s *withdrawalService) Reject(ctx context.Context, withdrawalID string, adminID int64, reason string) error {
	if withdrawalID == "" {
		return apperrors.ErrWithdrawalNotFound
	}
	if strings.TrimSpace(reason) == "" {
		return apperrors.ErrEmptyRejectionNotes
	}
	return s.withdrawalRepo.Reject(ctx, withdrawalID, adminID, reason)
}

func (s *withdrawalService) CanWithdraw(ctx context.Context, accountID int64) (bool, error) {
	return s.accountRepo.CanWithdraw(ctx, accountID)
}

func (s *withdrawalService) ListByClient(ctx context.Context, clientID int64) ([]models.Withdrawal, error) {
	return s.withdrawalRepo.ListByClient(ctx, clientID)
}
