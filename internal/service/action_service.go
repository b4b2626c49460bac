package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/models"
	"github.com/adpanel/walletcore/internal/money"
	"github.com/adpanel/walletcore/internal/repository"
)

type ActionService interface {
	Propose(ctx context.Context, proposerID int64, input models.ProposeActionInput) (string, error)
	Approve(ctx context.Context, actionID string, approverID int64, notes string) (models.BalanceSnapshot, error)
	Reject(ctx context.Context, actionID string, approverID int64, notes string) error
	Get(ctx context.Context, actionID string) (models.AdminAction, error)
	List(ctx context.Context, status string, clientID *int64) ([]models.AdminAction, error)
}

type actionService struct {
	actionRepo     repository.ActionRepository
	clientRepo     repository.ClientRepository
	accountRepo    repository.AccountRepository
	withdrawalRepo repository.WithdrawalRepository
}

func NewActionService(
	actionRepo repository.ActionRepository,
	clientRepo repository.ClientRepository,
	accountRepo repository.AccountRepository,
	withdrawalRepo repository.WithdrawalRepository,
) ActionService {
	return &actionService{
		actionRepo:     actionRepo,
		clientRepo:     clientRepo,
		accountRepo:    accountRepo,
		withdrawalRepo: withdrawalRepo,
	}
}

func (s *actionService) Propose(ctx context.Context, proposerID int64, input models.ProposeActionInput) (string, error) {
	if !input.Type.Valid() {
		return "", apperrors.ErrInvalidRequest
	}

	currency := money.Currency(input.Currency)
	if !currency.Valid() {
		return "", apperrors.ErrInvalidRequest
	}

	client, err := s.clientRepo.GetByID(ctx, input.ClientID)
	if err != nil {
		return "", err
	}
	if !client.Active {
		return "", apperrors.ErrClientInactive
	}

	action := models.AdminAction{
		ID:          uuid.NewString(),
		Type:        input.Type,
		ClientID:    input.ClientID,
		ProposerID:  proposerID,
		Currency:    currency,
		AccountID:   input.AccountID,
		TargetID:    input.TargetID,
		Attachments: input.Attachments,
		Notes:       input.Notes,
		Status:      models.ActionStatusPending,
		CreatedAt:   time.Now(),
	}

	if input.Type.Monetary() {
		amount, err := money.ParseAmount(input.Amount, currency)
		if err != nil {
			return "", apperrors.ErrInvalidRequest
		}
		action.Amount = amount
	} else {
		action.Amount = decimal.Zero
	}

	switch input.Type {
	case models.ActionWithdrawAccount, models.ActionTransferToAcct:
		if input.AccountID == nil {
			return "", apperrors.ErrInvalidRequest
		}
		account, err := s.accountRepo.GetByID(ctx, *input.AccountID)
		if err != nil {
			return "", err
		}
		if account.ClientID != input.ClientID {
			return "", apperrors.ErrAccountNotFound
		}
		if account.Currency != currency {
			return "", apperrors.ErrCurrencyMismatch
		}

		if input.Type == models.ActionWithdrawAccount && input.TargetID != nil {
			w, err := s.withdrawalRepo.GetByID(ctx, *input.TargetID)
			if err != nil {
				return "", err
			}
			if w.AccountID != *input.AccountID || w.Status != models.WithdrawalStatusProcessing {
				return "", apperrors.ErrInvalidRequest
			}
		}

	case models.ActionProofEdit:
		if input.TargetID == nil || len(input.Attachments) == 0 {
			return "", apperrors.ErrInvalidRequest
		}
	}

	if err := s.actionRepo.Create(ctx, action); err != nil {
		return "", err
	}
	return action.ID, nil
}

func (s *actionService) Approve(ctx context.Context, actionID string, approverID int64, notes string) (models.BalanceSnapshot, error) {
	if actionID == "" {
		return models.BalanceSnapshot{}, apperrors.ErrInvalidRequest
	}
	return s.actionRepo.Approve(ctx, actionID, approverID, notes)
}

func (s *actionService) Reject(ctx context.Context, actionID string, approverID int64, notes string) error {
	if actionID == "" {
		return apperrors.ErrInvalidRequest
	}
	if strings.TrimSpace(notes) == "" {
		return apperrors.ErrEmptyRejectionNotes
	}
	return s.actionRepo.Reject(ctx, actionID, approverID, notes)
}

func (s *actionService) Get(ctx context.Context, actionID string) (models.AdminAction, error) {
	return s.actionRepo.GetByID(ctx, actionID)
}

func (s *actionService) List(ctx context.Context, status string, clientID *int64) ([]models.AdminAction, error) {
	switch status {
	case models.ActionStatusPending, models.ActionStatusApproved, models.ActionStatusRejected:
	default:
		return nil, apperrors.ErrInvalidRequest
	}
	return s.actionRepo.List(ctx, status, clientID)
}
