package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/models"
	"github.com/adpanel/walletcore/internal/money"
	"github.com/adpanel/walletcore/internal/reconcile"
	"github.com/adpanel/walletcore/internal/repository"
)

type TopUpService interface {
	BuildRequest(ctx context.Context, clientID int64, lines []models.TopUpLineInput) (models.TopUpRequest, error)
	GetRequest(ctx context.Context, clientID int64, requestID string) (models.TopUpRequest, error)
	SettleIncomingTransfer(ctx context.Context, currency money.Currency, amount string, externalTxID string) (models.Settlement, error)
	ListConflicts(ctx context.Context) ([]models.SettlementConflict, error)
}

type topUpService struct {
	topUpRepo   repository.TopUpRepository
	accountRepo repository.AccountRepository
	clientRepo  repository.ClientRepository
	codes       reconcile.Generator
	window      time.Duration
}

func NewTopUpService(
	topUpRepo repository.TopUpRepository,
	accountRepo repository.AccountRepository,
	clientRepo repository.ClientRepository,
	codes reconcile.Generator,
	window time.Duration,
) TopUpService {
	return &topUpService{
		topUpRepo:   topUpRepo,
		accountRepo: accountRepo,
		clientRepo:  clientRepo,
		codes:       codes,
		window:      window,
	}
}

// BuildRequest groups the selected accounts into one currency-homogeneous
// request. Fee percentages are snapshotted per line, so later fee edits leave
// in-flight requests untouched.
func (s *topUpService) BuildRequest(ctx context.Context, clientID int64, lines []models.TopUpLineInput) (models.TopUpRequest, error) {
	if len(lines) == 0 {
		return models.TopUpRequest{}, apperrors.ErrInvalidRequest
	}

	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return models.TopUpRequest{}, err
	}
	if !client.Active {
		return models.TopUpRequest{}, apperrors.ErrClientInactive
	}

	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.AccountID)
	}
	accounts, err := s.accountRepo.GetByIDs(ctx, ids)
	if err != nil {
		return models.TopUpRequest{}, err
	}
	byID := make(map[int64]models.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	var currency money.Currency
	req := models.TopUpRequest{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Status:    models.TopUpStatusPendingPayment,
		CreatedAt: time.Now(),
	}

	for _, input := range lines {
		account, ok := byID[input.AccountID]
		if !ok {
			return models.TopUpRequest{}, apperrors.ErrAccountNotFound
		}
		if account.ClientID != clientID {
			return models.TopUpRequest{}, apperrors.ErrAccountNotFound
		}
		if account.Status != models.AccountStatusActive {
			return models.TopUpRequest{}, apperrors.ErrAccountInactive
		}
		if currency == "" {
			currency = account.Currency
		} else if account.Currency != currency {
			return models.TopUpRequest{}, apperrors.ErrCurrencyMismatch
		}

		amount, err := money.ParseAmount(input.Amount, account.Currency)
		if err != nil {
			return models.TopUpRequest{}, apperrors.ErrInvalidRequest
		}

		line := models.TopUpLine{
			AccountID: account.ID,
			Amount:    amount,
			FeePct:    account.FeePct,
			Fee:       money.Fee(amount, account.FeePct, account.Currency),
		}
		req.Lines = append(req.Lines, line)
		req.Amount = req.Amount.Add(line.Amount)
		req.Fee = req.Fee.Add(line.Fee)
	}

	req.Currency = currency
	req.PayableTotal = req.Amount.Add(req.Fee)

	if currency == money.IRR {
		code, err := s.codes.Generate()
		if err != nil {
			return models.TopUpRequest{}, err
		}
		req.Code = &code
		req.PayableTotal = req.PayableTotal.Add(decimal.NewFromInt(int64(code)))
	}

	if err := s.topUpRepo.Create(ctx, req); err != nil {
		return models.TopUpRequest{}, err
	}
	return req, nil
}

func (s *topUpService) GetRequest(ctx context.Context, clientID int64, requestID string) (models.TopUpRequest, error) {
	req, err := s.topUpRepo.GetByID(ctx, requestID)
	if err != nil {
		return models.TopUpRequest{}, err
	}
	if req.ClientID != clientID {
		return models.TopUpRequest{}, apperrors.ErrRequestNotFound
	}
	return req, nil
}

func (s *topUpService) SettleIncomingTransfer(ctx context.Context, currency money.Currency, amount string, externalTxID string) (models.Settlement, error) {
	if externalTxID == "" || !currency.Valid() {
		return models.Settlement{}, apperrors.ErrInvalidRequest
	}
	parsed, err := money.ParseAmount(amount, currency)
	if err != nil {
		return models.Settlement{}, apperrors.ErrInvalidRequest
	}
	return s.topUpRepo.Settle(ctx, currency, parsed, externalTxID, s.window)
}

func (s *topUpService) ListConflicts(ctx context.Context) ([]models.SettlementConflict, error) {
	return s.topUpRepo.ListConflicts(ctx)
}
