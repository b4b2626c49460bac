package service

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/mocks/repository_mocks"
	"github.com/adpanel/walletcore/internal/models"
	"github.com/adpanel/walletcore/internal/money"
)

func TestWithdrawalService_RequestWithdrawal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	tests := []struct {
		name      string
		clientID  int64
		accountID int64
		currency  money.Currency
		mockSetup func(withdrawals *repository_mocks.MockWithdrawalRepository, accounts *repository_mocks.MockAccountRepository)
		wantErr   error
	}{
		{
			name:      "request on an open account is created pending",
			clientID:  1,
			accountID: 10,
			currency:  money.IRR,
			mockSetup: func(withdrawals *repository_mocks.MockWithdrawalRepository, accounts *repository_mocks.MockAccountRepository) {
				accounts.EXPECT().GetByID(ctx, int64(10)).Return(irrAccount(10, 1, "0"), nil)
				withdrawals.EXPECT().Create(ctx, gomock.AssignableToTypeOf(models.Withdrawal{})).DoAndReturn(
					func(_ context.Context, w models.Withdrawal) error {
						assert.Equal(t, models.WithdrawalStatusPending, w.Status)
						assert.Equal(t, int64(1), w.ClientID)
						assert.Equal(t, int64(10), w.AccountID)
						assert.NotEmpty(t, w.ID)
						return nil
					})
			},
		},
		{
			name:      "closed gate blocks new requests",
			clientID:  1,
			accountID: 10,
			currency:  money.IRR,
			mockSetup: func(withdrawals *repository_mocks.MockWithdrawalRepository, accounts *repository_mocks.MockAccountRepository) {
				accounts.EXPECT().GetByID(ctx, int64(10)).Return(irrAccount(10, 1, "0"), nil)
				withdrawals.EXPECT().Create(ctx, gomock.Any()).Return(apperrors.ErrWithdrawalBlocked)
			},
			wantErr: apperrors.ErrWithdrawalBlocked,
		},
		{
			name:      "in-flight withdrawal for the same account is a duplicate",
			clientID:  1,
			accountID: 10,
			currency:  money.IRR,
			mockSetup: func(withdrawals *repository_mocks.MockWithdrawalRepository, accounts *repository_mocks.MockAccountRepository) {
				accounts.EXPECT().GetByID(ctx, int64(10)).Return(irrAccount(10, 1, "0"), nil)
				withdrawals.EXPECT().Create(ctx, gomock.Any()).Return(apperrors.ErrDuplicateSubmission)
			},
			wantErr: apperrors.ErrDuplicateSubmission,
		},
		{
			name:      "another client's account is not found",
			clientID:  2,
			accountID: 10,
			currency:  money.IRR,
			mockSetup: func(withdrawals *repository_mocks.MockWithdrawalRepository, accounts *repository_mocks.MockAccountRepository) {
				accounts.EXPECT().GetByID(ctx, int64(10)).Return(irrAccount(10, 1, "0"), nil)
			},
			wantErr: apperrors.ErrAccountNotFound,
		},
		{
			name:      "currency must match the account",
			clientID:  1,
			accountID: 10,
			currency:  money.USD,
			mockSetup: func(withdrawals *repository_mocks.MockWithdrawalRepository, accounts *repository_mocks.MockAccountRepository) {
				accounts.EXPECT().GetByID(ctx, int64(10)).Return(irrAccount(10, 1, "0"), nil)
			},
			wantErr: apperrors.ErrCurrencyMismatch,
		},
		{
			name:      "unknown currency is rejected up front",
			clientID:  1,
			accountID: 10,
			currency:  money.Currency("EUR"),
			mockSetup: func(withdrawals *repository_mocks.MockWithdrawalRepository, accounts *repository_mocks.MockAccountRepository) {
			},
			wantErr: apperrors.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withdrawals := repository_mocks.NewMockWithdrawalRepository(ctrl)
			accounts := repository_mocks.NewMockAccountRepository(ctrl)
			tt.mockSetup(withdrawals, accounts)

			svc := NewWithdrawalService(withdrawals, accounts)
			w, err := svc.RequestWithdrawal(ctx, tt.clientID, tt.accountID, tt.currency)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.WithdrawalStatusPending, w.Status)
		})
	}
}

func TestWithdrawalService_StartProcessing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	tests := []struct {
		name         string
		withdrawalID string
		actualAmount string
		proofRef     string
		mockSetup    func(withdrawals *repository_mocks.MockWithdrawalRepository)
		wantErr      error
	}{
		{
			name:         "verified amount and proof move the withdrawal to processing",
			withdrawalID: "w-1",
			actualAmount: "98500",
			proofRef:     "screenshot-77",
			mockSetup: func(withdrawals *repository_mocks.MockWithdrawalRepository) {
				withdrawals.EXPECT().GetByID(ctx, "w-1").Return(models.Withdrawal{
					ID:       "w-1",
					Currency: money.IRR,
					Status:   models.WithdrawalStatusPending,
				}, nil)
				withdrawals.EXPECT().
					StartProcessing(ctx, "w-1", int64(200), decimal.NewFromInt(98500), "screenshot-77").
					Return(nil)
			},
		},
		{
			name:         "missing proof reference is rejected",
			withdrawalID: "w-1",
			actualAmount: "98500",
			proofRef:     "",
			mockSetup:    func(withdrawals *repository_mocks.MockWithdrawalRepository) {},
			wantErr:      apperrors.ErrInvalidRequest,
		},
		{
			name:         "amount is validated against the withdrawal currency",
			withdrawalID: "w-1",
			actualAmount: "98500.25",
			proofRef:     "screenshot-77",
			mockSetup: func(withdrawals *repository_mocks.MockWithdrawalRepository) {
				withdrawals.EXPECT().GetByID(ctx, "w-1").Return(models.Withdrawal{
					ID:       "w-1",
					Currency: money.IRR,
					Status:   models.WithdrawalStatusPending,
				}, nil)
			},
			wantErr: apperrors.ErrInvalidRequest,
		},
		{
			name:         "already processing withdrawal is refused",
			withdrawalID: "w-2",
			actualAmount: "98500",
			proofRef:     "screenshot-78",
			mockSetup: func(withdrawals *repository_mocks.MockWithdrawalRepository) {
				withdrawals.EXPECT().GetByID(ctx, "w-2").Return(models.Withdrawal{
					ID:       "w-2",
					Currency: money.IRR,
					Status:   models.WithdrawalStatusProcessing,
				}, nil)
				withdrawals.EXPECT().
					StartProcessing(ctx, "w-2", int64(200), decimal.NewFromInt(98500), "screenshot-78").
					Return(apperrors.ErrAlreadyResolved)
			},
			wantErr: apperrors.ErrAlreadyResolved,
		},
		{
			name:         "unknown withdrawal is not found",
			withdrawalID: "w-9",
			actualAmount: "98500",
			proofRef:     "screenshot-79",
			mockSetup: func(withdrawals *repository_mocks.MockWithdrawalRepository) {
				withdrawals.EXPECT().GetByID(ctx, "w-9").Return(models.Withdrawal{}, apperrors.ErrWithdrawalNotFound)
			},
			wantErr: apperrors.ErrWithdrawalNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withdrawals := repository_mocks.NewMockWithdrawalRepository(ctrl)
			tt.mockSetup(withdrawals)

			svc := &withdrawalService{withdrawalRepo: withdrawals}
			err := svc.StartProcessing(ctx, tt.withdrawalID, 200, tt.actualAmount, tt.proofRef)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWithdrawalService_Reject(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	tests := []struct {
		name         string
		withdrawalID string
		reason       string
		mockSetup    func(withdrawals *repository_mocks.MockWithdrawalRepository)
		wantErr      error
	}{
		{
			name:         "pending withdrawal is rejected with a reason",
			withdrawalID: "w-1",
			reason:       "account balance does not match",
			mockSetup: func(withdrawals *repository_mocks.MockWithdrawalRepository) {
				withdrawals.EXPECT().Reject(ctx, "w-1", int64(200), "account balance does not match").Return(nil)
			},
		},
		{
			name:         "reason is mandatory",
			withdrawalID: "w-1",
			reason:       "",
			mockSetup:    func(withdrawals *repository_mocks.MockWithdrawalRepository) {},
			wantErr:      apperrors.ErrEmptyRejectionNotes,
		},
		{
			name:         "whitespace-only reason is refused",
			withdrawalID: "w-1",
			reason:       "   ",
			mockSetup:    func(withdrawals *repository_mocks.MockWithdrawalRepository) {},
			wantErr:      apperrors.ErrEmptyRejectionNotes,
		},
		{
			name:         "missing id is not found",
			withdrawalID: "",
			reason:       "late",
			mockSetup:    func(withdrawals *repository_mocks.MockWithdrawalRepository) {},
			wantErr:      apperrors.ErrWithdrawalNotFound,
		},
		{
			name:         "completed withdrawal cannot be rejected",
			withdrawalID: "w-2",
			reason:       "late",
			mockSetup: func(withdrawals *repository_mocks.MockWithdrawalRepository) {
				withdrawals.EXPECT().Reject(ctx, "w-2", int64(200), "late").Return(apperrors.ErrAlreadyResolved)
			},
			wantErr: apperrors.ErrAlreadyResolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withdrawals := repository_mocks.NewMockWithdrawalRepository(ctrl)
			tt.mockSetup(withdrawals)

			svc := &withdrawalService{withdrawalRepo: withdrawals}
			err := svc.Reject(ctx, tt.withdrawalID, 200, tt.reason)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWithdrawalService_CanWithdraw(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accounts := repository_mocks.NewMockAccountRepository(ctrl)
	svc := &withdrawalService{accountRepo: accounts}

	accounts.EXPECT().CanWithdraw(gomock.Any(), int64(10)).Return(true, nil)
	open, err := svc.CanWithdraw(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, open)

	accounts.EXPECT().CanWithdraw(gomock.Any(), int64(11)).Return(false, nil)
	open, err = svc.CanWithdraw(context.Background(), 11)
	require.NoError(t, err)
	assert.False(t, open)
}
