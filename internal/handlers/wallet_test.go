package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpanel/walletcore/internal/mocks/service_mocks"
	"github.com/adpanel/walletcore/internal/models"
)

func TestHandler_GetWallet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockWallet := service_mocks.NewMockWalletService(ctrl)
	h := &Handler{walletService: mockWallet, validate: validator.New()}

	t.Run("returns all four buckets", func(t *testing.T) {
		mockWallet.EXPECT().GetSnapshot(gomock.Any(), int64(1)).
			Return(models.BalanceSnapshot{
				ClientID: 1,
				MainLocal: models.BucketBalance{
					Available: decimal.NewFromInt(150000),
					Pending:   decimal.NewFromInt(100000),
				},
			}, nil)

		w := httptest.NewRecorder()
		h.GetWallet(w, clientRequest(http.MethodGet, "/api/wallet", ""))
		assert.Equal(t, http.StatusOK, w.Code)

		var got models.BalanceSnapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "150000", got.MainLocal.Available.String())
		assert.Equal(t, "100000", got.MainLocal.Pending.String())
	})

	t.Run("service error is internal", func(t *testing.T) {
		mockWallet.EXPECT().GetSnapshot(gomock.Any(), int64(1)).
			Return(models.BalanceSnapshot{}, errors.New("db down"))

		w := httptest.NewRecorder()
		h.GetWallet(w, clientRequest(http.MethodGet, "/api/wallet", ""))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
