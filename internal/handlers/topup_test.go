package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/middleware"
	"github.com/adpanel/walletcore/internal/mocks/service_mocks"
	"github.com/adpanel/walletcore/internal/models"
	"github.com/adpanel/walletcore/internal/money"
)

func clientRequest(method, target, body string) *http.Request {
	return actorRequest(method, target, body, middleware.Actor{ID: 1, Role: middleware.RoleClient})
}

func actorRequest(method, target, body string, actor middleware.Actor) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHandler_BuildTopUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockTopUps := service_mocks.NewMockTopUpService(ctrl)
	h := &Handler{topUpService: mockTopUps, validate: validator.New()}

	code := 437
	tests := []struct {
		name           string
		body           string
		mockSetup      func()
		wantStatusCode int
		checkBody      func(t *testing.T, body string)
	}{
		{
			name: "created with reconciliation code",
			body: `{"lines":[{"account_id":10,"amount":"100000"},{"account_id":11,"amount":"50000"}]}`,
			mockSetup: func() {
				mockTopUps.EXPECT().BuildRequest(gomock.Any(), int64(1), gomock.Len(2)).
					Return(models.TopUpRequest{
						ID:           "req-1",
						Currency:     money.IRR,
						Amount:       decimal.NewFromInt(150000),
						Code:         &code,
						PayableTotal: decimal.NewFromInt(150437),
						Status:       models.TopUpStatusPendingPayment,
					}, nil)
			},
			wantStatusCode: http.StatusCreated,
			checkBody: func(t *testing.T, body string) {
				var got models.TopUpRequest
				require.NoError(t, json.Unmarshal([]byte(body), &got))
				require.NotNil(t, got.Code)
				assert.Equal(t, 437, *got.Code)
				assert.Equal(t, "150437", got.PayableTotal.String())
			},
		},
		{
			name: "mixed currencies are unprocessable",
			body: `{"lines":[{"account_id":10,"amount":"100000"},{"account_id":20,"amount":"10.00"}]}`,
			mockSetup: func() {
				mockTopUps.EXPECT().BuildRequest(gomock.Any(), int64(1), gomock.Any()).
					Return(models.TopUpRequest{}, apperrors.ErrCurrencyMismatch)
			},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name: "duplicate pending request conflicts",
			body: `{"lines":[{"account_id":10,"amount":"100000"}]}`,
			mockSetup: func() {
				mockTopUps.EXPECT().BuildRequest(gomock.Any(), int64(1), gomock.Any()).
					Return(models.TopUpRequest{}, apperrors.ErrDuplicateSubmission)
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "empty lines fail validation before the service",
			body:           `{"lines":[]}`,
			mockSetup:      func() {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "malformed json is a bad request",
			body:           `{"lines":`,
			mockSetup:      func() {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "unknown account is not found",
			body: `{"lines":[{"account_id":99,"amount":"100000"}]}`,
			mockSetup: func() {
				mockTopUps.EXPECT().BuildRequest(gomock.Any(), int64(1), gomock.Any()).
					Return(models.TopUpRequest{}, apperrors.ErrAccountNotFound)
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "unexpected service error is internal",
			body: `{"lines":[{"account_id":10,"amount":"100000"}]}`,
			mockSetup: func() {
				mockTopUps.EXPECT().BuildRequest(gomock.Any(), int64(1), gomock.Any()).
					Return(models.TopUpRequest{}, errors.New("db down"))
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			w := httptest.NewRecorder()
			h.BuildTopUp(w, clientRequest(http.MethodPost, "/api/topups", tt.body))

			assert.Equal(t, tt.wantStatusCode, w.Code)
			if tt.checkBody != nil {
				tt.checkBody(t, w.Body.String())
			}
		})
	}
}

func TestHandler_GetTopUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockTopUps := service_mocks.NewMockTopUpService(ctrl)
	h := &Handler{topUpService: mockTopUps, validate: validator.New()}

	t.Run("owner fetches their request", func(t *testing.T) {
		mockTopUps.EXPECT().GetRequest(gomock.Any(), int64(1), "req-1").
			Return(models.TopUpRequest{ID: "req-1", Status: models.TopUpStatusPendingPayment}, nil)

		w := httptest.NewRecorder()
		req := withURLParam(clientRequest(http.MethodGet, "/api/topups/req-1", ""), "id", "req-1")
		h.GetTopUp(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("foreign request is not found", func(t *testing.T) {
		mockTopUps.EXPECT().GetRequest(gomock.Any(), int64(1), "req-2").
			Return(models.TopUpRequest{}, apperrors.ErrRequestNotFound)

		w := httptest.NewRecorder()
		req := withURLParam(clientRequest(http.MethodGet, "/api/topups/req-2", ""), "id", "req-2")
		h.GetTopUp(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
