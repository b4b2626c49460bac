package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/adpanel/walletcore/internal/middleware"
	"github.com/adpanel/walletcore/internal/service"
)

type Handler struct {
	topUpService      service.TopUpService
	actionService     service.ActionService
	withdrawalService service.WithdrawalService
	walletService     service.WalletService
	historyService    service.HistoryService
	validate          *validator.Validate
}

func NewHandler(
	topUpService service.TopUpService,
	actionService service.ActionService,
	withdrawalService service.WithdrawalService,
	walletService service.WalletService,
	historyService service.HistoryService,
) *Handler {
	return &Handler{
		topUpService:      topUpService,
		actionService:     actionService,
		withdrawalService: withdrawalService,
		walletService:     walletService,
		historyService:    historyService,
		validate:          validator.New(),
	}
}

func NewRouter(handler *Handler, secretKey string, cache *redis.Client, idempotencyTTL time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.NewLoggingMiddleware())
	r.Use(middleware.WithGzip())
	r.Use(middleware.RateLimitMiddleware(middleware.NewActorRateLimiter(rate.Limit(20), 40)))

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid URL format", http.StatusNotFound)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.JWTMiddleware(secretKey))
		r.Use(middleware.Idempotency(cache, idempotencyTTL))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(middleware.RoleClient))

			r.Get("/wallet", handler.GetWallet)
			r.Post("/topups", handler.BuildTopUp)
			r.Get("/topups/{id}", handler.GetTopUp)
			r.Post("/withdrawals", handler.RequestWithdrawal)
			r.Get("/withdrawals", handler.ListWithdrawals)
		})

		r.Get("/accounts/{id}/can-withdraw", handler.CanWithdraw)
		r.Get("/history", handler.QueryHistory)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleSuperAdmin))

			r.Post("/actions", handler.ProposeAction)
			r.Get("/actions", handler.ListActions)
			r.Get("/actions/{id}", handler.GetAction)
			r.Post("/withdrawals/{id}/process", handler.ProcessWithdrawal)
			r.Post("/withdrawals/{id}/reject", handler.RejectWithdrawal)
			r.Post("/settlements", handler.SettleTransfer)
			r.Get("/settlement-conflicts", handler.ListSettlementConflicts)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(middleware.RoleSuperAdmin))

			r.Post("/actions/{id}/approve", handler.ApproveAction)
			r.Post("/actions/{id}/reject", handler.RejectAction)
		})
	})

	return r
}
