package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/logger"
	"github.com/adpanel/walletcore/internal/models"
	"github.com/adpanel/walletcore/internal/money"
)

type TopUpRepository interface {
	Create(ctx context.Context, req models.TopUpRequest) error
	GetByID(ctx context.Context, id string) (models.TopUpRequest, error)
	Settle(ctx context.Context, currency money.Currency, amount decimal.Decimal, externalTxID string, window time.Duration) (models.Settlement, error)
	ListConflicts(ctx context.Context) ([]models.SettlementConflict, error)
}

type topUpRepo struct {
	db *sql.DB
}

func NewTopUpRepository(db *sql.DB) TopUpRepository {
	return &topUpRepo{db: db}
}

func (r *topUpRepo) Create(ctx context.Context, req models.TopUpRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Log.Error("rollback error", zap.Error(rbErr))
			}
		}
	}()

	// In-flight marker: one pending request per client and aggregate amount.
	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM topup_requests
			WHERE client_id = $1 AND amount = $2 AND currency = $3 AND status = 'pending_payment'
		)
	`, req.ClientID, req.Amount, req.Currency).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		err = apperrors.ErrDuplicateSubmission
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO topup_requests (id, client_id, currency, amount, fee, code, payable_total, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, req.ID, req.ClientID, req.Currency, req.Amount, req.Fee, req.Code, req.PayableTotal, req.Status, req.CreatedAt)
	if err != nil {
		return err
	}

	for _, line := range req.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO topup_lines (request_id, account_id, amount, fee_pct, fee)
			VALUES ($1, $2, $3, $4, $5)
		`, req.ID, line.AccountID, line.Amount, line.FeePct, line.Fee)
		if err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

func (r *topUpRepo) GetByID(ctx context.Context, id string) (models.TopUpRequest, error) {
	var req models.TopUpRequest
	err := r.db.QueryRowContext(ctx, `
		SELECT id, client_id, currency, amount, fee, code, payable_total, status, external_tx_id, created_at, completed_at
		FROM topup_requests WHERE id = $1
	`, id).Scan(&req.ID, &req.ClientID, &req.Currency, &req.Amount, &req.Fee, &req.Code,
		&req.PayableTotal, &req.Status, &req.ExternalTxID, &req.CreatedAt, &req.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TopUpRequest{}, apperrors.ErrRequestNotFound
	}
	if err != nil {
		return models.TopUpRequest{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT account_id, amount, fee_pct, fee FROM topup_lines WHERE request_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return models.TopUpRequest{}, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Log.Error("failed to close rows", zap.Error(err))
		}
	}(rows)

	for rows.Next() {
		var line models.TopUpLine
		if err := rows.Scan(&line.AccountID, &line.Amount, &line.FeePct, &line.Fee); err != nil {
			return models.TopUpRequest{}, err
		}
		req.Lines = append(req.Lines, line)
	}
	return req, rows.Err()
}

// Settle processes one external bank transfer. The settlements primary key is
// the external transaction id, so a replayed feed event claims zero rows and
// returns the already-recorded outcome instead of matching twice.
func (r *topUpRepo) Settle(ctx context.Context, currency money.Currency, amount decimal.Decimal, externalTxID string, window time.Duration) (models.Settlement, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Settlement{}, err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Log.Error("rollback error", zap.Error(rbErr))
			}
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO settlements (external_tx_id, currency, amount, status)
		VALUES ($1, $2, $3, 'unmatched')
		ON CONFLICT (external_tx_id) DO NOTHING
	`, externalTxID, currency, amount)
	if err != nil {
		return models.Settlement{}, err
	}
	claimed, err := res.RowsAffected()
	if err != nil {
		return models.Settlement{}, err
	}
	if claimed == 0 {
		return models.Settlement{}, apperrors.ErrDuplicateSettlement
	}

	cutoff := time.Now().Add(-window)
	rows, err := tx.QueryContext(ctx, `
		SELECT id, client_id, amount FROM topup_requests
		WHERE status = 'pending_payment' AND currency = $1 AND payable_total = $2 AND created_at >= $3
		ORDER BY created_at
		FOR UPDATE
	`, currency, amount, cutoff)
	if err != nil {
		return models.Settlement{}, err
	}

	type candidate struct {
		id       string
		clientID int64
		amount   decimal.Decimal
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.clientID, &c.amount); err != nil {
			_ = rows.Close()
			return models.Settlement{}, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Close(); err != nil {
		return models.Settlement{}, err
	}
	if err := rows.Err(); err != nil {
		return models.Settlement{}, err
	}

	settlement := models.Settlement{
		ExternalTxID: externalTxID,
		Currency:     currency,
		Amount:       amount,
		CreatedAt:    time.Now(),
	}

	switch len(candidates) {
	case 0:
		settlement.Status = models.SettlementStatusUnmatched
		if err = tx.Commit(); err != nil {
			return models.Settlement{}, err
		}
		committed = true
		return settlement, apperrors.ErrNoMatch

	case 1:
		match := candidates[0]
		now := time.Now()

		if _, err = tx.ExecContext(ctx, `
			UPDATE topup_requests
			SET status = 'completed', external_tx_id = $1, completed_at = $2
			WHERE id = $3
		`, externalTxID, now, match.id); err != nil {
			return models.Settlement{}, err
		}

		if err = lockWalletTx(ctx, tx, match.clientID); err != nil {
			return models.Settlement{}, err
		}
		if err = creditBucketTx(ctx, tx, match.clientID, models.MainBucket(currency), match.amount); err != nil {
			return models.Settlement{}, err
		}

		// A settled top-up re-opens the withdrawal gate on every account it funded.
		if _, err = tx.ExecContext(ctx, `
			UPDATE accounts SET can_withdraw = TRUE
			WHERE id IN (SELECT account_id FROM topup_lines WHERE request_id = $1)
		`, match.id); err != nil {
			return models.Settlement{}, err
		}

		if err = insertHistoryTx(ctx, tx, models.HistoryEntry{
			ID:        uuid.NewString(),
			ClientID:  match.clientID,
			Kind:      models.HistoryKindTopUp,
			RefID:     match.id,
			Type:      models.HistoryKindTopUp,
			Status:    models.TopUpStatusCompleted,
			Amount:    match.amount,
			Currency:  currency,
			Notes:     "matched transfer " + externalTxID,
			SettledAt: now,
		}); err != nil {
			return models.Settlement{}, err
		}

		if _, err = tx.ExecContext(ctx, `
			UPDATE settlements SET status = 'matched', request_id = $1 WHERE external_tx_id = $2
		`, match.id, externalTxID); err != nil {
			return models.Settlement{}, err
		}

		settlement.Status = models.SettlementStatusMatched
		settlement.RequestID = &match.id
		if err = tx.Commit(); err != nil {
			return models.Settlement{}, err
		}
		committed = true
		return settlement, nil

	default:
		ids := make([]string, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.id)
		}
		raw, err := json.Marshal(ids)
		if err != nil {
			return models.Settlement{}, err
		}

		if _, err = tx.ExecContext(ctx, `
			UPDATE settlements SET status = 'conflict' WHERE external_tx_id = $1
		`, externalTxID); err != nil {
			return models.Settlement{}, err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO settlement_conflicts (external_tx_id, currency, amount, candidate_ids)
			VALUES ($1, $2, $3, $4)
		`, externalTxID, currency, amount, raw); err != nil {
			return models.Settlement{}, err
		}

		settlement.Status = models.SettlementStatusConflict
		if err = tx.Commit(); err != nil {
			return models.Settlement{}, err
		}
		committed = true
		return settlement, apperrors.ErrAmbiguousMatch
	}
}

// ListConflicts returns the manual-resolution queue, newest first.
func (r *topUpRepo) ListConflicts(ctx context.Context) ([]models.SettlementConflict, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, external_tx_id, currency, amount, candidate_ids, created_at
		FROM settlement_conflicts ORDER BY created_at DESC
	`)
	if err != nil {
		logger.Log.Error("failed to query settlement conflicts", zap.Error(err))
		return nil, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Log.Error("failed to close rows", zap.Error(err))
		}
	}(rows)

	var conflicts []models.SettlementConflict
	for rows.Next() {
		var (
			c   models.SettlementConflict
			raw []byte
		)
		if err := rows.Scan(&c.ID, &c.ExternalTxID, &c.Currency, &c.Amount, &raw, &c.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &c.CandidateIDs); err != nil {
				return nil, err
			}
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}
