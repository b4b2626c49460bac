package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/logger"
	"github.com/adpanel/walletcore/internal/models"
)

type WithdrawalRepository interface {
	Create(ctx context.Context, w models.Withdrawal) error
	GetByID(ctx context.Context, id string) (models.Withdrawal, error)
	StartProcessing(ctx context.Context, id string, adminID int64, actualAmount decimal.Decimal, proofRef string) error
	Reject(ctx context.Context, id string, adminID int64, reason string) error
	ListByClient(ctx context.Context, clientID int64) ([]models.Withdrawal, error)
}

type withdrawalRepo struct {
	db *sql.DB
}

func NewWithdrawalRepository(db *sql.DB) WithdrawalRepository {
	return &withdrawalRepo{db: db}
}

// Create inserts a pending withdrawal after checking the account gate under a
// row lock, so a racing settlement cannot slip a second withdrawal past it.
func (r *withdrawalRepo) Create(ctx context.Context, w models.Withdrawal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Log.Error("rollback error", zap.Error(rbErr))
			}
		}
	}()

	var canWithdraw bool
	err = tx.QueryRowContext(ctx, `
		SELECT can_withdraw FROM accounts WHERE id = $1 FOR UPDATE
	`, w.AccountID).Scan(&canWithdraw)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrAccountNotFound
	}
	if err != nil {
		return err
	}
	if !canWithdraw {
		return apperrors.ErrWithdrawalBlocked
	}

	var inFlight bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM withdrawals
			WHERE account_id = $1 AND status IN ('pending', 'processing')
		)
	`, w.AccountID).Scan(&inFlight)
	if err != nil {
		return err
	}
	if inFlight {
		return apperrors.ErrDuplicateSubmission
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO withdrawals (id, client_id, account_id, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, w.ID, w.ClientID, w.AccountID, w.Currency, w.Status, w.CreatedAt)
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const withdrawalColumns = `id, client_id, account_id, currency, status, actual_amount, proof_ref, processed_by, reject_reason, created_at, updated_at`

func (r *withdrawalRepo) GetByID(ctx context.Context, id string) (models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.QueryRowContext(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1
	`, id).Scan(&w.ID, &w.ClientID, &w.AccountID, &w.Currency, &w.Status, &w.ActualAmount,
		&w.ProofRef, &w.ProcessedBy, &w.RejectReason, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Withdrawal{}, apperrors.ErrWithdrawalNotFound
	}
	if err != nil {
		return models.Withdrawal{}, err
	}
	return w, nil
}

func (r *withdrawalRepo) StartProcessing(ctx context.Context, id string, adminID int64, actualAmount decimal.Decimal, proofRef string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE withdrawals
		SET status = 'processing', actual_amount = $1, proof_ref = $2, processed_by = $3, updated_at = now()
		WHERE id = $4 AND status = 'pending'
	`, actualAmount, proofRef, adminID, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrAlreadyResolved
	}
	return nil
}

// Reject declines a withdrawal an admin will not carry forward. Once a
// withdraw_account action exists, rejecting the action cascades here instead.
func (r *withdrawalRepo) Reject(ctx context.Context, id string, adminID int64, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Log.Error("rollback error", zap.Error(rbErr))
			}
		}
	}()

	var w models.Withdrawal
	err = tx.QueryRowContext(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE
	`, id).Scan(&w.ID, &w.ClientID, &w.AccountID, &w.Currency, &w.Status, &w.ActualAmount,
		&w.ProofRef, &w.ProcessedBy, &w.RejectReason, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrWithdrawalNotFound
	}
	if err != nil {
		return err
	}
	if w.Status != models.WithdrawalStatusPending && w.Status != models.WithdrawalStatusProcessing {
		return apperrors.ErrAlreadyResolved
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE withdrawals
		SET status = 'rejected', reject_reason = $1, processed_by = $2, updated_at = now()
		WHERE id = $3
	`, reason, adminID, id); err != nil {
		return err
	}

	amount := decimal.Zero
	if w.ActualAmount != nil {
		amount = *w.ActualAmount
	}
	if err = insertHistoryTx(ctx, tx, models.HistoryEntry{
		ID:        uuid.NewString(),
		ClientID:  w.ClientID,
		Kind:      models.HistoryKindWithdrawal,
		RefID:     w.ID,
		Type:      models.HistoryKindWithdrawal,
		Status:    models.WithdrawalStatusRejected,
		Amount:    amount,
		Currency:  w.Currency,
		Notes:     reason,
		SettledAt: time.Now(),
	}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *withdrawalRepo) ListByClient(ctx context.Context, clientID int64) ([]models.Withdrawal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals WHERE client_id = $1 ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		logger.Log.Error("failed to query withdrawals", zap.Error(err))
		return nil, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Log.Error("failed to close rows", zap.Error(err))
		}
	}(rows)

	var withdrawals []models.Withdrawal
	for rows.Next() {
		var w models.Withdrawal
		if err := rows.Scan(&w.ID, &w.ClientID, &w.AccountID, &w.Currency, &w.Status, &w.ActualAmount,
			&w.ProofRef, &w.ProcessedBy, &w.RejectReason, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}
