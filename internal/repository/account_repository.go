package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/logger"
	"github.com/adpanel/walletcore/internal/models"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (models.Account, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.Account, error)
	CanWithdraw(ctx context.Context, accountID int64) (bool, error)
}

type accountRepo struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepo{db: db}
}

const accountColumns = `id, client_id, name, currency, fee_pct, balance, status, can_withdraw, created_at`

func (r *accountRepo) GetByID(ctx context.Context, id int64) (models.Account, error) {
	var a models.Account
	err := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.ClientID, &a.Name, &a.Currency, &a.FeePct, &a.Balance, &a.Status, &a.CanWithdraw, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, apperrors.ErrAccountNotFound
	}
	if err != nil {
		logger.Log.Error("failed to get account", zap.Int64("account_id", id), zap.Error(err))
		return models.Account{}, err
	}
	return a, nil
}

func (r *accountRepo) GetByIDs(ctx context.Context, ids []int64) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1)
	`, ids)
	if err != nil {
		logger.Log.Error("failed to query accounts", zap.Error(err))
		return nil, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Log.Error("failed to close rows", zap.Error(err))
		}
	}(rows)

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.ClientID, &a.Name, &a.Currency, &a.FeePct, &a.Balance, &a.Status, &a.CanWithdraw, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *accountRepo) CanWithdraw(ctx context.Context, accountID int64) (bool, error) {
	var can bool
	err := r.db.QueryRowContext(ctx, `
		SELECT can_withdraw FROM accounts WHERE id = $1
	`, accountID).Scan(&can)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return false, err
	}
	return can, nil
}

func creditAccountTx(ctx context.Context, tx *sql.Tx, accountID int64, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + $1 WHERE id = $2
	`, amount, accountID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

func debitAccountTx(ctx context.Context, tx *sql.Tx, accountID int64, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - $1 WHERE id = $2 AND balance >= $1
	`, amount, accountID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrInsufficientBalance
	}
	return nil
}

// setGateTx opens or closes the per-account withdrawal gate.
func setGateTx(ctx context.Context, tx *sql.Tx, accountID int64, open bool) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts SET can_withdraw = $1 WHERE id = $2
	`, open, accountID)
	return err
}
