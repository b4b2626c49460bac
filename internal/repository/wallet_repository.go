package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/logger"
	"github.com/adpanel/walletcore/internal/models"
)

type WalletRepository interface {
	GetSnapshot(ctx context.Context, clientID int64) (models.BalanceSnapshot, error)
	EnsureWallet(ctx context.Context, clientID int64) error
}

type walletRepo struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) WalletRepository {
	return &walletRepo{db: db}
}

var bucketColumns = map[models.Bucket]struct {
	available string
	pending   string
}{
	models.BucketMainLocal:       {"main_local_available", "main_local_pending"},
	models.BucketMainUSD:         {"main_usd_available", "main_usd_pending"},
	models.BucketWithdrawalLocal: {"withdrawal_local_available", "withdrawal_local_pending"},
	models.BucketWithdrawalUSD:   {"withdrawal_usd_available", "withdrawal_usd_pending"},
}

func (r *walletRepo) EnsureWallet(ctx context.Context, clientID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (client_id) VALUES ($1)
		ON CONFLICT (client_id) DO NOTHING
	`, clientID)
	return err
}

func (r *walletRepo) GetSnapshot(ctx context.Context, clientID int64) (models.BalanceSnapshot, error) {
	return snapshotQuerier(ctx, r.db, clientID)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func snapshotQuerier(ctx context.Context, q querier, clientID int64) (models.BalanceSnapshot, error) {
	var s models.BalanceSnapshot
	query := `
		SELECT client_id,
		       main_local_available, main_local_pending,
		       main_usd_available, main_usd_pending,
		       withdrawal_local_available, withdrawal_local_pending,
		       withdrawal_usd_available, withdrawal_usd_pending
		FROM wallets WHERE client_id = $1
	`
	err := q.QueryRowContext(ctx, query, clientID).Scan(
		&s.ClientID,
		&s.MainLocal.Available, &s.MainLocal.Pending,
		&s.MainUSD.Available, &s.MainUSD.Pending,
		&s.WithdrawalLocal.Available, &s.WithdrawalLocal.Pending,
		&s.WithdrawalUSD.Available, &s.WithdrawalUSD.Pending,
	)
	if err == sql.ErrNoRows {
		return models.BalanceSnapshot{ClientID: clientID, TakenAt: time.Now()}, nil
	}
	if err != nil {
		logger.Log.Error("failed to get wallet snapshot", zap.Error(err))
		return models.BalanceSnapshot{}, err
	}
	s.TakenAt = time.Now()
	return s, nil
}

// lockWalletTx takes the wallet row lock that serializes every balance
// mutation for one client.
func lockWalletTx(ctx context.Context, tx *sql.Tx, clientID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (client_id) VALUES ($1)
		ON CONFLICT (client_id) DO NOTHING
	`, clientID)
	if err != nil {
		return err
	}
	var id int64
	return tx.QueryRowContext(ctx, `
		SELECT client_id FROM wallets WHERE client_id = $1 FOR UPDATE
	`, clientID).Scan(&id)
}

func creditBucketTx(ctx context.Context, tx *sql.Tx, clientID int64, bucket models.Bucket, amount decimal.Decimal) error {
	cols, ok := bucketColumns[bucket]
	if !ok {
		return fmt.Errorf("unknown bucket %q", bucket)
	}
	query := fmt.Sprintf(`
		UPDATE wallets
		SET %s = %s + $1, updated_at = now()
		WHERE client_id = $2
	`, cols.available, cols.available)
	_, err := tx.ExecContext(ctx, query, amount, clientID)
	return err
}

// holdBucketTx earmarks funds for an in-flight action by moving them from
// available into pending. Guarded holds only apply while the available
// balance covers the amount; unguarded holds may drive available negative.
func holdBucketTx(ctx context.Context, tx *sql.Tx, clientID int64, bucket models.Bucket, amount decimal.Decimal, guarded bool) error {
	cols, ok := bucketColumns[bucket]
	if !ok {
		return fmt.Errorf("unknown bucket %q", bucket)
	}

	var query string
	if guarded {
		query = fmt.Sprintf(`
			UPDATE wallets
			SET %s = %s - $1, %s = %s + $1, updated_at = now()
			WHERE client_id = $2 AND %s >= $1
		`, cols.available, cols.available, cols.pending, cols.pending, cols.available)
	} else {
		query = fmt.Sprintf(`
			UPDATE wallets
			SET %s = %s - $1, %s = %s + $1, updated_at = now()
			WHERE client_id = $2
		`, cols.available, cols.available, cols.pending, cols.pending)
	}

	res, err := tx.ExecContext(ctx, query, amount, clientID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if guarded {
			return apperrors.ErrInsufficientBalance
		}
		return apperrors.ErrClientNotFound
	}
	return nil
}

// releaseBucketTx returns an earmark to available when the action resolves
// without consuming it.
func releaseBucketTx(ctx context.Context, tx *sql.Tx, clientID int64, bucket models.Bucket, amount decimal.Decimal) error {
	cols, ok := bucketColumns[bucket]
	if !ok {
		return fmt.Errorf("unknown bucket %q", bucket)
	}
	query := fmt.Sprintf(`
		UPDATE wallets
		SET %s = %s + $1, %s = %s - $1, updated_at = now()
		WHERE client_id = $2
	`, cols.available, cols.available, cols.pending, cols.pending)
	_, err := tx.ExecContext(ctx, query, amount, clientID)
	return err
}

// consumePendingTx settles an earmark: the held funds leave the wallet. Every
// hold adds exactly the action amount to pending, so a miss here means the
// earmark is gone.
func consumePendingTx(ctx context.Context, tx *sql.Tx, clientID int64, bucket models.Bucket, amount decimal.Decimal) error {
	cols, ok := bucketColumns[bucket]
	if !ok {
		return fmt.Errorf("unknown bucket %q", bucket)
	}
	query := fmt.Sprintf(`
		UPDATE wallets
		SET %s = %s - $1, updated_at = now()
		WHERE client_id = $2 AND %s >= $1
	`, cols.pending, cols.pending, cols.pending)
	res, err := tx.ExecContext(ctx, query, amount, clientID)
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

