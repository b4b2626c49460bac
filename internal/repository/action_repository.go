package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/logger"
	"github.com/adpanel/walletcore/internal/models"
)

type ActionRepository interface {
	Create(ctx context.Context, action models.AdminAction) error
	GetByID(ctx context.Context, id string) (models.AdminAction, error)
	List(ctx context.Context, status string, clientID *int64) ([]models.AdminAction, error)
	Approve(ctx context.Context, actionID string, approverID int64, notes string) (models.BalanceSnapshot, error)
	Reject(ctx context.Context, actionID string, approverID int64, notes string) error
}

type actionRepo struct {
	db *sql.DB
}

func NewActionRepository(db *sql.DB) ActionRepository {
	return &actionRepo{db: db}
}

const actionColumns = `id, type, client_id, proposer_id, amount, currency, account_id, target_id,
	attachments, notes, status, approver_id, approval_notes, created_at, resolved_at`

// walletHold reports whether a pending action of this variant earmarks wallet
// funds, and from which bucket. Transfer holds are guarded; deductions may
// drive the available balance negative.
func walletHold(action models.AdminAction) (models.Bucket, bool, bool) {
	switch action.Type {
	case models.ActionTransferToAcct:
		return models.MainBucket(action.Currency), true, true
	case models.ActionWalletDeduction:
		return models.MainBucket(action.Currency), false, true
	}
	return "", false, false
}

func (r *actionRepo) Create(ctx context.Context, action models.AdminAction) error {
	attachments, err := json.Marshal(action.Attachments)
	if err != nil {
		return err
	}

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

	if bucket, guarded, ok := walletHold(action); ok {
		if err := lockWalletTx(ctx, tx, action.ClientID); err != nil {
			return err
		}
		if err := holdBucketTx(ctx, tx, action.ClientID, bucket, action.Amount, guarded); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO admin_actions (id, type, client_id, proposer_id, amount, currency, account_id, target_id, attachments, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, action.ID, action.Type, action.ClientID, action.ProposerID, action.Amount, action.Currency,
		action.AccountID, action.TargetID, attachments, action.Notes, action.Status, action.CreatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func scanAction(scan func(dest ...any) error) (models.AdminAction, error) {
	var (
		a   models.AdminAction
		raw []byte
	)
	err := scan(&a.ID, &a.Type, &a.ClientID, &a.ProposerID, &a.Amount, &a.Currency, &a.AccountID,
		&a.TargetID, &raw, &a.Notes, &a.Status, &a.ApproverID, &a.ApprovalNotes, &a.CreatedAt, &a.ResolvedAt)
	if err != nil {
		return models.AdminAction{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &a.Attachments); err != nil {
			return models.AdminAction{}, err
		}
	}
	return a, nil
}

func (r *actionRepo) GetByID(ctx context.Context, id string) (models.AdminAction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM admin_actions WHERE id = $1`, id)
	action, err := scanAction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AdminAction{}, apperrors.ErrActionNotFound
	}
	if err != nil {
		logger.Log.Error("failed to get action", zap.String("action_id", id), zap.Error(err))
		return models.AdminAction{}, err
	}
	return action, nil
}

func (r *actionRepo) List(ctx context.Context, status string, clientID *int64) ([]models.AdminAction, error) {
	query := `SELECT ` + actionColumns + ` FROM admin_actions WHERE status = $1`
	args := []any{status}
	if clientID != nil {
		query += ` AND client_id = $2`
		args = append(args, *clientID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Log.Error("failed to list actions", zap.Error(err))
		return nil, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Log.Error("failed to close rows", zap.Error(err))
		}
	}(rows)

	var actions []models.AdminAction
	for rows.Next() {
		action, err := scanAction(rows.Scan)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

// lockPendingAction loads the action under a row lock and enforces the
// single-shot transition and two-phase separation before anything is written.
func lockPendingAction(ctx context.Context, tx *sql.Tx, actionID string, approverID int64) (models.AdminAction, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM admin_actions WHERE id = $1 FOR UPDATE`, actionID)
	action, err := scanAction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AdminAction{}, apperrors.ErrActionNotFound
	}
	if err != nil {
		return models.AdminAction{}, err
	}
	if action.Status != models.ActionStatusPending {
		return models.AdminAction{}, apperrors.ErrAlreadyResolved
	}
	if action.ProposerID == approverID {
		return models.AdminAction{}, apperrors.ErrSelfApproval
	}
	return action, nil
}

func (r *actionRepo) Approve(ctx context.Context, actionID string, approverID int64, notes string) (models.BalanceSnapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.BalanceSnapshot{}, err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Log.Error("rollback error", zap.Error(rbErr))
			}
		}
	}()

	action, err := lockPendingAction(ctx, tx, actionID, approverID)
	if err != nil {
		return models.BalanceSnapshot{}, err
	}

	now := time.Now()
	if action.Type.Monetary() {
		if err := lockWalletTx(ctx, tx, action.ClientID); err != nil {
			return models.BalanceSnapshot{}, err
		}
	}

	if err := applyApprovalTx(ctx, tx, action); err != nil {
		return models.BalanceSnapshot{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE admin_actions
		SET status = 'approved', approver_id = $1, approval_notes = $2, resolved_at = $3
		WHERE id = $4 AND status = 'pending'
	`, approverID, notes, now, actionID); err != nil {
		return models.BalanceSnapshot{}, err
	}

	if err := insertHistoryTx(ctx, tx, models.HistoryEntry{
		ID:        uuid.NewString(),
		ClientID:  action.ClientID,
		Kind:      models.HistoryKindAction,
		RefID:     action.ID,
		Type:      string(action.Type),
		Status:    models.ActionStatusApproved,
		Amount:    action.Amount,
		Currency:  action.Currency,
		Notes:     notes,
		SettledAt: now,
	}); err != nil {
		return models.BalanceSnapshot{}, err
	}

	snapshot, err := snapshotQuerier(ctx, tx, action.ClientID)
	if err != nil {
		return models.BalanceSnapshot{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.BalanceSnapshot{}, err
	}
	committed = true
	return snapshot, nil
}

// applyApprovalTx performs the balance mutation for one approved variant.
func applyApprovalTx(ctx context.Context, tx *sql.Tx, action models.AdminAction) error {
	switch action.Type {
	case models.ActionTopUpWallet:
		return creditBucketTx(ctx, tx, action.ClientID, models.MainBucket(action.Currency), action.Amount)

	case models.ActionWithdrawAccount:
		if action.AccountID == nil {
			return apperrors.ErrInvalidRequest
		}
		if err := debitAccountTx(ctx, tx, *action.AccountID, action.Amount); err != nil {
			return err
		}
		if err := creditBucketTx(ctx, tx, action.ClientID, models.WithdrawalBucket(action.Currency), action.Amount); err != nil {
			return err
		}
		if err := setGateTx(ctx, tx, *action.AccountID, false); err != nil {
			return err
		}
		if action.TargetID != nil {
			if _, err := tx.ExecContext(ctx, `
				UPDATE withdrawals SET status = 'completed', updated_at = now()
				WHERE id = $1 AND status = 'processing'
			`, *action.TargetID); err != nil {
				return err
			}
		}
		return nil

	case models.ActionTransferToAcct:
		if action.AccountID == nil {
			return apperrors.ErrInvalidRequest
		}
		// The funds were earmarked when the action was proposed.
		if err := consumePendingTx(ctx, tx, action.ClientID, models.MainBucket(action.Currency), action.Amount); err != nil {
			return err
		}
		return creditAccountTx(ctx, tx, *action.AccountID, action.Amount)

	case models.ActionWalletDeduction:
		return consumePendingTx(ctx, tx, action.ClientID, models.MainBucket(action.Currency), action.Amount)

	case models.ActionProofEdit:
		if action.TargetID == nil || len(action.Attachments) == 0 {
			return apperrors.ErrInvalidRequest
		}
		raw, err := json.Marshal(action.Attachments)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE admin_actions SET attachments = $1 WHERE id = $2
		`, raw, *action.TargetID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			// Not an action id; try the withdrawal proof.
			res, err = tx.ExecContext(ctx, `
				UPDATE withdrawals SET proof_ref = $1, updated_at = now() WHERE id = $2
			`, action.Attachments[0], *action.TargetID)
			if err != nil {
				return err
			}
			affected, err = res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return apperrors.ErrActionNotFound
			}
		}
		return nil

	default:
		return apperrors.ErrInvalidRequest
	}
}

func (r *actionRepo) Reject(ctx context.Context, actionID string, approverID int64, notes string) error {
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

	action, err := lockPendingAction(ctx, tx, actionID, approverID)
	if err != nil {
		return err
	}

	now := time.Now()
	if bucket, _, ok := walletHold(action); ok {
		if err := lockWalletTx(ctx, tx, action.ClientID); err != nil {
			return err
		}
		if err := releaseBucketTx(ctx, tx, action.ClientID, bucket, action.Amount); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE admin_actions
		SET status = 'rejected', approver_id = $1, approval_notes = $2, resolved_at = $3
		WHERE id = $4 AND status = 'pending'
	`, approverID, notes, now, actionID); err != nil {
		return err
	}

	if action.TargetID != nil && action.Type == models.ActionWithdrawAccount {
		if _, err := tx.ExecContext(ctx, `
			UPDATE withdrawals SET status = 'rejected', reject_reason = $1, updated_at = now()
			WHERE id = $2 AND status IN ('pending', 'processing')
		`, notes, *action.TargetID); err != nil {
			return err
		}
	}

	if err := insertHistoryTx(ctx, tx, models.HistoryEntry{
		ID:        uuid.NewString(),
		ClientID:  action.ClientID,
		Kind:      models.HistoryKindAction,
		RefID:     action.ID,
		Type:      string(action.Type),
		Status:    models.ActionStatusRejected,
		Amount:    action.Amount,
		Currency:  action.Currency,
		Notes:     notes,
		SettledAt: now,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
