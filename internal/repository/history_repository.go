package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/logger"
	"github.com/adpanel/walletcore/internal/models"
)

type HistoryRepository interface {
	Query(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryEntry, int, error)
}

type historyRepo struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepo{db: db}
}

// insertHistoryTx appends one entry inside the caller's transaction so the
// projection lands atomically with the settlement it records.
func insertHistoryTx(ctx context.Context, tx *sql.Tx, e models.HistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO history_entries (id, client_id, kind, ref_id, type, status, amount, currency, notes, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, e.ID, e.ClientID, e.Kind, e.RefID, e.Type, e.Status, e.Amount, e.Currency, e.Notes, e.SettledAt)
	return err
}

func (r *historyRepo) Query(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryEntry, int, error) {
	var (
		conds []string
		args  []any
	)

	addCond := func(expr string, value any) {
		args = append(args, value)
		conds = append(conds, strings.Replace(expr, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if filter.ClientID != nil {
		addCond("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		addCond("status = ?", *filter.Status)
	}
	if filter.From != nil {
		addCond("settled_at >= ?", *filter.From)
	}
	if filter.To != nil {
		addCond("settled_at <= ?", *filter.To)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history_entries`+where, args...).Scan(&total); err != nil {
		logger.Log.Error("failed to count history entries", zap.Error(err))
		return nil, 0, err
	}

	limitArgs := append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	query := `
		SELECT id, client_id, kind, ref_id, type, status, amount, currency, notes, settled_at
		FROM history_entries` + where + `
		ORDER BY settled_at DESC
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, limitArgs...)
	if err != nil {
		logger.Log.Error("failed to query history entries", zap.Error(err))
		return nil, 0, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Log.Error("failed to close rows", zap.Error(err))
		}
	}(rows)

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.ClientID, &e.Kind, &e.RefID, &e.Type, &e.Status, &e.Amount, &e.Currency, &e.Notes, &e.SettledAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
