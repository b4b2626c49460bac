package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpanel/walletcore/internal/models"
)

func historyRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "client_id", "kind", "ref_id", "type", "status", "amount", "currency", "notes", "settled_at",
	})
	for _, id := range ids {
		rows.AddRow(id, int64(1), models.HistoryKindAction, "ref-"+id, "topup_wallet",
			models.ActionStatusApproved, "50000", "IRR", "", time.Now())
	}
	return rows
}

func TestHistoryRepo_Query(t *testing.T) {
	ctx := context.Background()

	t.Run("page two of ten maps to limit 10 offset 10 with the full total", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		clientID := int64(1)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM history_entries WHERE client_id = $1`)).
			WithArgs(clientID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY settled_at DESC`)).
			WithArgs(clientID, 10, 10).
			WillReturnRows(historyRows("h11", "h12", "h13", "h14", "h15", "h16", "h17", "h18", "h19", "h20"))

		r := NewHistoryRepository(db)
		entries, total, err := r.Query(ctx, models.HistoryFilter{
			ClientID: &clientID,
			Page:     2,
			PageSize: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, 25, total)
		require.Len(t, entries, 10)
		assert.Equal(t, "h11", entries[0].ID)
		assert.Equal(t, "h20", entries[9].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("status and date range become numbered placeholders", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		clientID := int64(1)
		status := models.ActionStatusRejected
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE client_id = $1 AND status = $2 AND settled_at >= $3 AND settled_at <= $4`)).
			WithArgs(clientID, status, from, to).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $5 OFFSET $6`)).
			WithArgs(clientID, status, from, to, 20, 0).
			WillReturnRows(historyRows("h1"))

		r := NewHistoryRepository(db)
		entries, total, err := r.Query(ctx, models.HistoryFilter{
			ClientID: &clientID,
			Status:   &status,
			From:     &from,
			To:       &to,
			Page:     1,
			PageSize: 20,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, entries, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no filters query the whole table", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM history_entries`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $1 OFFSET $2`)).
			WithArgs(20, 0).
			WillReturnRows(historyRows())

		r := NewHistoryRepository(db)
		entries, total, err := r.Query(ctx, models.HistoryFilter{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
