package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/models"
)

type ClientRepository interface {
	GetByID(ctx context.Context, id int64) (models.Client, error)
}

type clientRepo struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) GetByID(ctx context.Context, id int64) (models.Client, error) {
	var c models.Client
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, active FROM clients WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Client{}, apperrors.ErrClientNotFound
	}
	if err != nil {
		return models.Client{}, err
	}
	return c, nil
}
