package service

import (
	"context"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/models"
	"github.com/adpanel/walletcore/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type HistoryService interface {
	Query(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryEntry, int, error)
}

type historyService struct {
	repo repository.HistoryRepository
}

func NewHistoryService(repo repository.HistoryRepository) HistoryService {
	return &historyService{repo: repo}
}

func (s *historyService) Query(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryEntry, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	if filter.Status != nil {
		switch *filter.Status {
		case models.ActionStatusApproved, models.ActionStatusRejected, models.TopUpStatusCompleted:
		default:
			return nil, 0, apperrors.ErrInvalidRequest
		}
	}

	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, apperrors.ErrInvalidRequest
	}

	return s.repo.Query(ctx, filter)
}
