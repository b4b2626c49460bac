package service

import (
	"context"

	"github.com/adpanel/walletcore/internal/models"
	"github.com/adpanel/walletcore/internal/repository"
)

type WalletService interface {
	GetSnapshot(ctx context.Context, clientID int64) (models.BalanceSnapshot, error)
}

type walletService struct {
	repo repository.WalletRepository
}

func NewWalletService(repo repository.WalletRepository) WalletService {
	return &walletService{repo: repo}
}

func (s *walletService) GetSnapshot(ctx context.Context, clientID int64) (models.BalanceSnapshot, error) {
	return s.repo.GetSnapshot(ctx, clientID)
}
