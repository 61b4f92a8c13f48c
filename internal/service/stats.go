package service

import (
	"context"
	"fmt"

	"github.com/flicky/marketplace-api/internal/model"
)

// StatsReader reads the per-seller counters kept by the order worker.
type StatsReader interface {
	Get(ctx context.Context, sellerID int64) (*model.SellerStats, error)
}

type StatsService struct {
	stats StatsReader
}

func NewStatsService(stats StatsReader) *StatsService {
	return &StatsService{stats: stats}
}

func (s *StatsService) ForSeller(ctx context.Context, sellerID int64) (*model.SellerStats, error) {
	stats, err := s.stats.Get(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("get seller stats: %w", err)
	}
	return stats, nil
}
