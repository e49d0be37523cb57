package transaction

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service serves the parent's transaction history.
type Service struct {
	repo   Repository
	cache  Cache
	logger *zap.Logger
}

// NewService creates a new transaction service.
func NewService(repo Repository, cache Cache, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// List returns the parent's settled transactions, newest first.
func (s *Service) List(ctx context.Context, parentID uuid.UUID) ([]*Transaction, error) {
	if txs, ok := s.cache.Get(ctx, parentID); ok {
		return txs, nil
	}

	txs, err := s.repo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].SettledAt.After(txs[j].SettledAt)
	})

	s.cache.Set(ctx, parentID, txs)
	return txs, nil
}

// InvalidateFor drops the cached history for a parent.
func (s *Service) InvalidateFor(ctx context.Context, parentID uuid.UUID) {
	s.cache.Invalidate(ctx, parentID)
}
