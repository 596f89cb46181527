package cache

import (
	"context"
	"time"

	"tokokita/backend/internal/domain"
)

// AlertCache briefly holds the global low-stock alert feed for dashboards.
// It is an ephemeral cache, not alert persistence: every stock mutation
// invalidates it and the feed is recomputed on the next read.
type AlertCache interface {
	Get(ctx context.Context, key string) ([]domain.LowStockAlert, bool, error)
	Set(ctx context.Context, key string, alerts []domain.LowStockAlert, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopAlertCache struct{}

func (NoopAlertCache) Get(_ context.Context, _ string) ([]domain.LowStockAlert, bool, error) {
	return nil, false, nil
}

func (NoopAlertCache) Set(_ context.Context, _ string, _ []domain.LowStockAlert, _ time.Duration) error {
	return nil
}

func (NoopAlertCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
