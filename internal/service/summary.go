package service

import (
	"context"
	"log"
	"time"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/lowstock"
	"tokokita/backend/internal/summary"
)

const alertCacheKey = "alerts:lowstock"

func (s *Service) DailySummary(ctx context.Context) (summary.DailySummary, error) {
	now := time.Now().In(s.loc)
	from, to := summary.DayWindow(now)

	sales, err := s.repo.ListSalesBetween(ctx, from, to)
	if err != nil {
		return summary.DailySummary{}, err
	}
	return summary.BuildDaily(sales, now), nil
}

func (s *Service) WeeklySummary(ctx context.Context) (summary.WeeklySummary, error) {
	now := time.Now().In(s.loc)
	from, to := summary.WeekWindow(now)

	sales, err := s.repo.ListSalesBetween(ctx, from, to)
	if err != nil {
		return summary.WeeklySummary{}, err
	}

	imageFor, err := s.productImageIndex(ctx)
	if err != nil {
		return summary.WeeklySummary{}, err
	}
	return summary.BuildWeekly(sales, now, imageFor), nil
}

func (s *Service) MonthlySummary(ctx context.Context) (summary.MonthlySummary, error) {
	now := time.Now().In(s.loc)
	from, to := summary.MonthWindow(now)

	sales, err := s.repo.ListSalesBetween(ctx, from, to)
	if err != nil {
		return summary.MonthlySummary{}, err
	}
	return summary.BuildMonthly(sales, now), nil
}

// YearlySummary reports the given year; zero means the current year.
func (s *Service) YearlySummary(ctx context.Context, year int) (summary.YearlySummary, error) {
	if year <= 0 {
		year = time.Now().In(s.loc).Year()
	}
	from, to := summary.YearWindow(year, s.loc)

	sales, err := s.repo.ListSalesBetween(ctx, from, to)
	if err != nil {
		return summary.YearlySummary{}, err
	}
	return summary.BuildYearly(sales, year, s.loc), nil
}

// LowStockAlerts serves the global alert feed, cached briefly because the
// dashboard polls it. Cache trouble degrades to a direct recompute.
func (s *Service) LowStockAlerts(ctx context.Context) ([]domain.LowStockAlert, error) {
	cached, hit, err := s.alerts.Get(ctx, alertCacheKey)
	if err != nil {
		log.Printf("[alerts] WARN: cache read failed: %v", err)
	} else if hit {
		return cached, nil
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	alerts := lowstock.EvaluateAll(products)
	if err := s.alerts.Set(ctx, alertCacheKey, alerts, s.alertTTL); err != nil {
		log.Printf("[alerts] WARN: cache write failed: %v", err)
	}
	return alerts, nil
}

func (s *Service) invalidateAlerts(ctx context.Context) {
	if err := s.alerts.Invalidate(ctx, alertCacheKey); err != nil {
		log.Printf("[alerts] WARN: cache invalidation failed: %v", err)
	}
}

func (s *Service) productImageIndex(ctx context.Context) (func(productID string) string, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	images := make(map[string]string, len(products))
	for _, p := range products {
		images[p.ID] = p.ImageURL
	}
	return func(productID string) string { return images[productID] }, nil
}
