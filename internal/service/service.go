package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tokokita/backend/internal/cache"
	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/store"
	"tokokita/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo     store.Repository
	alerts   cache.AlertCache
	alertTTL time.Duration
	loc      *time.Location
	locks    *productLocks
}

func New(repo store.Repository, alerts cache.AlertCache, loc *time.Location, alertTTL time.Duration) *Service {
	if alerts == nil {
		alerts = cache.NoopAlertCache{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if alertTTL <= 0 {
		alertTTL = 30 * time.Second
	}

	return &Service{
		repo:     repo,
		alerts:   alerts,
		alertTTL: alertTTL,
		loc:      loc,
		locks:    newProductLocks(),
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: product id required", store.ErrInvalidInput)
	}
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("%w: admin role required", store.ErrForbidden)
	}

	req.Name = strings.TrimSpace(req.Name)
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Category == "" {
		return domain.Product{}, fmt.Errorf("%w: name and category are required", store.ErrInvalidInput)
	}
	if req.MinStock < 0 || req.ReorderLevel < 0 {
		return domain.Product{}, fmt.Errorf("%w: thresholds must not be negative", store.ErrInvalidInput)
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:           xid.New("prod"),
		Name:         req.Name,
		SKU:          req.SKU,
		Category:     req.Category,
		ImageURL:     strings.TrimSpace(req.ImageURL),
		HasVariants:  req.HasVariants,
		MinStock:     req.MinStock,
		ReorderLevel: req.ReorderLevel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if req.HasVariants {
		if len(req.Sizes) == 0 {
			return domain.Product{}, fmt.Errorf("%w: variant product needs at least one size", store.ErrInvalidInput)
		}
		seen := make(map[string]struct{}, len(req.Sizes))
		for _, payload := range req.Sizes {
			variant, err := variantFromPayload(payload)
			if err != nil {
				return domain.Product{}, err
			}
			if _, dup := seen[variant.Size]; dup {
				return domain.Product{}, fmt.Errorf("%w: duplicate size %q", store.ErrInvalidInput, variant.Size)
			}
			seen[variant.Size] = struct{}{}
			product.Sizes = append(product.Sizes, variant)
		}
	} else {
		if err := validatePrices(req.SellingPriceCents, req.CostPriceCents, req.DiscountCents); err != nil {
			return domain.Product{}, err
		}
		if req.Stock < 0 {
			return domain.Product{}, fmt.Errorf("%w: stock must not be negative", store.ErrInvalidInput)
		}
		product.CostPriceCents = req.CostPriceCents
		product.SellingPriceCents = req.SellingPriceCents
		product.DiscountCents = req.DiscountCents
		product.Stock = req.Stock
	}

	product.Recompute()
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	if created.TotalStock > 0 {
		s.appendMovement(ctx, domain.StockMovement{
			ID:          xid.New("mv"),
			ProductID:   created.ID,
			ProductName: created.Name,
			Type:        domain.MovementAdd,
			Quantity:    created.TotalStock,
			Note:        "initial stock",
			TotalStock:  created.TotalStock,
			CreatedAt:   now,
		})
	}
	s.invalidateAlerts(ctx)

	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("%w: admin role required", store.ErrForbidden)
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: product id required", store.ErrInvalidInput)
	}

	unlock := s.locks.lock(id)
	defer unlock()

	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("%w: name must not be empty", store.ErrInvalidInput)
		}
		updated.Name = name
	}
	if req.SKU != nil {
		updated.SKU = strings.ToUpper(strings.TrimSpace(*req.SKU))
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return domain.Product{}, fmt.Errorf("%w: category must not be empty", store.ErrInvalidInput)
		}
		updated.Category = category
	}
	if req.ImageURL != nil {
		updated.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.MinStock != nil {
		if *req.MinStock < 0 {
			return domain.Product{}, fmt.Errorf("%w: min stock must not be negative", store.ErrInvalidInput)
		}
		updated.MinStock = *req.MinStock
	}
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			return domain.Product{}, fmt.Errorf("%w: reorder level must not be negative", store.ErrInvalidInput)
		}
		updated.ReorderLevel = *req.ReorderLevel
	}

	if updated.HasVariants {
		if req.CostPriceCents != nil || req.SellingPriceCents != nil || req.DiscountCents != nil {
			return domain.Product{}, fmt.Errorf("%w: variant product prices are set per size", store.ErrInvalidInput)
		}
		// Size payloads reprice existing variants; stock stays under the
		// stock-modification endpoint.
		for _, payload := range req.Sizes {
			size := strings.TrimSpace(payload.Size)
			idx := -1
			for i := range updated.Sizes {
				if updated.Sizes[i].Size == size {
					idx = i
					break
				}
			}
			if idx < 0 {
				return domain.Product{}, fmt.Errorf("%w: variant %q", store.ErrNotFound, size)
			}
			if err := validatePrices(payload.SellingPriceCents, payload.CostPriceCents, payload.DiscountCents); err != nil {
				return domain.Product{}, err
			}
			if payload.MinStock < 0 {
				return domain.Product{}, fmt.Errorf("%w: min stock must not be negative", store.ErrInvalidInput)
			}
			updated.Sizes[idx].SKU = strings.ToUpper(strings.TrimSpace(payload.SKU))
			updated.Sizes[idx].CostPriceCents = payload.CostPriceCents
			updated.Sizes[idx].SellingPriceCents = payload.SellingPriceCents
			updated.Sizes[idx].DiscountCents = payload.DiscountCents
			updated.Sizes[idx].MinStock = payload.MinStock
		}
	} else {
		if len(req.Sizes) > 0 {
			return domain.Product{}, fmt.Errorf("%w: simple product has no sizes", store.ErrInvalidInput)
		}
		if req.CostPriceCents != nil {
			updated.CostPriceCents = *req.CostPriceCents
		}
		if req.SellingPriceCents != nil {
			updated.SellingPriceCents = *req.SellingPriceCents
		}
		if req.DiscountCents != nil {
			updated.DiscountCents = *req.DiscountCents
		}
		if err := validatePrices(updated.SellingPriceCents, updated.CostPriceCents, updated.DiscountCents); err != nil {
			return domain.Product{}, err
		}
	}

	updated.Recompute()
	updated.UpdatedAt = time.Now().UTC()
	saved, err := s.repo.SaveProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateAlerts(ctx)
	return *saved, nil
}

// DeleteProduct removes the product document. Historical sales keep their
// denormalized product name and a dangling product id; cancelling such a
// sale fails because the stock can no longer be restored.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("%w: admin role required", store.ErrForbidden)
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: product id required", store.ErrInvalidInput)
	}

	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateAlerts(ctx)
	return nil
}

func variantFromPayload(payload domain.VariantPayload) (domain.Variant, error) {
	size := strings.TrimSpace(payload.Size)
	if size == "" {
		return domain.Variant{}, fmt.Errorf("%w: variant size label required", store.ErrInvalidInput)
	}
	if err := validatePrices(payload.SellingPriceCents, payload.CostPriceCents, payload.DiscountCents); err != nil {
		return domain.Variant{}, err
	}
	if payload.Stock < 0 || payload.MinStock < 0 {
		return domain.Variant{}, fmt.Errorf("%w: variant %q stock must not be negative", store.ErrInvalidInput, size)
	}

	return domain.Variant{
		Size:              size,
		SKU:               strings.ToUpper(strings.TrimSpace(payload.SKU)),
		CostPriceCents:    payload.CostPriceCents,
		SellingPriceCents: payload.SellingPriceCents,
		DiscountCents:     payload.DiscountCents,
		Stock:             payload.Stock,
		MinStock:          payload.MinStock,
	}, nil
}

func validatePrices(sellingCents int64, costCents int64, discountCents int64) error {
	if sellingCents < 1 {
		return fmt.Errorf("%w: selling price must be positive", store.ErrInvalidInput)
	}
	if costCents < 0 || discountCents < 0 {
		return fmt.Errorf("%w: cost and discount must not be negative", store.ErrInvalidInput)
	}
	if discountCents > sellingCents {
		return fmt.Errorf("%w: discount exceeds selling price", store.ErrInvalidInput)
	}
	return nil
}
