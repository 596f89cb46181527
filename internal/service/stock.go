package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/store"
	"tokokita/backend/internal/xid"
)

// productLocks serializes stock mutations per product id so that the
// read-check-write sequence inside a mutation cannot interleave with a
// concurrent one for the same product.
type productLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProductLocks() *productLocks {
	return &productLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *productLocks) lock(productID string) func() {
	l.mu.Lock()
	m, ok := l.locks[productID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[productID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// applyStockDelta mutates one stock bucket of the product, saves the product
// and appends the audit movement. Callers must hold the product lock. The
// returned product reflects the persisted state.
//
// Movement append happens after the product save. If the append fails the
// stock change stands and the gap is logged; the movement log is advisory,
// the product document is the source of truth.
func (s *Service) applyStockDelta(ctx context.Context, product *domain.Product, variantSize string, delta int, movementType string, note string) (*domain.Product, *domain.StockMovement, error) {
	ref, ok := product.StockRef(variantSize)
	if !ok {
		return nil, nil, fmt.Errorf("%w: variant %q of product %s", store.ErrNotFound, variantSize, product.ID)
	}

	next := *ref.Stock + delta
	if next < 0 {
		return nil, nil, fmt.Errorf("%w: %s has %d left, need %d", store.ErrInsufficientStock, ref.Label, *ref.Stock, -delta)
	}
	*ref.Stock = next

	now := time.Now().UTC()
	switch movementType {
	case domain.MovementSale, domain.MovementDelivery:
		*ref.TotalSold += -delta
		*ref.LastSoldAt = &now
	case domain.MovementCancelSale:
		*ref.TotalSold -= delta
		if *ref.TotalSold < 0 {
			*ref.TotalSold = 0
		}
	}

	product.Recompute()
	product.UpdatedAt = now

	saved, err := s.repo.SaveProduct(ctx, *product)
	if err != nil {
		return nil, nil, err
	}

	movement := domain.StockMovement{
		ID:          xid.New("mv"),
		ProductID:   saved.ID,
		ProductName: saved.Name,
		VariantSize: ref.VariantSize,
		Type:        movementType,
		Quantity:    abs(delta),
		Note:        note,
		TotalStock:  saved.TotalStock,
		CreatedAt:   now,
	}
	s.appendMovement(ctx, movement)
	s.invalidateAlerts(ctx)

	return saved, &movement, nil
}

// ModifyStock applies a manual correction in either direction. Corrections
// are recorded as "add" movements with the magnitude as quantity; restocks
// and shrinkage corrections share the type and are told apart by the note.
func (s *Service) ModifyStock(ctx context.Context, req domain.StockModifyRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("%w: admin role required", store.ErrForbidden)
	}

	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id required", store.ErrInvalidInput)
	}
	if req.Delta == 0 {
		return domain.Product{}, fmt.Errorf("%w: delta must not be zero", store.ErrInvalidInput)
	}

	note := strings.TrimSpace(req.Note)
	if note == "" {
		if req.Delta > 0 {
			note = "manual restock"
		} else {
			note = "manual stock reduction"
		}
	}

	unlock := s.locks.lock(req.ProductID)
	defer unlock()

	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return domain.Product{}, err
	}

	saved, _, err := s.applyStockDelta(ctx, product, req.VariantSize, req.Delta, domain.MovementAdd, note)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

func (s *Service) ListStockMovements(ctx context.Context, movementType string, limit int) ([]domain.StockMovement, error) {
	switch movementType {
	case "", domain.MovementAdd, domain.MovementSale, domain.MovementCancelSale, domain.MovementDelivery:
	default:
		return nil, fmt.Errorf("%w: unknown movement type %q", store.ErrInvalidInput, movementType)
	}
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListStockMovements(ctx, movementType, limit)
}

func (s *Service) appendMovement(ctx context.Context, movement domain.StockMovement) {
	if err := s.repo.AppendStockMovement(ctx, movement); err != nil {
		log.Printf("[stock] WARN: movement append failed for product %s (%s %d): %v", movement.ProductID, movement.Type, movement.Quantity, err)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
