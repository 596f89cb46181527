package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/lowstock"
	"tokokita/backend/internal/store"
	"tokokita/backend/internal/xid"
)

// CreateSale records an immediate sale: the stock decrement, the derived
// financials and the ledger entry are computed in one go under the product
// lock. The response carries any low-stock alerts the sale just triggered.
func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.SaleResponse, error) {
	if err := validateSaleRequest(req); err != nil {
		return domain.SaleResponse{}, err
	}

	unlock := s.locks.lock(req.ProductID)
	defer unlock()

	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	ref, ok := product.StockRef(req.VariantSize)
	if !ok {
		return domain.SaleResponse{}, fmt.Errorf("%w: variant %q of product %s", store.ErrNotFound, req.VariantSize, product.ID)
	}
	if req.DiscountCents > ref.SellingPriceCents {
		return domain.SaleResponse{}, fmt.Errorf("%w: discount exceeds unit price of %s", store.ErrInvalidInput, ref.Label)
	}
	if *ref.Stock < req.Quantity {
		return domain.SaleResponse{}, fmt.Errorf("%w: %s has %d left, need %d", store.ErrInsufficientStock, ref.Label, *ref.Stock, req.Quantity)
	}

	saleID := xid.New("sale")
	sale := buildSale(saleID, *product, ref, req.VariantSize, req.Quantity, req.DiscountCents)
	sale.Comment = strings.TrimSpace(req.Comment)
	sale.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	sale.ProofImageURL = strings.TrimSpace(req.ProofImageURL)

	updated, _, err := s.applyStockDelta(ctx, product, req.VariantSize, -req.Quantity, domain.MovementSale, "sale "+saleID)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	return domain.SaleResponse{
		Sale:   *created,
		Alerts: lowstock.Evaluate(*updated),
	}, nil
}

// CancelSale restores the sold quantity and zeroes the sale's financials so
// that summaries no longer see revenue from it. Cancellation is terminal.
// Reserved sales never took stock, so they cannot go through this path.
func (s *Service) CancelSale(ctx context.Context, saleID string) (domain.SaleResponse, error) {
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return domain.SaleResponse{}, fmt.Errorf("%w: sale id required", store.ErrInvalidInput)
	}

	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	unlock := s.locks.lock(sale.ProductID)
	defer unlock()

	// Re-read under the lock so a concurrent cancel of the same sale cannot
	// pass the status guard twice and restore the stock twice.
	sale, err = s.repo.GetSale(ctx, saleID)
	if err != nil {
		return domain.SaleResponse{}, err
	}
	if sale.Status == domain.SaleStatusCancelled {
		return domain.SaleResponse{}, fmt.Errorf("%w: %s", store.ErrAlreadyCancelled, saleID)
	}
	if sale.Status == domain.SaleStatusReserved {
		return domain.SaleResponse{}, fmt.Errorf("%w: reserved sale %s holds no stock to restore", store.ErrInvalidState, saleID)
	}

	product, err := s.repo.GetProduct(ctx, sale.ProductID)
	if err != nil {
		return domain.SaleResponse{}, fmt.Errorf("stock cannot be restored for sale %s: %w", saleID, err)
	}

	updated, _, err := s.applyStockDelta(ctx, product, sale.VariantSize, sale.Quantity, domain.MovementCancelSale, "cancel sale "+sale.ID)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	now := time.Now().UTC()
	cancelled := *sale
	cancelled.Status = domain.SaleStatusCancelled
	cancelled.FinalPriceCents = 0
	cancelled.ProfitCents = 0
	cancelled.TotalCostCents = 0
	cancelled.CancelledAt = &now

	saved, err := s.repo.SaveSale(ctx, cancelled)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	return domain.SaleResponse{
		Sale:   *saved,
		Alerts: lowstock.Evaluate(*updated),
	}, nil
}

// ReserveSale books a future delivery. Stock is validated but not taken;
// the decrement happens at delivery time against the stock of that moment.
func (s *Service) ReserveSale(ctx context.Context, req domain.ReserveSaleRequest) (domain.SaleResponse, error) {
	if err := validateSaleRequest(domain.SaleCreateRequest{
		ProductID:     req.ProductID,
		VariantSize:   req.VariantSize,
		Quantity:      req.Quantity,
		DiscountCents: req.DiscountCents,
	}); err != nil {
		return domain.SaleResponse{}, err
	}

	deliveryDate, err := parseDeliveryDate(req.DeliveryDate)
	if err != nil {
		return domain.SaleResponse{}, err
	}
	if !deliveryDate.After(time.Now()) {
		return domain.SaleResponse{}, fmt.Errorf("%w: delivery date must be in the future", store.ErrInvalidInput)
	}

	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	ref, ok := product.StockRef(req.VariantSize)
	if !ok {
		return domain.SaleResponse{}, fmt.Errorf("%w: variant %q of product %s", store.ErrNotFound, req.VariantSize, product.ID)
	}
	if req.DiscountCents > ref.SellingPriceCents {
		return domain.SaleResponse{}, fmt.Errorf("%w: discount exceeds unit price of %s", store.ErrInvalidInput, ref.Label)
	}
	if *ref.Stock < req.Quantity {
		return domain.SaleResponse{}, fmt.Errorf("%w: %s has %d left, need %d", store.ErrInsufficientStock, ref.Label, *ref.Stock, req.Quantity)
	}

	now := time.Now().UTC()
	sale := buildSale(xid.New("sale"), *product, ref, req.VariantSize, req.Quantity, req.DiscountCents)
	sale.Comment = strings.TrimSpace(req.Comment)
	sale.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	sale.Status = domain.SaleStatusReserved
	sale.IsReserved = true
	sale.ReservedAt = &now
	sale.DeliveryDate = &deliveryDate

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	return domain.SaleResponse{Sale: *created}, nil
}

// DeliverSale converts a reservation into a completed sale. Stock is
// re-validated at delivery time; a reservation does not survive the shelf
// running empty in the meantime.
func (s *Service) DeliverSale(ctx context.Context, saleID string) (domain.SaleResponse, error) {
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return domain.SaleResponse{}, fmt.Errorf("%w: sale id required", store.ErrInvalidInput)
	}

	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	unlock := s.locks.lock(sale.ProductID)
	defer unlock()

	// Re-read under the lock so two concurrent deliveries of the same
	// reservation cannot both decrement the stock.
	sale, err = s.repo.GetSale(ctx, saleID)
	if err != nil {
		return domain.SaleResponse{}, err
	}
	if sale.Status != domain.SaleStatusReserved {
		return domain.SaleResponse{}, fmt.Errorf("%w: sale %s is %s, not reserved", store.ErrInvalidState, saleID, sale.Status)
	}

	product, err := s.repo.GetProduct(ctx, sale.ProductID)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	updated, _, err := s.applyStockDelta(ctx, product, sale.VariantSize, -sale.Quantity, domain.MovementDelivery, "deliver sale "+sale.ID)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	delivered := *sale
	delivered.Status = domain.SaleStatusActive

	saved, err := s.repo.SaveSale(ctx, delivered)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	return domain.SaleResponse{
		Sale:   *saved,
		Alerts: lowstock.Evaluate(*updated),
	}, nil
}

func (s *Service) GetSale(ctx context.Context, saleID string) (domain.Sale, error) {
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return domain.Sale{}, fmt.Errorf("%w: sale id required", store.ErrInvalidInput)
	}
	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

// ListSales returns the full ledger, newest first.
func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSalesBetween(ctx, time.Time{}, time.Time{})
}

func buildSale(id string, product domain.Product, ref domain.StockRefView, variantSize string, quantity int, discountCents int64) domain.Sale {
	qty := int64(quantity)
	unit := ref.SellingPriceCents
	cost := ref.CostPriceCents

	return domain.Sale{
		ID:                id,
		ProductID:         product.ID,
		ProductName:       ref.Label,
		VariantSize:       variantSize,
		Quantity:          quantity,
		SellingPriceCents: unit,
		CostPriceCents:    cost,
		DiscountCents:     discountCents,
		FinalPriceCents:   (unit - discountCents) * qty,
		ProfitCents:       (unit - cost - discountCents) * qty,
		TotalCostCents:    cost * qty,
		Status:            domain.SaleStatusActive,
		CreatedAt:         time.Now().UTC(),
	}
}

func validateSaleRequest(req domain.SaleCreateRequest) error {
	if strings.TrimSpace(req.ProductID) == "" {
		return fmt.Errorf("%w: product id required", store.ErrInvalidInput)
	}
	if req.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalidInput)
	}
	if req.DiscountCents < 0 {
		return fmt.Errorf("%w: discount must not be negative", store.ErrInvalidInput)
	}
	return nil
}

func parseDeliveryDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: delivery date required", store.ErrInvalidInput)
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: delivery date %q is not RFC3339 or YYYY-MM-DD", store.ErrInvalidInput, raw)
	}
	// A bare date means end of that day so same-day reservations made in the
	// morning stay valid.
	return t.Add(24*time.Hour - time.Second).UTC(), nil
}
