package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/store"
)

func TestProductRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	product := domain.Product{ID: "prod-1", Name: "Kopi", Category: "beverages", Stock: 10}
	if _, err := s.CreateProduct(ctx, product); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateProduct(ctx, product); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate create err = %v, want conflict", err)
	}

	got, err := s.GetProduct(ctx, "prod-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Kopi" {
		t.Fatalf("name = %q", got.Name)
	}

	// Mutating the returned copy must not leak into the store.
	got.Stock = 0
	again, err := s.GetProduct(ctx, "prod-1")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.Stock != 10 {
		t.Fatalf("stock = %d, store copy was mutated", again.Stock)
	}

	if err := s.DeleteProduct(ctx, "prod-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetProduct(ctx, "prod-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get deleted err = %v, want not found", err)
	}
	if err := s.DeleteProduct(ctx, "prod-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("double delete err = %v, want not found", err)
	}
}

func TestSaveProductRequiresExisting(t *testing.T) {
	s := New()
	if _, err := s.SaveProduct(context.Background(), domain.Product{ID: "ghost"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestListSalesBetween(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)

	for i, at := range []time.Time{base, base.AddDate(0, 0, 1), base.AddDate(0, 0, 2)} {
		sale := domain.Sale{ID: "sale-" + string(rune('a'+i)), ProductID: "p", Status: domain.SaleStatusActive, CreatedAt: at}
		if _, err := s.CreateSale(ctx, sale); err != nil {
			t.Fatalf("create sale: %v", err)
		}
	}

	window, err := s.ListSalesBetween(ctx, base.AddDate(0, 0, 1).Add(-time.Hour), base.AddDate(0, 0, 1).Add(time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(window) != 1 || window[0].ID != "sale-b" {
		t.Fatalf("window = %+v, want only sale-b", window)
	}

	all, err := s.ListSalesBetween(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}
	if all[0].ID != "sale-c" {
		t.Fatalf("first = %s, want newest first", all[0].ID)
	}
}

func TestMovementListNewestFirstWithFilter(t *testing.T) {
	s := New()
	ctx := context.Background()

	types := []string{domain.MovementAdd, domain.MovementSale, domain.MovementCancelSale, domain.MovementSale}
	for i, typ := range types {
		if err := s.AppendStockMovement(ctx, domain.StockMovement{ID: "mv-" + string(rune('a'+i)), Type: typ}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := s.ListStockMovements(ctx, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || all[0].ID != "mv-d" {
		t.Fatalf("all = %+v, want 4 newest first", all)
	}

	salesOnly, err := s.ListStockMovements(ctx, domain.MovementSale, 10)
	if err != nil {
		t.Fatalf("filtered: %v", err)
	}
	if len(salesOnly) != 2 || salesOnly[0].ID != "mv-d" || salesOnly[1].ID != "mv-b" {
		t.Fatalf("filtered = %+v", salesOnly)
	}

	limited, err := s.ListStockMovements(ctx, "", 2)
	if err != nil {
		t.Fatalf("limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited = %d, want 2", len(limited))
	}
}

func TestSeededStoreHasCatalogAndUsers(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) == 0 {
		t.Fatalf("seeded store has no products")
	}

	hasVariants := false
	for _, p := range products {
		if p.HasVariants {
			hasVariants = true
			if p.TotalStock == 0 {
				t.Fatalf("variant product %s has zero derived total stock", p.Name)
			}
		}
	}
	if !hasVariants {
		t.Fatalf("seed catalog needs at least one variant product")
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want admin and kasir", len(users))
	}
}
