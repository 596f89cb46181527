// Package memory implements the repository on in-process maps. It backs the
// test suite and local development without a database.
package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/store"
	"tokokita/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	sales           map[string]domain.Sale
	movements       []domain.StockMovement
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		sales:           make(map[string]domain.Sale),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store preloaded with a small shop catalog and the two
// bootstrap accounts. Passwords come from SEED_ADMIN_PASSWORD and
// SEED_EMPLOYEE_PASSWORD, with development defaults.
func NewSeeded() *Store {
	s := New()
	s.seedProducts()
	s.seedUsers()
	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, cloneProduct(p))
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	clone := cloneProduct(p)
	return &clone, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return nil, fmt.Errorf("%w: product %s", store.ErrConflict, product.ID)
	}
	s.products[product.ID] = cloneProduct(product)

	clone := cloneProduct(product)
	return &clone, nil
}

func (s *Store) SaveProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[product.ID]; !ok {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, product.ID)
	}
	s.products[product.ID] = cloneProduct(product)

	clone := cloneProduct(product)
	return &clone, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	delete(s.products, id)
	return nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, fmt.Errorf("%w: sale %s", store.ErrNotFound, id)
	}
	clone := cloneSale(sale)
	return &clone, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sales[sale.ID]; exists {
		return nil, fmt.Errorf("%w: sale %s", store.ErrConflict, sale.ID)
	}
	s.sales[sale.ID] = cloneSale(sale)

	clone := cloneSale(sale)
	return &clone, nil
}

func (s *Store) SaveSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[sale.ID]; !ok {
		return nil, fmt.Errorf("%w: sale %s", store.ErrNotFound, sale.ID)
	}
	s.sales[sale.ID] = cloneSale(sale)

	clone := cloneSale(sale)
	return &clone, nil
}

func (s *Store) ListSalesBetween(_ context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if !from.IsZero() && sale.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !sale.CreatedAt.Before(to) {
			continue
		}
		sales = append(sales, cloneSale(sale))
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].CreatedAt.After(sales[j].CreatedAt) })
	return sales, nil
}

func (s *Store) AppendStockMovement(_ context.Context, movement domain.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.movements = append(s.movements, movement)
	return nil
}

func (s *Store) ListStockMovements(_ context.Context, movementType string, limit int) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockMovement, 0, limit)
	for i := len(s.movements) - 1; i >= 0 && len(result) < limit; i-- {
		m := s.movements[i]
		if movementType != "" && m.Type != movementType {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Username)
	if _, exists := s.usersByUsername[key]; exists {
		return fmt.Errorf("%w: username %s", store.ErrConflict, user.Username)
	}
	s.usersByUsername[key] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) seedProducts() {
	now := time.Now().UTC()

	seed := []domain.Product{
		{
			ID:                xid.New("prod"),
			Name:              "Kopi Gayo 250g",
			SKU:               "KOPI-GAYO-250",
			Category:          "beverages",
			HasVariants:       false,
			CostPriceCents:    4200000,
			SellingPriceCents: 6500000,
			Stock:             24,
			MinStock:          6,
			ReorderLevel:      4,
		},
		{
			ID:                xid.New("prod"),
			Name:              "Gula Aren Cair 500ml",
			SKU:               "GULA-AREN-500",
			Category:          "beverages",
			HasVariants:       false,
			CostPriceCents:    1800000,
			SellingPriceCents: 2900000,
			Stock:             12,
			MinStock:          5,
			ReorderLevel:      3,
		},
		{
			ID:          xid.New("prod"),
			Name:        "Kaos Polos Katun",
			SKU:         "KAOS-POLOS",
			Category:    "apparel",
			HasVariants: true,
			MinStock:    4,
			Sizes: []domain.Variant{
				{Size: "S", SKU: "KAOS-POLOS-S", CostPriceCents: 3500000, SellingPriceCents: 5500000, Stock: 10, MinStock: 3},
				{Size: "M", SKU: "KAOS-POLOS-M", CostPriceCents: 3500000, SellingPriceCents: 5500000, Stock: 15, MinStock: 4},
				{Size: "L", SKU: "KAOS-POLOS-L", CostPriceCents: 3700000, SellingPriceCents: 5800000, Stock: 8},
			},
		},
		{
			ID:                xid.New("prod"),
			Name:              "Keripik Singkong Balado",
			SKU:               "KERIPIK-BALADO",
			Category:          "snacks",
			HasVariants:       false,
			CostPriceCents:    800000,
			SellingPriceCents: 1500000,
			DiscountCents:     100000,
			Stock:             3,
			MinStock:          5,
			ReorderLevel:      5,
		},
	}

	for _, p := range seed {
		p.CreatedAt = now
		p.UpdatedAt = now
		p.Recompute()
		s.products[p.ID] = p
	}
}

func (s *Store) seedUsers() {
	now := time.Now().UTC()

	accounts := []struct {
		username string
		role     string
		envVar   string
		fallback string
	}{
		{"admin", "admin", "SEED_ADMIN_PASSWORD", "admin-dev-password"},
		{"kasir", "employee", "SEED_EMPLOYEE_PASSWORD", "kasir-dev-password"},
	}

	for _, acct := range accounts {
		password := os.Getenv(acct.envVar)
		if password == "" {
			password = acct.fallback
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[memory] WARN: seed user %s skipped: %v", acct.username, err)
			continue
		}
		s.usersByUsername[acct.username] = domain.UserAccount{
			Username:  acct.username,
			Password:  string(hash),
			Role:      acct.role,
			Active:    true,
			CreatedAt: now,
		}
	}
}

func cloneProduct(p domain.Product) domain.Product {
	clone := p
	if len(p.Sizes) > 0 {
		clone.Sizes = make([]domain.Variant, len(p.Sizes))
		copy(clone.Sizes, p.Sizes)
		for i := range clone.Sizes {
			clone.Sizes[i].LastSoldAt = cloneTime(p.Sizes[i].LastSoldAt)
		}
	}
	clone.LastSoldAt = cloneTime(p.LastSoldAt)
	return clone
}

func cloneSale(sale domain.Sale) domain.Sale {
	clone := sale
	clone.DeliveryDate = cloneTime(sale.DeliveryDate)
	clone.ReservedAt = cloneTime(sale.ReservedAt)
	clone.CancelledAt = cloneTime(sale.CancelledAt)
	return clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
