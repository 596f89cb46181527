package store

import (
	"context"
	"errors"
	"time"

	"tokokita/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyCancelled  = errors.New("sale already cancelled")
	ErrInvalidState      = errors.New("invalid sale state")
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflicting concurrent update")
)

// Repository is the document-store abstraction the core runs against:
// entities are fetched by primary key and written back as whole documents.
// Sales additionally support a time-window scan for the summary side, and
// stock movements are append-only with a filtered newest-first listing.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	SaveProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	SaveSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	ListSalesBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error)

	AppendStockMovement(ctx context.Context, movement domain.StockMovement) error
	ListStockMovements(ctx context.Context, movementType string, limit int) ([]domain.StockMovement, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
}
