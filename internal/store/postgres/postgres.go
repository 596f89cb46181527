// Package postgres implements the repository on PostgreSQL via database/sql
// and the pgx stdlib driver. Documents are stored one row per entity, with
// product variants folded into a jsonb column.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			sku TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			has_variants BOOLEAN NOT NULL DEFAULT FALSE,
			min_stock INTEGER NOT NULL DEFAULT 0,
			reorder_level INTEGER NOT NULL DEFAULT 0,
			cost_price_cents BIGINT NOT NULL DEFAULT 0,
			selling_price_cents BIGINT NOT NULL DEFAULT 0,
			discount_cents BIGINT NOT NULL DEFAULT 0,
			stock INTEGER NOT NULL DEFAULT 0,
			total_sold INTEGER NOT NULL DEFAULT 0,
			last_sold_at TIMESTAMPTZ,
			sizes JSONB NOT NULL DEFAULT '[]',
			total_stock INTEGER NOT NULL DEFAULT 0,
			stock_status TEXT NOT NULL DEFAULT 'ok',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			product_name TEXT NOT NULL,
			variant_size TEXT NOT NULL DEFAULT '',
			quantity INTEGER NOT NULL,
			selling_price_cents BIGINT NOT NULL,
			cost_price_cents BIGINT NOT NULL,
			discount_cents BIGINT NOT NULL,
			final_price_cents BIGINT NOT NULL,
			profit_cents BIGINT NOT NULL,
			total_cost_cents BIGINT NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			customer_phone TEXT NOT NULL DEFAULT '',
			proof_image_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			is_reserved BOOLEAN NOT NULL DEFAULT FALSE,
			delivery_date TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			reserved_at TIMESTAMPTZ,
			cancelled_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales (created_at)`,
		`CREATE TABLE IF NOT EXISTS stock_movements (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			product_name TEXT NOT NULL,
			variant_size TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			total_stock INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_movements_created_at ON stock_movements (created_at)`,
		`CREATE TABLE IF NOT EXISTS app_users (
			username TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

const productColumns = `id, name, sku, category, image_url, has_variants, min_stock, reorder_level,
	cost_price_cents, selling_price_cents, discount_cents, stock, total_sold, last_sold_at,
	sizes, total_stock, stock_status, created_at, updated_at`

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	sizes, err := json.Marshal(sizesOrEmpty(product.Sizes))
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		product.ID, product.Name, product.SKU, product.Category, product.ImageURL,
		product.HasVariants, product.MinStock, product.ReorderLevel,
		product.CostPriceCents, product.SellingPriceCents, product.DiscountCents,
		product.Stock, product.TotalSold, nullTime(product.LastSoldAt),
		sizes, product.TotalStock, product.StockStatus, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: product %s", store.ErrConflict, product.ID)
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) SaveProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	sizes, err := json.Marshal(sizesOrEmpty(product.Sizes))
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE products SET
		name = $2, sku = $3, category = $4, image_url = $5, has_variants = $6,
		min_stock = $7, reorder_level = $8, cost_price_cents = $9, selling_price_cents = $10,
		discount_cents = $11, stock = $12, total_sold = $13, last_sold_at = $14,
		sizes = $15, total_stock = $16, stock_status = $17, updated_at = $18
		WHERE id = $1`,
		product.ID, product.Name, product.SKU, product.Category, product.ImageURL,
		product.HasVariants, product.MinStock, product.ReorderLevel,
		product.CostPriceCents, product.SellingPriceCents, product.DiscountCents,
		product.Stock, product.TotalSold, nullTime(product.LastSoldAt),
		sizes, product.TotalStock, product.StockStatus, product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, product.ID)
	}
	return &product, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	return nil
}

const saleColumns = `id, product_id, product_name, variant_size, quantity,
	selling_price_cents, cost_price_cents, discount_cents, final_price_cents, profit_cents, total_cost_cents,
	comment, customer_phone, proof_image_url, status, is_reserved, delivery_date,
	created_at, reserved_at, cancelled_at`

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	sale, err := scanSale(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: sale %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sales (`+saleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		sale.ID, sale.ProductID, sale.ProductName, sale.VariantSize, sale.Quantity,
		sale.SellingPriceCents, sale.CostPriceCents, sale.DiscountCents,
		sale.FinalPriceCents, sale.ProfitCents, sale.TotalCostCents,
		sale.Comment, sale.CustomerPhone, sale.ProofImageURL, sale.Status,
		sale.IsReserved, nullTime(sale.DeliveryDate),
		sale.CreatedAt, nullTime(sale.ReservedAt), nullTime(sale.CancelledAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: sale %s", store.ErrConflict, sale.ID)
		}
		return nil, err
	}
	return &sale, nil
}

func (s *Store) SaveSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE sales SET
		product_name = $2, variant_size = $3, quantity = $4,
		selling_price_cents = $5, cost_price_cents = $6, discount_cents = $7,
		final_price_cents = $8, profit_cents = $9, total_cost_cents = $10,
		comment = $11, customer_phone = $12, proof_image_url = $13, status = $14,
		is_reserved = $15, delivery_date = $16, reserved_at = $17, cancelled_at = $18
		WHERE id = $1`,
		sale.ID, sale.ProductName, sale.VariantSize, sale.Quantity,
		sale.SellingPriceCents, sale.CostPriceCents, sale.DiscountCents,
		sale.FinalPriceCents, sale.ProfitCents, sale.TotalCostCents,
		sale.Comment, sale.CustomerPhone, sale.ProofImageURL, sale.Status,
		sale.IsReserved, nullTime(sale.DeliveryDate), nullTime(sale.ReservedAt), nullTime(sale.CancelledAt))
	if err != nil {
		return nil, err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("%w: sale %s", store.ErrNotFound, sale.ID)
	}
	return &sale, nil
}

func (s *Store) ListSalesBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales`
	var args []any
	switch {
	case !from.IsZero() && !to.IsZero():
		query += ` WHERE created_at >= $1 AND created_at < $2`
		args = append(args, from, to)
	case !from.IsZero():
		query += ` WHERE created_at >= $1`
		args = append(args, from)
	case !to.IsZero():
		query += ` WHERE created_at < $1`
		args = append(args, to)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) AppendStockMovement(ctx context.Context, movement domain.StockMovement) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO stock_movements
		(id, product_id, product_name, variant_size, type, quantity, note, total_stock, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		movement.ID, movement.ProductID, movement.ProductName, movement.VariantSize,
		movement.Type, movement.Quantity, movement.Note, movement.TotalStock, movement.CreatedAt)
	return err
}

func (s *Store) ListStockMovements(ctx context.Context, movementType string, limit int) ([]domain.StockMovement, error) {
	query := `SELECT id, product_id, product_name, variant_size, type, quantity, note, total_stock, created_at
		FROM stock_movements`
	var args []any
	if movementType != "" {
		query += ` WHERE type = $1`
		args = append(args, movementType)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ProductName, &m.VariantSize,
			&m.Type, &m.Quantity, &m.Note, &m.TotalStock, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO app_users (username, password_hash, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: username %s", store.ErrConflict, user.Username)
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username, password_hash, role, active, created_at
		FROM app_users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.UserAccount
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var lastSoldAt sql.NullTime
	var sizes []byte

	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.ImageURL,
		&p.HasVariants, &p.MinStock, &p.ReorderLevel,
		&p.CostPriceCents, &p.SellingPriceCents, &p.DiscountCents,
		&p.Stock, &p.TotalSold, &lastSoldAt,
		&sizes, &p.TotalStock, &p.StockStatus, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}

	if lastSoldAt.Valid {
		t := lastSoldAt.Time
		p.LastSoldAt = &t
	}
	if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
		return domain.Product{}, fmt.Errorf("decode sizes of product %s: %w", p.ID, err)
	}
	if len(p.Sizes) == 0 {
		p.Sizes = nil
	}
	return p, nil
}

func scanSale(row rowScanner) (domain.Sale, error) {
	var sale domain.Sale
	var deliveryDate, reservedAt, cancelledAt sql.NullTime

	err := row.Scan(&sale.ID, &sale.ProductID, &sale.ProductName, &sale.VariantSize, &sale.Quantity,
		&sale.SellingPriceCents, &sale.CostPriceCents, &sale.DiscountCents,
		&sale.FinalPriceCents, &sale.ProfitCents, &sale.TotalCostCents,
		&sale.Comment, &sale.CustomerPhone, &sale.ProofImageURL, &sale.Status,
		&sale.IsReserved, &deliveryDate,
		&sale.CreatedAt, &reservedAt, &cancelledAt)
	if err != nil {
		return domain.Sale{}, err
	}

	if deliveryDate.Valid {
		t := deliveryDate.Time
		sale.DeliveryDate = &t
	}
	if reservedAt.Valid {
		t := reservedAt.Time
		sale.ReservedAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		sale.CancelledAt = &t
	}
	return sale, nil
}

func sizesOrEmpty(sizes []domain.Variant) []domain.Variant {
	if sizes == nil {
		return []domain.Variant{}
	}
	return sizes
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
