package domain

import "time"

const (
	SaleStatusActive    = "active"
	SaleStatusCancelled = "cancelled"
	SaleStatusReserved  = "reserved"
)

const (
	MovementAdd        = "add"
	MovementSale       = "sale"
	MovementCancelSale = "cancelSale"
	MovementDelivery   = "delivery"
)

const (
	StockStatusOK  = "ok"
	StockStatusLow = "low"
)

// Variant is a size-specific sub-unit of a product carrying its own price and
// stock. Variants are identified within a product by their size label; there
// is no variant-level surrogate id.
type Variant struct {
	Size              string     `json:"size"`
	SKU               string     `json:"sku,omitempty"`
	CostPriceCents    int64      `json:"cost_price_cents"`
	SellingPriceCents int64      `json:"selling_price_cents"`
	DiscountCents     int64      `json:"discount_cents"`
	Stock             int        `json:"stock"`
	MinStock          int        `json:"min_stock,omitempty"`
	TotalSold         int        `json:"total_sold"`
	LastSoldAt        *time.Time `json:"last_sold_at,omitempty"`
}

// Product is either simple (price and stock on the product itself) or
// variant-based (per-size price and stock in Sizes). TotalStock and
// StockStatus are derived; Recompute refreshes them before every save.
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SKU          string `json:"sku,omitempty"`
	Category     string `json:"category"`
	ImageURL     string `json:"image_url,omitempty"`
	HasVariants  bool   `json:"has_variants"`
	MinStock     int    `json:"min_stock,omitempty"`
	ReorderLevel int    `json:"reorder_level"`

	CostPriceCents    int64      `json:"cost_price_cents,omitempty"`
	SellingPriceCents int64      `json:"selling_price_cents,omitempty"`
	DiscountCents     int64      `json:"discount_cents,omitempty"`
	Stock             int        `json:"stock"`
	TotalSold         int        `json:"total_sold"`
	LastSoldAt        *time.Time `json:"last_sold_at,omitempty"`

	Sizes []Variant `json:"sizes,omitempty"`

	TotalStock  int    `json:"total_stock"`
	StockStatus string `json:"stock_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockRefView points at the stock-bearing and price fields of either the
// product itself or one of its size variants. It is the single resolution
// point for the simple/variant split: every read or write of stock, sold
// counters, or unit prices goes through it.
type StockRefView struct {
	Stock      *int
	TotalSold  *int
	LastSoldAt **time.Time

	SellingPriceCents int64
	CostPriceCents    int64
	DiscountCents     int64
	MinStock          int
	Label             string
	VariantSize       string
}

// StockRef resolves variantSize against the product. It returns false when a
// size is given for a simple product, when a variant product is addressed
// without a size, or when no variant with that size exists.
func (p *Product) StockRef(variantSize string) (StockRefView, bool) {
	if !p.HasVariants {
		if variantSize != "" {
			return StockRefView{}, false
		}
		return StockRefView{
			Stock:             &p.Stock,
			TotalSold:         &p.TotalSold,
			LastSoldAt:        &p.LastSoldAt,
			SellingPriceCents: p.SellingPriceCents,
			CostPriceCents:    p.CostPriceCents,
			DiscountCents:     p.DiscountCents,
			MinStock:          p.MinStock,
			Label:             p.Name,
		}, true
	}

	if variantSize == "" {
		return StockRefView{}, false
	}
	for i := range p.Sizes {
		if p.Sizes[i].Size != variantSize {
			continue
		}
		v := &p.Sizes[i]
		minStock := v.MinStock
		if minStock == 0 {
			minStock = p.MinStock
		}
		return StockRefView{
			Stock:             &v.Stock,
			TotalSold:         &v.TotalSold,
			LastSoldAt:        &v.LastSoldAt,
			SellingPriceCents: v.SellingPriceCents,
			CostPriceCents:    v.CostPriceCents,
			DiscountCents:     v.DiscountCents,
			MinStock:          minStock,
			Label:             p.Name + " - " + v.Size,
			VariantSize:       v.Size,
		}, true
	}
	return StockRefView{}, false
}

// Recompute refreshes the derived TotalStock and StockStatus fields.
func (p *Product) Recompute() {
	total := p.Stock
	if p.HasVariants {
		total = 0
		for _, v := range p.Sizes {
			total += v.Stock
		}
	}
	p.TotalStock = total
	if total <= p.ReorderLevel {
		p.StockStatus = StockStatusLow
	} else {
		p.StockStatus = StockStatusOK
	}
}

// Sale is a financial record referencing a product by id. Unit prices are
// snapshots taken at creation time: repricing or deleting the product later
// never changes a recorded sale.
type Sale struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	VariantSize string `json:"variant_size,omitempty"`
	Quantity    int    `json:"quantity"`

	SellingPriceCents int64 `json:"selling_price_cents"`
	CostPriceCents    int64 `json:"cost_price_cents"`
	DiscountCents     int64 `json:"discount_cents"`
	FinalPriceCents   int64 `json:"final_price_cents"`
	ProfitCents       int64 `json:"profit_cents"`
	TotalCostCents    int64 `json:"total_cost_cents"`

	Comment       string `json:"comment,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	ProofImageURL string `json:"proof_image_url,omitempty"`

	Status       string     `json:"status"`
	IsReserved   bool       `json:"is_reserved,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ReservedAt  *time.Time `json:"reserved_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// StockMovement is one append-only audit entry per stock-affecting event.
// Quantity is always the magnitude; direction is implied by Type.
type StockMovement struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	VariantSize string    `json:"variant_size,omitempty"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	Note        string    `json:"note,omitempty"`
	TotalStock  int       `json:"total_stock"`
	CreatedAt   time.Time `json:"created_at"`
}

// LowStockAlert is a recomputed-on-demand dashboard signal; alerts are never
// persisted.
type LowStockAlert struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	ImageURL    string `json:"image_url,omitempty"`
}

type VariantPayload struct {
	Size              string `json:"size"`
	SKU               string `json:"sku,omitempty"`
	CostPriceCents    int64  `json:"cost_price_cents"`
	SellingPriceCents int64  `json:"selling_price_cents"`
	DiscountCents     int64  `json:"discount_cents,omitempty"`
	Stock             int    `json:"stock"`
	MinStock          int    `json:"min_stock,omitempty"`
}

type ProductCreateRequest struct {
	Name              string           `json:"name"`
	SKU               string           `json:"sku,omitempty"`
	Category          string           `json:"category"`
	ImageURL          string           `json:"image_url,omitempty"`
	CostPriceCents    int64            `json:"cost_price_cents,omitempty"`
	SellingPriceCents int64            `json:"selling_price_cents,omitempty"`
	DiscountCents     int64            `json:"discount_cents,omitempty"`
	Stock             int              `json:"stock,omitempty"`
	MinStock          int              `json:"min_stock,omitempty"`
	ReorderLevel      int              `json:"reorder_level,omitempty"`
	HasVariants       bool             `json:"has_variants"`
	Sizes             []VariantPayload `json:"sizes,omitempty"`
}

type ProductUpdateRequest struct {
	Name              *string          `json:"name,omitempty"`
	SKU               *string          `json:"sku,omitempty"`
	Category          *string          `json:"category,omitempty"`
	ImageURL          *string          `json:"image_url,omitempty"`
	CostPriceCents    *int64           `json:"cost_price_cents,omitempty"`
	SellingPriceCents *int64           `json:"selling_price_cents,omitempty"`
	DiscountCents     *int64           `json:"discount_cents,omitempty"`
	MinStock          *int             `json:"min_stock,omitempty"`
	ReorderLevel      *int             `json:"reorder_level,omitempty"`
	Sizes             []VariantPayload `json:"sizes,omitempty"`
}

type StockModifyRequest struct {
	ProductID   string `json:"product_id"`
	VariantSize string `json:"variant_size,omitempty"`
	Delta       int    `json:"delta"`
	Note        string `json:"note,omitempty"`
}

type SaleCreateRequest struct {
	ProductID     string `json:"product_id"`
	VariantSize   string `json:"variant_size,omitempty"`
	Quantity      int    `json:"quantity"`
	DiscountCents int64  `json:"discount_cents,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	Comment       string `json:"comment,omitempty"`
	ProofImageURL string `json:"proof_image_url,omitempty"`
}

type ReserveSaleRequest struct {
	ProductID     string `json:"product_id"`
	VariantSize   string `json:"variant_size,omitempty"`
	Quantity      int    `json:"quantity"`
	DiscountCents int64  `json:"discount_cents,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	Comment       string `json:"comment,omitempty"`
	DeliveryDate  string `json:"delivery_date"`
}

// SaleResponse pairs the affected sale with the low-stock alerts evaluated
// against the refreshed product.
type SaleResponse struct {
	Sale   Sale            `json:"sale"`
	Alerts []LowStockAlert `json:"alerts,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
