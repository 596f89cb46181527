package lowstock

import (
	"tokokita/backend/internal/domain"
)

// DefaultThreshold applies when neither the product nor the variant sets a
// minStock of its own.
const DefaultThreshold = 5

// Evaluate returns zero or more alerts for a single product. Simple products
// alert when stock is at or below the threshold; variant products are
// evaluated per variant, independently. Alerts are never persisted; callers
// recompute on demand.
func Evaluate(p domain.Product) []domain.LowStockAlert {
	if !p.HasVariants {
		if p.Stock <= threshold(p.MinStock) {
			return []domain.LowStockAlert{{
				ProductName: p.Name,
				Quantity:    p.Stock,
				ImageURL:    p.ImageURL,
			}}
		}
		return nil
	}

	var alerts []domain.LowStockAlert
	for _, v := range p.Sizes {
		min := v.MinStock
		if min == 0 {
			min = p.MinStock
		}
		if v.Stock <= threshold(min) {
			alerts = append(alerts, domain.LowStockAlert{
				ProductName: p.Name + " - " + v.Size,
				Quantity:    v.Stock,
				ImageURL:    p.ImageURL,
			})
		}
	}
	return alerts
}

// EvaluateAll aggregates alerts across a product catalog for the global feed.
func EvaluateAll(products []domain.Product) []domain.LowStockAlert {
	alerts := make([]domain.LowStockAlert, 0, 16)
	for _, p := range products {
		alerts = append(alerts, Evaluate(p)...)
	}
	return alerts
}

func threshold(minStock int) int {
	if minStock > 0 {
		return minStock
	}
	return DefaultThreshold
}
