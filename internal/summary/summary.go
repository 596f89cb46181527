package summary

import (
	"time"

	"tokokita/backend/internal/domain"
)

// Totals is the aggregate over a window. Only active sales count: cancelled
// and reserved sales contribute nothing even though they stay in the ledger.
type Totals struct {
	TotalQuantity     int   `json:"total_quantity"`
	TotalRevenueCents int64 `json:"total_revenue_cents"`
	TotalProfitCents  int64 `json:"total_profit_cents"`
	TotalCostCents    int64 `json:"total_cost_cents"`
}

type DailySummary struct {
	Date string `json:"date"`
	Totals
}

// SaleEntry is a ledger sale joined with display fields from the product.
type SaleEntry struct {
	domain.Sale
	ProductImageURL string `json:"product_image_url,omitempty"`
}

type DayBucket struct {
	Sales []SaleEntry `json:"sales"`
	Totals
}

type WeeklySummary struct {
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
	Totals
	Days map[string]DayBucket `json:"days"`
}

type DaySummary struct {
	Date string `json:"date"`
	Totals
}

type WeekGroup struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Totals
	Days []DaySummary `json:"days"`
}

type MonthlySummary struct {
	Month string `json:"month"`
	Totals
	Weeks []WeekGroup `json:"weeks"`
}

type MonthSummary struct {
	Month int `json:"month"`
	Totals
}

type YearlySummary struct {
	Year int `json:"year"`
	Totals
	Months []MonthSummary `json:"months"`
}

// Compute sums quantity, finalPrice, profit and totalCost over active sales.
func Compute(sales []domain.Sale) Totals {
	var t Totals
	for _, sale := range sales {
		if sale.Status != domain.SaleStatusActive {
			continue
		}
		t.TotalQuantity += sale.Quantity
		t.TotalRevenueCents += sale.FinalPriceCents
		t.TotalProfitCents += sale.ProfitCents
		t.TotalCostCents += sale.TotalCostCents
	}
	return t
}

// DayWindow is [midnight, midnight+24h) of now's calendar day, in now's
// location.
func DayWindow(now time.Time) (time.Time, time.Time) {
	from := midnight(now)
	return from, from.AddDate(0, 0, 1)
}

// WeekWindow is Monday 00:00 through the following Monday of now's ISO week.
func WeekWindow(now time.Time) (time.Time, time.Time) {
	day := midnight(now)
	offset := (int(day.Weekday()) + 6) % 7
	from := day.AddDate(0, 0, -offset)
	return from, from.AddDate(0, 0, 7)
}

// MonthWindow is the first through the last calendar day of now's month.
func MonthWindow(now time.Time) (time.Time, time.Time) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 1, 0)
}

// YearWindow is January 1st through December 31st of the given year.
func YearWindow(year int, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(1, 0, 0)
}

func BuildDaily(sales []domain.Sale, now time.Time) DailySummary {
	from, to := DayWindow(now)
	return DailySummary{
		Date:   from.Format("2006-01-02"),
		Totals: Compute(filterWindow(sales, from, to)),
	}
}

// BuildWeekly computes the week totals plus a per-day bucket map keyed by
// calendar day. imageFor joins the product image for dashboard rows; it may
// be nil.
func BuildWeekly(sales []domain.Sale, now time.Time, imageFor func(productID string) string) WeeklySummary {
	from, to := WeekWindow(now)
	inWindow := filterWindow(sales, from, to)

	days := make(map[string]DayBucket, 7)
	for d := 0; d < 7; d++ {
		dayStart := from.AddDate(0, 0, d)
		dayEnd := dayStart.AddDate(0, 0, 1)
		daySales := filterWindow(inWindow, dayStart, dayEnd)

		entries := make([]SaleEntry, 0, len(daySales))
		for _, sale := range daySales {
			if sale.Status != domain.SaleStatusActive {
				continue
			}
			entry := SaleEntry{Sale: sale}
			if imageFor != nil {
				entry.ProductImageURL = imageFor(sale.ProductID)
			}
			entries = append(entries, entry)
		}

		days[dayStart.Format("2006-01-02")] = DayBucket{
			Sales:  entries,
			Totals: Compute(daySales),
		}
	}

	return WeeklySummary{
		WeekStart: from.Format("2006-01-02"),
		WeekEnd:   to.AddDate(0, 0, -1).Format("2006-01-02"),
		Totals:    Compute(inWindow),
		Days:      days,
	}
}

// BuildMonthly partitions the month's days into week groups. A group closes
// when a Sunday is reached or the month ends, so groups at the month edges
// may be shorter than seven days.
func BuildMonthly(sales []domain.Sale, now time.Time) MonthlySummary {
	from, to := MonthWindow(now)
	inWindow := filterWindow(sales, from, to)

	weeks := make([]WeekGroup, 0, 6)
	var current []DaySummary
	var currentSales []domain.Sale

	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		dayEnd := day.AddDate(0, 0, 1)
		daySales := filterWindow(inWindow, day, dayEnd)
		current = append(current, DaySummary{
			Date:   day.Format("2006-01-02"),
			Totals: Compute(daySales),
		})
		currentSales = append(currentSales, daySales...)

		if day.Weekday() == time.Sunday || dayEnd.Equal(to) {
			weeks = append(weeks, WeekGroup{
				Start:  current[0].Date,
				End:    current[len(current)-1].Date,
				Totals: Compute(currentSales),
				Days:   current,
			})
			current = nil
			currentSales = nil
		}
	}

	return MonthlySummary{
		Month:  from.Format("2006-01"),
		Totals: Compute(inWindow),
		Weeks:  weeks,
	}
}

// BuildYearly aggregates the twelve monthly totals of a year plus the grand
// total.
func BuildYearly(sales []domain.Sale, year int, loc *time.Location) YearlySummary {
	from, to := YearWindow(year, loc)
	inWindow := filterWindow(sales, from, to)

	months := make([]MonthSummary, 0, 12)
	for m := time.January; m <= time.December; m++ {
		monthStart := time.Date(year, m, 1, 0, 0, 0, 0, loc)
		monthEnd := monthStart.AddDate(0, 1, 0)
		months = append(months, MonthSummary{
			Month:  int(m),
			Totals: Compute(filterWindow(inWindow, monthStart, monthEnd)),
		})
	}

	return YearlySummary{
		Year:   year,
		Totals: Compute(inWindow),
		Months: months,
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func filterWindow(sales []domain.Sale, from time.Time, to time.Time) []domain.Sale {
	result := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		at := sale.CreatedAt.In(from.Location())
		if at.Before(from) || !at.Before(to) {
			continue
		}
		result = append(result, sale)
	}
	return result
}
