package summary

import (
	"testing"
	"time"

	"tokokita/backend/internal/domain"
)

func saleAt(at time.Time, status string, quantity int, revenue int64, profit int64) domain.Sale {
	return domain.Sale{
		ID:              "sale-x",
		ProductID:       "prod-x",
		Quantity:        quantity,
		FinalPriceCents: revenue,
		ProfitCents:     profit,
		TotalCostCents:  revenue - profit,
		Status:          status,
		CreatedAt:       at,
	}
}

func TestComputeSkipsNonActiveSales(t *testing.T) {
	now := time.Now()
	totals := Compute([]domain.Sale{
		saleAt(now, domain.SaleStatusActive, 2, 200, 80),
		saleAt(now, domain.SaleStatusCancelled, 5, 0, 0),
		saleAt(now, domain.SaleStatusReserved, 3, 300, 120),
	})

	if totals.TotalQuantity != 2 {
		t.Fatalf("quantity = %d, want 2", totals.TotalQuantity)
	}
	if totals.TotalRevenueCents != 200 {
		t.Fatalf("revenue = %d, want 200", totals.TotalRevenueCents)
	}
	if totals.TotalProfitCents != 80 {
		t.Fatalf("profit = %d, want 80", totals.TotalProfitCents)
	}
}

func TestDayWindowBoundaries(t *testing.T) {
	now := time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)
	from, to := DayWindow(now)

	if !from.Equal(time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v", from)
	}
	if !to.Equal(time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("to = %v", to)
	}
}

func TestWeekWindowStartsMonday(t *testing.T) {
	cases := []struct {
		day        time.Time
		wantMonday time.Time
	}{
		{time.Date(2026, time.March, 11, 10, 0, 0, 0, time.UTC), time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)},  // Wednesday
		{time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)},    // Monday itself
		{time.Date(2026, time.March, 15, 23, 0, 0, 0, time.UTC), time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)},  // Sunday
	}

	for _, tc := range cases {
		from, to := WeekWindow(tc.day)
		if !from.Equal(tc.wantMonday) {
			t.Fatalf("week start for %v = %v, want %v", tc.day, from, tc.wantMonday)
		}
		if !to.Equal(tc.wantMonday.AddDate(0, 0, 7)) {
			t.Fatalf("week end for %v = %v", tc.day, to)
		}
	}
}

func TestBuildDailyOnlyCountsTheDay(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	sales := []domain.Sale{
		saleAt(now, domain.SaleStatusActive, 1, 100, 40),
		saleAt(now.Add(-36*time.Hour), domain.SaleStatusActive, 1, 100, 40),
		saleAt(now.Add(24*time.Hour), domain.SaleStatusActive, 1, 100, 40),
	}

	daily := BuildDaily(sales, now)
	if daily.Date != "2026-03-14" {
		t.Fatalf("date = %q", daily.Date)
	}
	if daily.TotalQuantity != 1 {
		t.Fatalf("quantity = %d, want 1", daily.TotalQuantity)
	}
}

func TestBuildWeeklyBucketsByDay(t *testing.T) {
	// 2026-03-11 is a Wednesday; the week runs 03-09 through 03-15.
	now := time.Date(2026, time.March, 11, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	sales := []domain.Sale{
		saleAt(monday, domain.SaleStatusActive, 2, 200, 80),
		saleAt(now, domain.SaleStatusActive, 1, 100, 40),
		saleAt(now, domain.SaleStatusCancelled, 9, 0, 0),
	}

	weekly := BuildWeekly(sales, now, func(string) string { return "img.png" })
	if weekly.WeekStart != "2026-03-09" || weekly.WeekEnd != "2026-03-15" {
		t.Fatalf("window = %s..%s", weekly.WeekStart, weekly.WeekEnd)
	}
	if weekly.TotalQuantity != 3 {
		t.Fatalf("quantity = %d, want 3", weekly.TotalQuantity)
	}
	if len(weekly.Days) != 7 {
		t.Fatalf("days = %d, want 7", len(weekly.Days))
	}

	mondayBucket := weekly.Days["2026-03-09"]
	if mondayBucket.TotalQuantity != 2 {
		t.Fatalf("monday quantity = %d, want 2", mondayBucket.TotalQuantity)
	}
	if len(mondayBucket.Sales) != 1 || mondayBucket.Sales[0].ProductImageURL != "img.png" {
		t.Fatalf("monday sales = %+v", mondayBucket.Sales)
	}

	wednesdayBucket := weekly.Days["2026-03-11"]
	if len(wednesdayBucket.Sales) != 1 {
		t.Fatalf("cancelled sale leaked into bucket: %+v", wednesdayBucket.Sales)
	}
}

func TestBuildMonthlyWeekGroupsCloseOnSunday(t *testing.T) {
	// March 2026 starts on a Sunday, so the first group is a single day.
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	monthly := BuildMonthly(nil, now)

	if monthly.Month != "2026-03" {
		t.Fatalf("month = %q", monthly.Month)
	}
	if len(monthly.Weeks) == 0 {
		t.Fatalf("no week groups")
	}
	first := monthly.Weeks[0]
	if first.Start != "2026-03-01" || first.End != "2026-03-01" {
		t.Fatalf("first group = %s..%s, want single Sunday", first.Start, first.End)
	}

	totalDays := 0
	for _, week := range monthly.Weeks {
		totalDays += len(week.Days)
	}
	if totalDays != 31 {
		t.Fatalf("days across groups = %d, want 31", totalDays)
	}
	last := monthly.Weeks[len(monthly.Weeks)-1]
	if last.End != "2026-03-31" {
		t.Fatalf("last group ends %s, want 2026-03-31", last.End)
	}
}

func TestBuildYearlyTwelveMonths(t *testing.T) {
	jan := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	jul := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	sales := []domain.Sale{
		saleAt(jan, domain.SaleStatusActive, 1, 100, 40),
		saleAt(jul, domain.SaleStatusActive, 2, 200, 80),
		saleAt(jan.AddDate(-1, 0, 0), domain.SaleStatusActive, 9, 900, 360),
	}

	yearly := BuildYearly(sales, 2026, time.UTC)
	if yearly.Year != 2026 {
		t.Fatalf("year = %d", yearly.Year)
	}
	if len(yearly.Months) != 12 {
		t.Fatalf("months = %d, want 12", len(yearly.Months))
	}
	if yearly.TotalQuantity != 3 {
		t.Fatalf("quantity = %d, want 3", yearly.TotalQuantity)
	}
	if yearly.Months[0].TotalQuantity != 1 {
		t.Fatalf("january quantity = %d, want 1", yearly.Months[0].TotalQuantity)
	}
	if yearly.Months[6].TotalQuantity != 2 {
		t.Fatalf("july quantity = %d, want 2", yearly.Months[6].TotalQuantity)
	}
}
