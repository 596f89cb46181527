package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/summary"
)

type stubReporter struct {
	daily  summary.DailySummary
	alerts []domain.LowStockAlert
}

func (s stubReporter) DailySummary(context.Context) (summary.DailySummary, error) {
	return s.daily, nil
}

func (s stubReporter) LowStockAlerts(context.Context) ([]domain.LowStockAlert, error) {
	return s.alerts, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
	bodies   []string
}

func (n *recordingNotifier) Notify(_ context.Context, subject string, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	n.bodies = append(n.bodies, body)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subjects)
}

func newTestScheduler(notifier Notifier) *Scheduler {
	reporter := stubReporter{
		daily: summary.DailySummary{
			Date:   "2026-08-31",
			Totals: summary.Totals{TotalQuantity: 4, TotalRevenueCents: 400, TotalProfitCents: 160},
		},
		alerts: []domain.LowStockAlert{{ProductName: "Kopi", Quantity: 2}},
	}
	return New(reporter, notifier, time.UTC, 21)
}

func TestTickBeforeDigestHourDoesNothing(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestScheduler(notifier)

	s.tick(time.Date(2026, time.August, 31, 20, 59, 0, 0, time.UTC))
	if notifier.count() != 0 {
		t.Fatalf("digest fired before the hour")
	}
}

func TestTickFiresOncePerDay(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestScheduler(notifier)

	evening := time.Date(2026, time.August, 31, 21, 0, 0, 0, time.UTC)
	s.tick(evening)
	s.tick(evening.Add(time.Minute))
	s.tick(evening.Add(2 * time.Hour))

	if notifier.count() != 1 {
		t.Fatalf("digest count = %d, want 1", notifier.count())
	}
	if !strings.Contains(notifier.bodies[0], "Kopi: 2 left") {
		t.Fatalf("body missing low-stock line: %q", notifier.bodies[0])
	}
	if !strings.Contains(notifier.bodies[0], "revenue 400") {
		t.Fatalf("body missing revenue: %q", notifier.bodies[0])
	}
}

func TestTickFiresAgainNextDay(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestScheduler(notifier)

	s.tick(time.Date(2026, time.August, 31, 21, 0, 0, 0, time.UTC))
	s.tick(time.Date(2026, time.September, 1, 21, 0, 0, 0, time.UTC))

	if notifier.count() != 2 {
		t.Fatalf("digest count = %d, want 2", notifier.count())
	}
}

func TestStartStop(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestScheduler(notifier)
	s.checkInterval = 10 * time.Millisecond

	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop()
}
