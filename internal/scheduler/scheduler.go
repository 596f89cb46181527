// Package scheduler runs the end-of-day digest: once per calendar day, at or
// after the configured hour, it pushes the daily sales summary and the
// current low-stock feed to a notifier.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/summary"
)

// Notifier delivers a digest to the shop owner. Implementations may send a
// chat message, an email, or just log.
type Notifier interface {
	Notify(ctx context.Context, subject string, body string) error
}

// LogNotifier writes digests to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, subject string, body string) error {
	log.Printf("[digest] %s\n%s", subject, body)
	return nil
}

// Reporter is the read surface the digest needs from the service layer.
type Reporter interface {
	DailySummary(ctx context.Context) (summary.DailySummary, error)
	LowStockAlerts(ctx context.Context) ([]domain.LowStockAlert, error)
}

type Scheduler struct {
	reporter      Reporter
	notifier      Notifier
	loc           *time.Location
	digestHour    int
	checkInterval time.Duration

	mu          sync.Mutex
	lastRunDate string

	stop chan struct{}
	done chan struct{}
}

func New(reporter Reporter, notifier Notifier, loc *time.Location, digestHour int) *Scheduler {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if digestHour < 0 || digestHour > 23 {
		digestHour = 21
	}

	return &Scheduler{
		reporter:      reporter,
		notifier:      notifier,
		loc:           loc,
		digestHour:    digestHour,
		checkInterval: time.Minute,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.run()
}

func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick(time.Now().In(s.loc))
		}
	}
}

// tick fires the digest at most once per calendar day. The date guard, not
// the tick cadence, provides the once-a-day semantics, so a slow or delayed
// tick still catches up later in the evening.
func (s *Scheduler) tick(now time.Time) {
	if now.Hour() < s.digestHour {
		return
	}

	today := now.Format("2006-01-02")
	s.mu.Lock()
	if s.lastRunDate == today {
		s.mu.Unlock()
		return
	}
	s.lastRunDate = today
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.sendDigest(ctx, today); err != nil {
		log.Printf("[scheduler] WARN: digest for %s failed: %v", today, err)
	}
}

func (s *Scheduler) sendDigest(ctx context.Context, date string) error {
	daily, err := s.reporter.DailySummary(ctx)
	if err != nil {
		return fmt.Errorf("daily summary: %w", err)
	}
	alerts, err := s.reporter.LowStockAlerts(ctx)
	if err != nil {
		return fmt.Errorf("low-stock alerts: %w", err)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Sales %s: %d items, revenue %d, profit %d\n",
		daily.Date, daily.TotalQuantity, daily.TotalRevenueCents, daily.TotalProfitCents)

	if len(alerts) == 0 {
		body.WriteString("Stock: all products above their thresholds")
	} else {
		fmt.Fprintf(&body, "Low stock (%d):\n", len(alerts))
		for _, alert := range alerts {
			fmt.Fprintf(&body, "  - %s: %d left\n", alert.ProductName, alert.Quantity)
		}
	}

	return s.notifier.Notify(ctx, "Daily digest "+date, body.String())
}
