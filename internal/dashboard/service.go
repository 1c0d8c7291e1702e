package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// MonthAmount is a revenue total keyed by month start.
type MonthAmount struct {
	Start  shared.Date
	Amount decimal.Decimal
}

// Store runs the aggregate queries.
type Store interface {
	StatusTotals(ctx context.Context, userID int64) ([]StatusTotal, error)
	ActiveClients(ctx context.Context) (int, error)
	MonthlyRevenue(ctx context.Context, userID int64, from, to shared.Date, paidOnly bool) ([]MonthAmount, error)
	RecentInvoices(ctx context.Context, userID int64, limit int) ([]RecentInvoice, error)
	TopClients(ctx context.Context, userID int64, limit int, activeOnly bool) ([]ClientRevenue, error)
}

// Service computes dashboard and report figures.
type Service struct {
	store Store
	cache *Cache
	now   func() time.Time
}

// NewService builds the service. cache may be nil.
func NewService(store Store, cache *Cache) *Service {
	return &Service{store: store, cache: cache, now: time.Now}
}

// WithClock overrides the clock used for month windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Dashboard returns the landing page summary for userID.
func (s *Service) Dashboard(ctx context.Context, userID int64) (Dashboard, error) {
	var out Dashboard
	err := s.cache.Fetch(ctx, userID, "summary", &out, func(ctx context.Context) (any, error) {
		return s.buildDashboard(ctx, userID)
	})
	return out, err
}

// Reports returns the analytics page for userID.
func (s *Service) Reports(ctx context.Context, userID int64) (Reports, error) {
	var out Reports
	err := s.cache.Fetch(ctx, userID, "reports", &out, func(ctx context.Context) (any, error) {
		return s.buildReports(ctx, userID)
	})
	return out, err
}

// Invalidate drops the cached figures of userID.
func (s *Service) Invalidate(ctx context.Context, userID int64) error {
	return s.cache.Bump(ctx, userID)
}

func (s *Service) buildDashboard(ctx context.Context, userID int64) (Dashboard, error) {
	now := s.now()
	months := LastMonths(now, trendMonths, "Jan 2006")
	var (
		totals  []StatusTotal
		active  int
		revenue []MonthAmount
		recent  []RecentInvoice
		top     []ClientRevenue
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.store.StatusTotals(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		active, err = s.store.ActiveClients(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		revenue, err = s.store.MonthlyRevenue(ctx, userID, months[0].Start, months[len(months)-1].End, true)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.store.RecentInvoices(ctx, userID, 5)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = s.store.TopClients(ctx, userID, 3, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	count := 0
	for _, t := range totals {
		count += t.Count
	}
	for i := range recent {
		recent[i].StatusClass = recent[i].Status.StatusClass()
	}
	return Dashboard{
		TotalInvoices:   count,
		PaidAmount:      totalFor(totals, invoicing.StatusPaid).Amount,
		PendingAmount:   totalFor(totals, invoicing.StatusPending).Amount,
		OverdueAmount:   totalFor(totals, invoicing.StatusOverdue).Amount,
		ActiveClients:   active,
		StatusBreakdown: breakdown(totals),
		MonthlyRevenue:  fillMonths(months, byMonth(revenue)),
		RecentInvoices:  nonNil(recent),
		TopClients:      nonNil(top),
		GeneratedAt:     now,
	}, nil
}

func (s *Service) buildReports(ctx context.Context, userID int64) (Reports, error) {
	now := s.now()
	months := LastMonths(now, trendMonths, "Jan")
	var (
		totals  []StatusTotal
		revenue []MonthAmount
		top     []ClientRevenue
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.store.StatusTotals(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		revenue, err = s.store.MonthlyRevenue(ctx, userID, months[0].Start, months[len(months)-1].End, false)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = s.store.TopClients(ctx, userID, 5, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return Reports{}, err
	}

	clients := make([]ClientRevenue, 0, len(top))
	for _, c := range top {
		if !c.Revenue.IsPositive() {
			continue
		}
		c.Name = shortName(c.Name)
		clients = append(clients, c)
	}
	return Reports{
		TotalRevenue:    totalFor(totals, invoicing.StatusPaid).Amount,
		PaidCount:       totalFor(totals, invoicing.StatusPaid).Count,
		PendingCount:    totalFor(totals, invoicing.StatusPending).Count,
		OverdueCount:    totalFor(totals, invoicing.StatusOverdue).Count,
		DraftCount:      totalFor(totals, invoicing.StatusDraft).Count,
		StatusBreakdown: breakdown(totals),
		MonthlyRevenue:  fillMonths(months, byMonth(revenue)),
		ClientRevenue:   clients,
		GeneratedAt:     now,
	}, nil
}

func byMonth(rows []MonthAmount) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		key := shared.NewDate(r.Start.Year(), r.Start.Month(), 1).String()
		out[key] = out[key].Add(r.Amount)
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
