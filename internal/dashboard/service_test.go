package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/shared"
)

var now = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

type mockStore struct {
	mu        sync.Mutex
	calls     int
	totals    []StatusTotal
	revenue   []MonthAmount
	paidOnly  []bool
	from, to  shared.Date
	top       []ClientRevenue
	recent    []RecentInvoice
	totalsErr error
}

func (m *mockStore) StatusTotals(context.Context, int64) ([]StatusTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.totals, m.totalsErr
}

func (m *mockStore) ActiveClients(context.Context) (int, error) { return 4, nil }

func (m *mockStore) MonthlyRevenue(_ context.Context, _ int64, from, to shared.Date, paidOnly bool) ([]MonthAmount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.from, m.to = from, to
	m.paidOnly = append(m.paidOnly, paidOnly)
	return m.revenue, nil
}

func (m *mockStore) RecentInvoices(context.Context, int64, int) ([]RecentInvoice, error) {
	return m.recent, nil
}

func (m *mockStore) TopClients(context.Context, int64, int, bool) ([]ClientRevenue, error) {
	return m.top, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newStore() *mockStore {
	return &mockStore{
		totals: []StatusTotal{
			{Status: invoicing.StatusPaid, Count: 3, Amount: dec("3540")},
			{Status: invoicing.StatusPending, Count: 2, Amount: dec("1180")},
			{Status: invoicing.StatusDraft, Count: 1, Amount: dec("0")},
		},
		revenue: []MonthAmount{
			{Start: shared.NewDate(2025, 1, 1), Amount: dec("1180")},
			{Start: shared.NewDate(2025, 3, 1), Amount: dec("2360")},
		},
		recent: []RecentInvoice{{ID: 1, InvoiceNumber: "INV-2025-001", Status: invoicing.StatusOverdue}},
		top: []ClientRevenue{
			{ClientID: 1, Name: "A very long client name indeed", Revenue: dec("3540")},
			{ClientID: 2, Name: "Idle", Revenue: dec("0")},
		},
	}
}

func newRedisCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestLastMonthsUsesCalendarMonths(t *testing.T) {
	months := LastMonths(time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC), 6, "Jan 2006")
	require.Len(t, months, 6)
	assert.Equal(t, "Oct 2024", months[0].Label)
	assert.Equal(t, shared.NewDate(2024, 10, 1), months[0].Start)
	assert.Equal(t, shared.NewDate(2024, 10, 31), months[0].End)
	assert.Equal(t, shared.NewDate(2025, 2, 28), months[4].End)
	assert.Equal(t, "Mar 2025", months[5].Label)
}

func TestDashboard(t *testing.T) {
	store := newStore()
	svc := NewService(store, nil).WithClock(func() time.Time { return now })

	d, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 6, d.TotalInvoices)
	assert.True(t, d.PaidAmount.Equal(dec("3540")))
	assert.True(t, d.OverdueAmount.IsZero())
	assert.Equal(t, 4, d.ActiveClients)
	assert.Equal(t, map[invoicing.Status]int{"PAID": 3, "PENDING": 2, "OVERDUE": 0, "DRAFT": 1}, d.StatusBreakdown)

	require.Len(t, d.MonthlyRevenue, 6)
	assert.Equal(t, "Oct 2024", d.MonthlyRevenue[0].Month)
	assert.True(t, d.MonthlyRevenue[3].Revenue.Equal(dec("1180")))
	assert.True(t, d.MonthlyRevenue[4].Revenue.IsZero())
	assert.True(t, d.MonthlyRevenue[5].Revenue.Equal(dec("2360")))
	assert.Equal(t, []bool{true}, store.paidOnly)
	assert.Equal(t, shared.NewDate(2024, 10, 1), store.from)
	assert.Equal(t, shared.NewDate(2025, 3, 31), store.to)

	assert.Equal(t, "overdue", d.RecentInvoices[0].StatusClass)
}

func TestReports(t *testing.T) {
	store := newStore()
	svc := NewService(store, nil).WithClock(func() time.Time { return now })

	rep, err := svc.Reports(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, rep.TotalRevenue.Equal(dec("3540")))
	assert.Equal(t, 3, rep.PaidCount)
	assert.Equal(t, 1, rep.DraftCount)
	assert.Equal(t, "Oct", rep.MonthlyRevenue[0].Month)
	assert.Equal(t, []bool{false}, store.paidOnly)
	require.Len(t, rep.ClientRevenue, 1, "clients without revenue are dropped")
	assert.Equal(t, "A very long client n...", rep.ClientRevenue[0].Name)
}

func TestDashboardIsCachedUntilBumped(t *testing.T) {
	cache, mr := newRedisCache(t)
	store := newStore()
	svc := NewService(store, cache).WithClock(func() time.Time { return now })
	ctx := context.Background()

	first, err := svc.Dashboard(ctx, 1)
	require.NoError(t, err)
	second, err := svc.Dashboard(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.True(t, second.PaidAmount.Equal(first.PaidAmount))
	assert.True(t, mr.Exists("invoicepro:dashboard:1:summary:v0"))

	_, err = svc.Dashboard(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls, "users do not share entries")

	require.NoError(t, svc.Invalidate(ctx, 1))
	_, err = svc.Dashboard(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, store.calls)
	assert.True(t, mr.Exists("invoicepro:dashboard:1:summary:v1"))
}

func TestDashboardServesUncachedWhenRedisIsDown(t *testing.T) {
	cache, mr := newRedisCache(t)
	mr.Close()
	store := newStore()
	svc := NewService(store, cache).WithClock(func() time.Time { return now })

	_, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestDashboardErrorIsNotCached(t *testing.T) {
	cache, _ := newRedisCache(t)
	store := newStore()
	store.totalsErr = errors.New("db gone")
	svc := NewService(store, cache)

	_, err := svc.Dashboard(context.Background(), 1)
	require.Error(t, err)

	store.totalsErr = nil
	_, err = svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
}

func TestHandlers(t *testing.T) {
	cache, mr := newRedisCache(t)
	svc := NewService(newStore(), cache).WithClock(func() time.Time { return now })
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	h.Dashboard(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = req.WithContext(shared.ContextWithUser(req.Context(), 1))
	rec = httptest.NewRecorder()
	h.Dashboard(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 6, body["total_invoices"])

	rec = httptest.NewRecorder()
	h.Reports(rec, httptest.NewRequest(http.MethodGet, "/reports", nil).WithContext(req.Context()))
	require.Equal(t, http.StatusOK, rec.Code)

	write := h.InvalidateOnWrite(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	post := httptest.NewRequest(http.MethodPost, "/invoices", nil).WithContext(req.Context())
	write.ServeHTTP(httptest.NewRecorder(), post)
	v, err := mr.Get("invoicepro:dashboard:1:version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	failing := h.InvalidateOnWrite(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	failing.ServeHTTP(httptest.NewRecorder(), post)
	v, _ = mr.Get("invoicepro:dashboard:1:version")
	assert.Equal(t, "1", v)
}
