package reminders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/shared"
)

var now = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func candidate(id int64, due shared.Date, status invoicing.Status) Candidate {
	return Candidate{
		InvoiceID:     id,
		InvoiceNumber: fmt.Sprintf("INV-2025-%03d", id),
		CompanyID:     ptr(int64(10)),
		ClientName:    "Globex",
		OwnerEmail:    "owner@example.com",
		DueDate:       due,
		Total:         decimal.NewFromInt(1180),
		Status:        status,
	}
}

func TestClassify(t *testing.T) {
	w := NewWindow(Options{DaysBefore: 3, DaysAfter: 0, Now: now})
	upcoming := shared.NewDate(2025, 3, 13)
	today := shared.NewDate(2025, 3, 10)
	past := shared.NewDate(2025, 3, 1)

	cases := []struct {
		name string
		c    Candidate
		kind Kind
		ok   bool
	}{
		{"due in three days pending", candidate(1, upcoming, invoicing.StatusPending), KindUpcoming, true},
		{"due in three days overdue", candidate(2, upcoming, invoicing.StatusOverdue), KindUpcoming, true},
		{"due in three days draft", candidate(3, upcoming, invoicing.StatusDraft), "", false},
		{"due in two days", candidate(4, upcoming.AddDays(-1), invoicing.StatusPending), "", false},
		{"past due pending", candidate(5, past, invoicing.StatusPending), KindOverdue, true},
		{"due today pending", candidate(6, today, invoicing.StatusPending), KindOverdue, true},
		{"past due already overdue", candidate(7, past, invoicing.StatusOverdue), "", false},
		{"past due paid", candidate(8, past, invoicing.StatusPaid), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, ok := Classify(tc.c, w)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.kind, kind)
		})
	}
}

func TestClassifyExclusions(t *testing.T) {
	w := NewWindow(Options{DaysBefore: 3, Now: now})
	c := candidate(1, shared.NewDate(2025, 3, 1), invoicing.StatusPending)

	noCompany := c
	noCompany.CompanyID = nil
	_, ok := Classify(noCompany, w)
	assert.False(t, ok)

	recent := c
	recent.ReminderSentAt = ptr(now.Add(-23 * time.Hour))
	_, ok = Classify(recent, w)
	assert.False(t, ok, "reminded within 24h")

	stale := c
	stale.ReminderSentAt = ptr(now.Add(-25 * time.Hour))
	_, ok = Classify(stale, w)
	assert.True(t, ok)
}

func TestClassifyDaysAfter(t *testing.T) {
	w := NewWindow(Options{DaysBefore: 3, DaysAfter: 5, Now: now})
	_, ok := Classify(candidate(1, shared.NewDate(2025, 3, 6), invoicing.StatusPending), w)
	assert.False(t, ok, "four days late is inside the grace period")
	_, ok = Classify(candidate(2, shared.NewDate(2025, 3, 5), invoicing.StatusPending), w)
	assert.True(t, ok)
}

type memoryStore struct {
	candidates []Candidate
	marked     map[int64]bool
	markErr    error
}

func (m *memoryStore) Candidates(context.Context, Window) ([]Candidate, error) {
	return m.candidates, nil
}

func (m *memoryStore) MarkReminded(_ context.Context, id int64, _ time.Time, overdue bool) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.marked[id] = overdue
	return nil
}

type recordingNotifier struct {
	sent []Reminder
	fail map[int64]bool
}

func (n *recordingNotifier) Notify(_ context.Context, r Reminder) error {
	if n.fail[r.InvoiceID] {
		return errors.New("smtp down")
	}
	n.sent = append(n.sent, r)
	return nil
}

func newSweeper(store *memoryStore, notifier *recordingNotifier) *Sweeper {
	return NewSweeper(store, notifier, slog.New(slog.NewTextHandler(io.Discard, nil)), "https://billing.example.com/")
}

func TestSweepSendsAndMarks(t *testing.T) {
	noEmail := candidate(3, shared.NewDate(2025, 3, 1), invoicing.StatusPending)
	noEmail.OwnerEmail = ""
	store := &memoryStore{marked: map[int64]bool{}, candidates: []Candidate{
		candidate(1, shared.NewDate(2025, 3, 13), invoicing.StatusPending),
		candidate(2, shared.NewDate(2025, 3, 1), invoicing.StatusPending),
		noEmail,
		candidate(4, shared.NewDate(2025, 3, 1), invoicing.StatusPaid),
		candidate(5, shared.NewDate(2025, 3, 10), invoicing.StatusPending),
	}}
	notifier := &recordingNotifier{fail: map[int64]bool{}}

	res, err := newSweeper(store, notifier).Run(context.Background(), Options{DaysBefore: 3, Now: now})
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Found: 4, Sent: 3, Skipped: 1}, res)

	require.Len(t, notifier.sent, 3)
	assert.Equal(t, 3, notifier.sent[0].DaysUntilDue)
	assert.Equal(t, "Reminder: Invoice INV-2025-001 Due Soon", notifier.sent[0].Subject())
	assert.Equal(t, "https://billing.example.com/invoices/1", notifier.sent[0].URL)
	assert.True(t, notifier.sent[1].Overdue())
	assert.Contains(t, notifier.sent[1].Body(), "is OVERDUE")
	assert.Contains(t, notifier.sent[1].Body(), "₹1,180.00")

	assert.Equal(t, map[int64]bool{1: false, 2: true, 5: false}, store.marked, "due today is stamped but not promoted")
}

func TestSweepDryRunWritesNothing(t *testing.T) {
	store := &memoryStore{marked: map[int64]bool{}, candidates: []Candidate{
		candidate(1, shared.NewDate(2025, 3, 1), invoicing.StatusPending),
	}}
	notifier := &recordingNotifier{}

	res, err := newSweeper(store, notifier).Run(context.Background(), Options{DaysBefore: 3, DryRun: true, Now: now})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.True(t, res.DryRun)
	assert.Empty(t, notifier.sent)
	assert.Empty(t, store.marked)
}

func TestSweepCountsErrors(t *testing.T) {
	store := &memoryStore{marked: map[int64]bool{}, candidates: []Candidate{
		candidate(1, shared.NewDate(2025, 3, 1), invoicing.StatusPending),
		candidate(2, shared.NewDate(2025, 3, 2), invoicing.StatusPending),
	}}
	notifier := &recordingNotifier{fail: map[int64]bool{1: true}}

	res, err := newSweeper(store, notifier).Run(context.Background(), Options{DaysBefore: 3, Now: now})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, map[int64]bool{2: true}, store.marked)

	store.markErr = errors.New("db gone")
	res, err = newSweeper(store, &recordingNotifier{}).Run(context.Background(), Options{DaysBefore: 3, Now: now})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Errors)
}
