package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Store reads candidates and records sent reminders.
type Store interface {
	Candidates(ctx context.Context, w Window) ([]Candidate, error)
	MarkReminded(ctx context.Context, invoiceID int64, at time.Time, overdue bool) error
}

// Notifier delivers a reminder to its recipient.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// SweepResult counts the outcome of one sweep.
type SweepResult struct {
	Found   int  `json:"found"`
	Sent    int  `json:"sent"`
	Skipped int  `json:"skipped"`
	Errors  int  `json:"errors"`
	DryRun  bool `json:"dry_run"`
}

// Sweeper runs reminder sweeps.
type Sweeper struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	baseURL  string
}

// NewSweeper builds a sweeper. baseURL prefixes invoice links in messages.
func NewSweeper(store Store, notifier Notifier, logger *slog.Logger, baseURL string) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, notifier: notifier, logger: logger, baseURL: strings.TrimRight(baseURL, "/")}
}

// Run selects the invoices needing a reminder and notifies their owners.
// Failures on one invoice are counted and do not stop the sweep. A dry run
// reports what would be sent and writes nothing.
func (s *Sweeper) Run(ctx context.Context, opts Options) (SweepResult, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	w := NewWindow(opts)
	candidates, err := s.store.Candidates(ctx, w)
	if err != nil {
		return SweepResult{}, fmt.Errorf("reminders: load candidates: %w", err)
	}
	selected := Select(candidates, w)
	result := SweepResult{Found: len(selected), DryRun: opts.DryRun}

	logger := s.logger.With(slog.Bool("dry_run", opts.DryRun), slog.String("today", w.Today.String()))
	for _, sel := range selected {
		log := logger.With(slog.String("invoice_number", sel.InvoiceNumber), slog.String("kind", string(sel.Kind)))
		if sel.OwnerEmail == "" {
			log.Warn("skipping reminder: owner has no email")
			result.Skipped++
			continue
		}
		reminder := s.reminderFor(sel, w)
		if opts.DryRun {
			log.Info("would send reminder", slog.String("to", reminder.To))
			result.Sent++
			continue
		}
		if err := s.notifier.Notify(ctx, reminder); err != nil {
			log.Error("send reminder", slog.Any("error", err))
			result.Errors++
			continue
		}
		if err := s.store.MarkReminded(ctx, sel.InvoiceID, opts.Now, reminder.Overdue()); err != nil {
			log.Error("mark reminder sent", slog.Any("error", err))
			result.Errors++
			continue
		}
		log.Info("reminder sent", slog.String("to", reminder.To))
		result.Sent++
	}
	logger.Info("reminder sweep finished",
		slog.Int("found", result.Found),
		slog.Int("sent", result.Sent),
		slog.Int("skipped", result.Skipped),
		slog.Int("errors", result.Errors),
	)
	return result, nil
}

func (s *Sweeper) reminderFor(sel Selected, w Window) Reminder {
	days := int(sel.DueDate.Sub(w.Today.Time).Hours() / 24)
	r := Reminder{
		InvoiceID:     sel.InvoiceID,
		InvoiceNumber: sel.InvoiceNumber,
		To:            sel.OwnerEmail,
		OwnerName:     sel.OwnerName,
		ClientName:    sel.ClientName,
		Total:         sel.Total,
		DueDate:       sel.DueDate,
		DaysUntilDue:  days,
	}
	if s.baseURL != "" {
		r.URL = fmt.Sprintf("%s/invoices/%d", s.baseURL, sel.InvoiceID)
	}
	return r
}
