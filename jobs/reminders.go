package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/invoicepro/invoicepro/internal/jobs"
	"github.com/invoicepro/invoicepro/internal/reminders"
)

// Sweeper runs one reminder sweep.
type Sweeper interface {
	Run(ctx context.Context, opts reminders.Options) (reminders.SweepResult, error)
}

// ReminderSweepJob handles TaskReminderSweep.
type ReminderSweepJob struct {
	Sweeper    Sweeper
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	DaysBefore int
	DaysAfter  int
	clock      func() time.Time
}

// NewReminderSweepJob initialises the sweep handler with the configured window.
func NewReminderSweepJob(sweeper Sweeper, logger *slog.Logger, metrics *jobmetrics.Metrics, daysBefore, daysAfter int) *ReminderSweepJob {
	return &ReminderSweepJob{
		Sweeper:    sweeper,
		Logger:     logger,
		Metrics:    metrics,
		DaysBefore: daysBefore,
		DaysAfter:  daysAfter,
		clock:      time.Now,
	}
}

// Handle runs the sweep. Per-invoice failures are counted by the sweep and
// do not fail the task, so the task is only retried when candidates could
// not be loaded.
func (j *ReminderSweepJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Sweeper == nil {
		return errors.New("reminder sweep: handler not configured")
	}
	var payload ReminderSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("reminder sweep: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	opts := reminders.Options{
		DaysBefore: j.DaysBefore,
		DaysAfter:  j.DaysAfter,
		DryRun:     payload.DryRun,
		Now:        j.clock(),
	}
	if payload.DaysBefore != nil {
		opts.DaysBefore = *payload.DaysBefore
	}
	if payload.DaysAfter != nil {
		opts.DaysAfter = *payload.DaysAfter
	}

	tracker := j.Metrics.Track("reminder_sweep")
	defer func() {
		err = tracker.End(err)
	}()

	result, err := j.Sweeper.Run(ctx, opts)
	if err != nil {
		j.logger().Error("reminder sweep failed", slog.Any("error", err))
		return err
	}
	if !result.DryRun {
		j.Metrics.AddReminders(jobmetrics.OutcomeSent, result.Sent)
		j.Metrics.AddReminders(jobmetrics.OutcomeSkipped, result.Skipped)
		j.Metrics.AddReminders(jobmetrics.OutcomeFailed, result.Errors)
	}
	return nil
}

func (j *ReminderSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// QueueNotifier delivers reminders by enqueueing e-mail tasks, so SMTP
// latency and retries stay out of the sweep.
type QueueNotifier struct {
	client *Client
	today  func() time.Time
}

// NewQueueNotifier builds a notifier on top of client.
func NewQueueNotifier(client *Client) *QueueNotifier {
	return &QueueNotifier{client: client, today: time.Now}
}

// Notify enqueues the reminder e-mail. The task id is derived from the
// invoice and day, so a retried sweep cannot send the same reminder twice.
func (n *QueueNotifier) Notify(ctx context.Context, r reminders.Reminder) error {
	id := fmt.Sprintf("reminder:%d:%s", r.InvoiceID, n.today().UTC().Format("2006-01-02"))
	_, err := n.client.Enqueue(ctx, SendEmailPayload{
		To:        r.To,
		Subject:   r.Subject(),
		Body:      r.Body(),
		InvoiceID: r.InvoiceID,
	}, asynq.TaskID(id))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// SendEmailJob handles TaskTypeSendEmail.
type SendEmailJob struct {
	Mailer  Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSendEmailJob initialises the e-mail handler.
func NewSendEmailJob(mailer Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *SendEmailJob {
	return &SendEmailJob{Mailer: mailer, Logger: logger, Metrics: metrics}
}

// Handle sends one message. Undecodable payloads are dropped.
func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("send email: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track("send_email")
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := j.Mailer.Send(ctx, payload); err != nil {
		logger.Error("send email", slog.String("to", payload.To), slog.Int64("invoice_id", payload.InvoiceID), slog.Any("error", err))
		return err
	}
	logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}
