package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/invoicepro/invoicepro/internal/jobs"
	"github.com/invoicepro/invoicepro/internal/reminders"
	"github.com/invoicepro/invoicepro/internal/shared"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type enqueued struct {
	task *asynq.Task
	opts map[asynq.OptionType]any
}

type fakeEnqueuer struct {
	tasks []enqueued
	seen  map[string]bool
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	values := map[asynq.OptionType]any{}
	for _, o := range opts {
		values[o.Type()] = o.Value()
	}
	id, _ := values[asynq.TaskIDOpt].(string)
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[id] {
		return nil, asynq.ErrTaskIDConflict
	}
	f.seen[id] = true
	f.tasks = append(f.tasks, enqueued{task: task, opts: values})
	return &asynq.TaskInfo{ID: id, Type: task.Type()}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func TestClientEnqueueAssignsIDAndQueue(t *testing.T) {
	fake := &fakeEnqueuer{}
	client := NewClientFrom(fake)

	info, err := client.Enqueue(context.Background(), SendEmailPayload{To: "a@example.com", Subject: "hi"})
	require.NoError(t, err)
	assert.Len(t, info.ID, 36)
	assert.Equal(t, QueueMail, fake.tasks[0].opts[asynq.QueueOpt])

	_, err = client.Enqueue(context.Background(), SendEmailPayload{})
	assert.Error(t, err, "recipient is required")
}

func TestQueueNotifierDedupesPerDay(t *testing.T) {
	fake := &fakeEnqueuer{}
	n := NewQueueNotifier(NewClientFrom(fake))
	n.today = func() time.Time { return time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) }

	r := reminders.Reminder{
		InvoiceID:     42,
		InvoiceNumber: "INV-2025-042",
		To:            "owner@example.com",
		ClientName:    "Globex",
		Total:         decimal.NewFromInt(1180),
		DueDate:       shared.NewDate(2025, 3, 1),
		DaysUntilDue:  -9,
	}
	require.NoError(t, n.Notify(context.Background(), r))
	require.NoError(t, n.Notify(context.Background(), r), "a conflict means it is already queued")
	require.Len(t, fake.tasks, 1)

	got := fake.tasks[0]
	assert.Equal(t, "reminder:42:2025-03-10", got.opts[asynq.TaskIDOpt])
	var payload SendEmailPayload
	require.NoError(t, json.Unmarshal(got.task.Payload(), &payload))
	assert.Equal(t, "Reminder: Invoice INV-2025-042 Overdue", payload.Subject)
	assert.Equal(t, int64(42), payload.InvoiceID)
}

type fakeSweeper struct {
	opts   reminders.Options
	result reminders.SweepResult
	err    error
}

func (f *fakeSweeper) Run(_ context.Context, opts reminders.Options) (reminders.SweepResult, error) {
	f.opts = opts
	return f.result, f.err
}

func TestReminderSweepJobUsesConfigAndOverrides(t *testing.T) {
	sweeper := &fakeSweeper{result: reminders.SweepResult{Found: 2, Sent: 2}}
	job := NewReminderSweepJob(sweeper, discard, jobmetrics.NewMetrics(prometheus.NewRegistry()), 3, 0)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskReminderSweep, nil)))
	assert.Equal(t, 3, sweeper.opts.DaysBefore)
	assert.Equal(t, 0, sweeper.opts.DaysAfter)
	assert.False(t, sweeper.opts.Now.IsZero())

	days := 7
	task, err := NewReminderSweepTask(ReminderSweepPayload{DaysBefore: &days, DryRun: true})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 7, sweeper.opts.DaysBefore)
	assert.True(t, sweeper.opts.DryRun)
}

func TestReminderSweepJobErrors(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("db down")}
	job := NewReminderSweepJob(sweeper, discard, nil, 3, 0)
	assert.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskReminderSweep, nil)))

	err := job.Handle(context.Background(), asynq.NewTask(TaskReminderSweep, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type recordingMailer struct {
	sent []SendEmailPayload
	err  error
}

func (m *recordingMailer) Send(_ context.Context, p SendEmailPayload) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, p)
	return nil
}

func TestSendEmailJob(t *testing.T) {
	mailer := &recordingMailer{}
	job := NewSendEmailJob(mailer, discard, nil)

	task, err := NewSendEmailTask(SendEmailPayload{To: "a@example.com", Subject: "s", Body: "b"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, mailer.sent, 1)

	mailer.err = errors.New("421 try later")
	assert.Error(t, job.Handle(context.Background(), task))
	assert.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("nope"))), asynq.SkipRetry)
}

func TestSMTPMailerComposesMessage(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Username: "u", Password: "p", From: "InvoicePro <billing@example.com>"})
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) }

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Equal(t, "billing@example.com", from)
		return nil
	}

	require.NoError(t, m.Send(context.Background(), SendEmailPayload{
		To:      "Owner <owner@example.com>",
		Subject: "Reminder: Invoice INV-1 Due Soon",
		Body:    "line one\nline two",
	}))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"owner@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "From: \"InvoicePro\" <billing@example.com>\r\n")
	assert.Contains(t, gotMsg, "Subject: Reminder: Invoice INV-1 Due Soon\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\nline one\r\nline two"))

	assert.Error(t, m.Send(context.Background(), SendEmailPayload{To: "not an address"}))
	_, err = NewSMTPMailer(SMTPConfig{From: ""})
	assert.Error(t, err)
}

type fakeInspector map[string]*asynq.QueueInfo

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if f == nil {
		return nil, errors.New("redis down")
	}
	info, ok := f[queue]
	if !ok {
		return nil, asynq.ErrQueueNotFound
	}
	return info, nil
}

func TestHealthHandler(t *testing.T) {
	serve := func(i QueueInspector) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Route("/jobs", NewHandler(i, discard).MountRoutes)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
		return rec
	}

	rec := serve(fakeInspector{QueueDefault: {Queue: QueueDefault, Pending: 4, Archived: 1}})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Queues []queueHealth `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []queueHealth{{Queue: QueueDefault, Pending: 4, Failed: 1}, {Queue: QueueMail}}, body.Queues)

	rec = serve(fakeInspector(nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
