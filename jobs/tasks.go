package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueMail carries outgoing e-mail so a slow SMTP server does not hold
	// up other work.
	QueueMail = "mail"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskReminderSweep runs the invoice reminder sweep.
	TaskReminderSweep = "invoice:reminder_sweep"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	InvoiceID int64  `json:"invoice_id,omitempty"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	if payload.To == "" {
		return nil, fmt.Errorf("jobs: send email: recipient required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// ReminderSweepPayload overrides the configured sweep window.
type ReminderSweepPayload struct {
	DaysBefore *int `json:"days_before,omitempty"`
	DaysAfter  *int `json:"days_after,omitempty"`
	DryRun     bool `json:"dry_run,omitempty"`
}

// NewReminderSweepTask constructs the sweep task. Zero payload fields fall
// back to the worker configuration.
func NewReminderSweepTask(payload ReminderSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReminderSweep, data), nil
}
