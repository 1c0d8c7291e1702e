package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Audited entity names.
const (
	EntityInvoice       = "invoice"
	EntityPayment       = "payment"
	EntityPurchaseOrder = "purchase_order"
)

// AuditLog is one row of audit_logs.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditLogger writes audit_logs rows through a pool or a transaction.
type AuditLogger struct {
	db execer
}

// NewAuditLogger returns a logger writing through db.
func NewAuditLogger(db execer) *AuditLogger {
	return &AuditLogger{db: db}
}

// Record inserts the entry. A zero At is stamped by the database.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit: logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit: action, entity and entity id are required")
	}
	var meta []byte
	if len(log.Meta) > 0 {
		var err error
		if meta, err = json.Marshal(log.Meta); err != nil {
			return err
		}
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err := l.db.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, log.ActorID, log.Action, log.Entity, log.EntityID, meta, at)
	return err
}

// AuditRecorder is the port services depend on.
type AuditRecorder interface {
	Record(ctx context.Context, log AuditLog) error
}

// NopAudit discards entries.
type NopAudit struct{}

// Record implements AuditRecorder.
func (NopAudit) Record(context.Context, AuditLog) error { return nil }

// Audit records a change after it has been committed. A failed audit write
// is logged and never undoes the change.
func Audit(ctx context.Context, rec AuditRecorder, actorID int64, entity, action string, id int64, meta map[string]any) {
	if rec == nil {
		return
	}
	err := rec.Record(ctx, AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		slog.Default().Warn("audit write failed",
			slog.String("entity", entity), slog.String("action", action), slog.Int64("entity_id", id), slog.Any("error", err))
	}
}
