package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"smart-vault-backend/internal/models"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS adjustments (
    id         TEXT PRIMARY KEY,
    kind       TEXT    NOT NULL,
    owner      TEXT    NOT NULL,
    vault      TEXT    NOT NULL,
    amount     TEXT    NOT NULL,
    authority  TEXT    NOT NULL,
    slot       INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_adjustments_owner ON adjustments(owner, created_at DESC);
`

const (
	auditWriteAttempts = 3
	auditRetryBackoff  = 20 * time.Millisecond
)

// AuditLog records every out-of-band balance adjustment in SQLite.
type AuditLog struct {
	db       *sql.DB
	mu       sync.Mutex
	failures atomic.Uint64
	logger   *slog.Logger
}

func OpenAuditLog(dsn string) (*AuditLog, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open audit db %q", dsn)
	}
	// SQLite is single-writer; one connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "apply audit schema")
	}
	return &AuditLog{db: db, logger: slog.Default().With("component", "audit")}, nil
}

func (a *AuditLog) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Record stores one adjustment. Amounts are kept as decimal text since
// SQLite integers are signed. Recording an id twice is a no-op.
func (a *AuditLog) Record(ctx context.Context, evt *models.AdjustmentEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, err := a.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO adjustments (id, kind, owner, vault, amount, authority, slot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		evt.ID,
		string(evt.Kind),
		evt.Owner.String(),
		evt.Vault.String(),
		strconv.FormatUint(evt.Amount, 10),
		evt.Authority.String(),
		int64(evt.Slot),
		evt.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return errors.Wrapf(err, "insert adjustment %s", evt.ID)
	}
	return nil
}

// Failures counts adjustments that could not be written after retrying.
func (a *AuditLog) Failures() uint64 {
	return a.failures.Load()
}

func (a *AuditLog) recordWithRetry(ctx context.Context, evt *models.AdjustmentEvent) {
	var err error
	for attempt := 1; attempt <= auditWriteAttempts; attempt++ {
		if err = a.Record(ctx, evt); err == nil {
			return
		}
		if attempt < auditWriteAttempts {
			time.Sleep(time.Duration(attempt) * auditRetryBackoff)
		}
	}
	a.failures.Add(1)
	a.logger.Error("adjustment not recorded", "id", evt.ID, "owner", evt.Owner, "amount", evt.Amount,
		"kind", evt.Kind, "error", err)
}

// Publish implements ledger.EventSink. Only adjustment events are kept.
func (a *AuditLog) Publish(ctx context.Context, events []models.Event) {
	for _, evt := range events {
		if adj, ok := evt.(*models.AdjustmentEvent); ok {
			a.recordWithRetry(ctx, adj)
		}
	}
}

// Consume records adjustments arriving on the shared events channel, so
// every replica keeps the full history regardless of which one ran the call.
func (a *AuditLog) Consume(env *models.EventEnvelope) {
	if env.Type != models.EventAdjustment {
		return
	}
	var adj models.AdjustmentEvent
	if err := json.Unmarshal(env.Data, &adj); err != nil {
		a.failures.Add(1)
		a.logger.Error("malformed adjustment event", "error", err)
		return
	}
	a.recordWithRetry(context.Background(), &adj)
}

// List returns an owner's adjustments, newest first. A zero owner lists all.
func (a *AuditLog) List(ctx context.Context, owner models.Identity, limit int) ([]*models.AdjustmentEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, kind, owner, vault, amount, authority, slot, created_at FROM adjustments`
	args := []any{}
	if !owner.IsZero() {
		query += ` WHERE owner = ?`
		args = append(args, owner.String())
	}
	query += ` ORDER BY created_at DESC, slot DESC LIMIT ?`
	args = append(args, limit)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query adjustments")
	}
	defer rows.Close()

	var out []*models.AdjustmentEvent
	for rows.Next() {
		var (
			evt                    models.AdjustmentEvent
			kind, ownerText, vault string
			amount, authority      string
			slot, createdAt        int64
		)
		if err := rows.Scan(&evt.ID, &kind, &ownerText, &vault, &amount, &authority, &slot, &createdAt); err != nil {
			return nil, errors.Wrap(err, "scan adjustment")
		}
		evt.Kind = models.AdjustmentKind(kind)
		if evt.Owner, err = models.ParseIdentity(ownerText); err != nil {
			return nil, errors.Wrapf(err, "adjustment %s owner", evt.ID)
		}
		if evt.Vault, err = models.ParseAddress(vault); err != nil {
			return nil, errors.Wrapf(err, "adjustment %s vault", evt.ID)
		}
		if evt.Authority, err = models.ParseIdentity(authority); err != nil {
			return nil, errors.Wrapf(err, "adjustment %s authority", evt.ID)
		}
		if evt.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
			return nil, errors.Wrapf(err, "adjustment %s amount", evt.ID)
		}
		evt.Slot = uint64(slot)
		evt.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, &evt)
	}
	return out, errors.Wrap(rows.Err(), "iterate adjustments")
}
