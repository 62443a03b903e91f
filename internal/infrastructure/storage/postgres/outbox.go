package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"bibliolab/internal/core/id"
	"bibliolab/internal/domain/audit"
	"bibliolab/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// MaxOutboxRetries is the number of failed deliveries after which a message is parked as failed.
const MaxOutboxRetries = 5

// OutboxMessage is a row of sys_outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// EventPayload is the JSON body of an outbox message.
type EventPayload struct {
	Entity     string       `json:"entity"`
	EntityID   id.ID        `json:"entity_id"`
	Action     audit.Action `json:"action"`
	ActorID    string       `json:"actor_id,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// OutboxRecorder writes every lifecycle event to sys_outbox in the caller's transaction.
type OutboxRecorder struct {
	txManager *TxManager
}

var _ audit.Recorder = (*OutboxRecorder)(nil)

// NewOutboxRecorder creates a new outbox recorder.
func NewOutboxRecorder(txManager *TxManager) *OutboxRecorder {
	return &OutboxRecorder{txManager: txManager}
}

// Record implements audit.Recorder. It must run inside a transaction.
func (r *OutboxRecorder) Record(ctx context.Context, e audit.Event) error {
	tx := r.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox record requires transaction context")
	}

	payload, err := json.Marshal(EventPayload{
		Entity:     e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		ActorID:    e.ActorID,
		OccurredAt: e.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id.New(), e.EntityType, e.EntityID, e.Name(), payload, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler delivers one message. A returned error schedules a retry.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

// Handle calls f.
func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// OutboxRelay claims pending messages with FOR UPDATE SKIP LOCKED, so several
// workers can drain the table concurrently.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
	clock     func() time.Time
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		txManager: txManager,
		batchSize: batchSize,
		handler:   handler,
		clock:     time.Now,
	}
}

// ProcessBatch delivers up to batchSize pending messages and returns how many succeeded.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)

		var messages []*OutboxMessage
		err := pgxscan.Select(ctx, q, &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= $2)
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED`,
			OutboxStatusPending, r.clock().UTC(), r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.deliver(ctx, q, msg); err != nil {
				return err
			}
			if msg.Status == OutboxStatusPublished {
				processed++
			}
		}
		return nil
	})
	return processed, err
}

// deliver hands msg to the handler and records the outcome. Only storage
// errors are returned; handler failures become retries.
func (r *OutboxRelay) deliver(ctx context.Context, q Querier, msg *OutboxMessage) error {
	now := r.clock().UTC()

	if herr := r.handler.Handle(ctx, msg); herr != nil {
		status := NextOutboxStatus(msg.RetryCount + 1)
		errStr := herr.Error()
		logger.Warn(ctx, "outbox delivery failed",
			"message_id", msg.ID,
			"event", msg.EventType,
			"retry", msg.RetryCount+1,
			"error", herr)

		_, err := q.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = retry_count + 1,
			    last_error = $1,
			    next_retry_at = $2,
			    status = $3
			WHERE id = $4`,
			errStr, now.Add(RetryBackoff(msg.RetryCount)), status, msg.ID)
		if err != nil {
			return fmt.Errorf("update failed outbox message: %w", err)
		}
		msg.Status = status
		return nil
	}

	if _, err := q.Exec(ctx, `UPDATE sys_outbox SET status = $1, published_at = $2 WHERE id = $3`,
		OutboxStatusPublished, now, msg.ID); err != nil {
		return fmt.Errorf("mark outbox message published: %w", err)
	}
	msg.Status = OutboxStatusPublished
	msg.PublishedAt = &now
	return nil
}

// RetryBackoff returns the delay before the next attempt: one minute per previous attempt.
func RetryBackoff(retryCount int) time.Duration {
	return time.Duration(retryCount+1) * time.Minute
}

// NextOutboxStatus returns the status after the given number of failed attempts.
func NextOutboxStatus(attempts int) OutboxStatus {
	if attempts >= MaxOutboxRetries {
		return OutboxStatusFailed
	}
	return OutboxStatusPending
}

// PurgePublished removes published messages older than cutoff.
func (r *OutboxRelay) PurgePublished(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2`,
		OutboxStatusPublished, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return tag.RowsAffected(), nil
}
