// Package audit defines the journal of record lifecycle transitions.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bibliolab/internal/core/id"
)

// Action is the kind of change being recorded.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionSoftDelete Action = "soft_delete"
	ActionRestore    Action = "restore"
	ActionHardDelete Action = "hard_delete"
)

// Event is one recorded change.
type Event struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	ActorID    string
	OccurredAt time.Time

	// Snapshot is the record state after the change (nil for hard deletes).
	Snapshot any
}

// Name returns the routing name of the event, e.g. "book.soft_delete".
func (e Event) Name() string {
	return fmt.Sprintf("%s.%s", e.EntityType, e.Action)
}

// Recorder persists lifecycle events. Implementations are called inside the
// transaction that performs the change.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// Recorders fans an event out to several recorders.
type Recorders []Recorder

// Record calls every recorder and joins their errors.
func (rs Recorders) Record(ctx context.Context, event Event) error {
	var errs []error
	for _, r := range rs {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

// Record does nothing.
func (Nop) Record(context.Context, Event) error { return nil }

var (
	_ Recorder = Recorders(nil)
	_ Recorder = Nop{}
)
