package entity

import (
	"context"
	"time"

	"bibliolab/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// HasLifecycle is the capability shared by every soft-deletable record.
// The generic repository and lifecycle service operate on this interface only.
type HasLifecycle interface {
	Validatable

	// GetID returns the primary key.
	GetID() id.ID

	// LifecycleState exposes the mutable lifecycle metadata of the record.
	LifecycleState() *Lifecycle

	// OwnerID returns the user allowed to mutate the record (besides admins).
	OwnerID() id.ID
}

// Ownable is implemented by records that take their owner from the acting user on create.
type Ownable interface {
	AssignOwner(userID id.ID)
}

// BaseEntity contains the fields common to all soft-deletable records.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id"`

	Lifecycle
}

// NewBaseEntity creates a new BaseEntity with a generated ID, stamped at now.
func NewBaseEntity(now time.Time) BaseEntity {
	b := BaseEntity{ID: id.New()}
	b.Stamp(now)
	return b
}

// GetID returns the primary key.
func (b *BaseEntity) GetID() id.ID {
	return b.ID
}
