package entity

import (
	"errors"
	"time"
)

// ErrAlreadyDeleted is returned when a soft delete targets a deleted record.
var ErrAlreadyDeleted = errors.New("record is already deleted")

// ErrLifecycleInvariant is returned when deleted and deleted_at disagree.
var ErrLifecycleInvariant = errors.New("deleted_at must be set if and only if deleted is true")

// Lifecycle is the system-maintained metadata carried by every record.
//
// DeletedAt is non-nil exactly when Deleted is true. All mutations go through
// the methods below, which keep that invariant.
type Lifecycle struct {
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	Deleted   bool       `db:"deleted"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// LifecycleState returns the receiver; it satisfies HasLifecycle through embedding.
func (l *Lifecycle) LifecycleState() *Lifecycle {
	return l
}

// Stamp initializes a freshly created record.
func (l *Lifecycle) Stamp(now time.Time) {
	now = now.UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	l.Deleted = false
	l.DeletedAt = nil
}

// Touch records an attribute mutation.
func (l *Lifecycle) Touch(now time.Time) {
	l.UpdatedAt = now.UTC()
}

// MarkDeleted transitions the record to the deleted state.
// A second call returns ErrAlreadyDeleted and leaves the record untouched.
func (l *Lifecycle) MarkDeleted(now time.Time) error {
	if l.Deleted {
		return ErrAlreadyDeleted
	}
	now = now.UTC()
	l.Deleted = true
	l.DeletedAt = &now
	l.UpdatedAt = now
	return nil
}

// Restore transitions a deleted record back to active.
// It reports false, without touching UpdatedAt, when the record was already active.
func (l *Lifecycle) Restore(now time.Time) bool {
	if !l.Deleted {
		return false
	}
	l.Deleted = false
	l.DeletedAt = nil
	l.UpdatedAt = now.UTC()
	return true
}

// IsDeleted reports whether the record is soft-deleted.
func (l *Lifecycle) IsDeleted() bool {
	return l.Deleted
}

// CheckInvariant verifies that Deleted and DeletedAt agree.
func (l *Lifecycle) CheckInvariant() error {
	if l.Deleted != (l.DeletedAt != nil) {
		return ErrLifecycleInvariant
	}
	return nil
}
