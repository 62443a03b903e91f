package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/id"
)

func TestLifecycle_SoftDeleteAndRestore(t *testing.T) {
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	b := NewBaseEntity(created)

	require.NoError(t, b.CheckInvariant())
	assert.False(t, b.IsDeleted())
	assert.Nil(t, b.DeletedAt)

	deletedAt := created.Add(time.Hour)
	require.NoError(t, b.MarkDeleted(deletedAt))
	assert.True(t, b.Deleted)
	require.NotNil(t, b.DeletedAt)
	assert.Equal(t, deletedAt, *b.DeletedAt)
	assert.Equal(t, deletedAt, b.UpdatedAt)
	require.NoError(t, b.CheckInvariant())

	restoredAt := deletedAt.Add(time.Hour)
	assert.True(t, b.Restore(restoredAt))
	assert.False(t, b.Deleted)
	assert.Nil(t, b.DeletedAt)
	assert.Equal(t, restoredAt, b.UpdatedAt)
	require.NoError(t, b.CheckInvariant())
}

func TestLifecycle_DoubleDeleteRejected(t *testing.T) {
	now := time.Now()
	b := NewBaseEntity(now)
	require.NoError(t, b.MarkDeleted(now))
	firstDeletedAt := *b.DeletedAt

	err := b.MarkDeleted(now.Add(time.Minute))
	assert.ErrorIs(t, err, ErrAlreadyDeleted)
	assert.Equal(t, firstDeletedAt, *b.DeletedAt)
}

func TestLifecycle_RestoreActiveIsNoop(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	b := NewBaseEntity(created)

	assert.False(t, b.Restore(created.Add(time.Hour)))
	assert.Equal(t, created, b.UpdatedAt)
	assert.Nil(t, b.DeletedAt)
}

func TestLifecycle_CheckInvariant(t *testing.T) {
	now := time.Now()
	l := Lifecycle{Deleted: true}
	assert.ErrorIs(t, l.CheckInvariant(), ErrLifecycleInvariant)

	l = Lifecycle{DeletedAt: &now}
	assert.ErrorIs(t, l.CheckInvariant(), ErrLifecycleInvariant)
}

func TestOwned_AssignOwnerOnce(t *testing.T) {
	first, second := id.New(), id.New()
	var o Owned

	o.AssignOwner(first)
	o.AssignOwner(second)
	assert.Equal(t, first, o.OwnerID())
}
