package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/id"
	"bibliolab/internal/domain/audit"
)

func newJournal(t *testing.T) *AuditJournal {
	t.Helper()
	j, err := NewAuditJournal(nil)
	require.NoError(t, err)
	return j
}

func TestAuditJournal_SmallSnapshotStaysPlain(t *testing.T) {
	j := newJournal(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	entry, err := j.entryFor(audit.Event{
		EntityType: "book",
		EntityID:   id.New(),
		Action:     audit.ActionSoftDelete,
		ActorID:    "u-1",
		OccurredAt: at,
		Snapshot:   map[string]any{"title": "Dune"},
	})
	require.NoError(t, err)

	assert.Equal(t, CompressionNone, entry.CompressionAlgo)
	assert.JSONEq(t, `{"title":"Dune"}`, string(entry.Changes))
	assert.Nil(t, entry.ChangesCompressed)
	assert.Equal(t, "u-1", *entry.UserID)
	assert.Equal(t, at, entry.CreatedAt)
}

func TestAuditJournal_LargeSnapshotRoundTrips(t *testing.T) {
	j := newJournal(t)
	big := map[string]any{"description": strings.Repeat("lorem ipsum ", 2000)}

	entry, err := j.entryFor(audit.Event{EntityType: "book", EntityID: id.New(), Action: audit.ActionUpdate, Snapshot: big})
	require.NoError(t, err)

	assert.Equal(t, CompressionZstd, entry.CompressionAlgo)
	assert.Nil(t, entry.Changes)
	assert.Less(t, len(entry.ChangesCompressed), DefaultCompressThreshold)
	assert.Nil(t, entry.UserID)

	require.NoError(t, j.inflate(&entry))
	assert.Contains(t, string(entry.Changes), "lorem ipsum")
	assert.Nil(t, entry.ChangesCompressed)
}

func TestAuditJournal_HardDeleteHasNoChanges(t *testing.T) {
	j := newJournal(t)

	entry, err := j.entryFor(audit.Event{EntityType: "author", EntityID: id.New(), Action: audit.ActionHardDelete})
	require.NoError(t, err)
	assert.Nil(t, entry.Changes)
	assert.Equal(t, CompressionNone, entry.CompressionAlgo)
}
