package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
)

type sampleRecord struct {
	entity.BaseEntity
	entity.Owned

	Title      string  `db:"title"`
	AuthorName string  `db:"author_name" persist:"-"`
	Tags       []id.ID `db:"-"`
	Notes      string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[sampleRecord]()
	assert.Equal(t, []string{
		"id", "created_at", "updated_at", "deleted", "deleted_at", "created_by", "title", "author_name",
	}, cols)
}

func TestExtractWritableColumns_SkipsReadOnly(t *testing.T) {
	cols := ExtractWritableColumns[sampleRecord]()
	assert.NotContains(t, cols, "author_name")
	assert.Contains(t, cols, "title")
	assert.Contains(t, cols, "deleted_at")
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	owner := id.New()
	rec := &sampleRecord{
		BaseEntity: entity.NewBaseEntity(now),
		Owned:      entity.Owned{CreatedBy: owner},
		Title:      "Dune",
		AuthorName: "Frank",
		Notes:      "ignored",
	}
	_ = rec.MarkDeleted(now)

	m := StructToMap(rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, owner, m["created_by"])
	assert.Equal(t, "Dune", m["title"])
	assert.Equal(t, true, m["deleted"])
	assert.Equal(t, rec.DeletedAt, m["deleted_at"])
	assert.NotContains(t, m, "author_name")
	assert.Len(t, m, 7)
}

func TestStructToMap_NilOwnerIsNull(t *testing.T) {
	rec := &sampleRecord{BaseEntity: entity.NewBaseEntity(time.Now()), Title: "Dune"}

	m := StructToMap(rec)

	assert.Contains(t, m, "created_by")
	assert.Nil(t, m["created_by"])
	assert.NotNil(t, m["id"])
}
