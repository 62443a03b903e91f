package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/apperror"
)

func TestParseView(t *testing.T) {
	for in, want := range map[string]View{
		"":        ViewDefault,
		"default": ViewDefault,
		"ALL":     ViewAll,
		"deleted": ViewDeleted,
	} {
		got, err := ParseView(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseView("trash")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestView_PartitionsEveryRecord(t *testing.T) {
	for _, deleted := range []bool{false, true} {
		assert.True(t, ViewAll.Includes(deleted))
		// exactly one of default/deleted sees each record
		assert.NotEqual(t, ViewDefault.Includes(deleted), ViewDeleted.Includes(deleted))
	}
}
