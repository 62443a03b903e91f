package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearsBetween(t *testing.T) {
	today := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 25, YearsBetween(time.Date(2001, 10, 16, 0, 0, 0, 0, time.UTC), today))
	assert.Equal(t, 24, YearsBetween(time.Date(2001, 10, 17, 0, 0, 0, 0, time.UTC), today))
	assert.Equal(t, 25, YearsBetween(time.Date(2001, 9, 30, 0, 0, 0, 0, time.UTC), today))
}

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2026, 1, 1, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 1, 8, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 7, DaysBetween(a, b))
	assert.Equal(t, -7, DaysBetween(b, a))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", FormatDate(d))

	_, err = ParseDate("28/02/2026")
	assert.Error(t, err)
}
