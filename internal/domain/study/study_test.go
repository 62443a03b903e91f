package study

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/security"
	"bibliolab/internal/domain/domaintest"
	"bibliolab/internal/domain/filter"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var today = day(2026, 10, 16)

func newStudy(start time.Time, days int) *Study {
	return &Study{
		BaseEntity: entity.BaseEntity{ID: id.New()},
		Title:      "Reading group",
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, days),
	}
}

func TestStudy_Validate(t *testing.T) {
	assert.NoError(t, newStudy(today, 7).Validate(context.Background()))
	assert.NoError(t, newStudy(today, 365).Validate(context.Background()))

	for _, days := range []int{0, -3, 6, 366} {
		err := newStudy(today, days).Validate(context.Background())
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "%d days", days)
	}
}

func TestStudy_ProgressPercentage(t *testing.T) {
	s := newStudy(day(2026, 10, 1), 10)

	assert.Equal(t, 0, s.ProgressPercentage(day(2026, 9, 30)))
	assert.Equal(t, 0, s.ProgressPercentage(day(2026, 10, 1)))
	assert.Equal(t, 30, s.ProgressPercentage(day(2026, 10, 4)))
	assert.Equal(t, 100, s.ProgressPercentage(day(2026, 10, 11)))
	assert.Equal(t, 100, s.ProgressPercentage(day(2026, 10, 12)))
	assert.Equal(t, 10, s.DurationDays())
}

func TestStudy_IsActive(t *testing.T) {
	s := newStudy(day(2026, 10, 1), 10)

	assert.False(t, s.IsActive(day(2026, 9, 30)))
	assert.True(t, s.IsActive(day(2026, 10, 1)))
	assert.True(t, s.IsActive(day(2026, 10, 11).Add(23*time.Hour)))
	assert.False(t, s.IsActive(day(2026, 10, 12)))
}

func newStudyService(t *testing.T) (*Service, *domaintest.MemoryRepo[*Study]) {
	t.Helper()
	policy, err := security.NewCELPolicy("")
	require.NoError(t, err)

	repo := domaintest.NewMemoryRepo(func(s *Study) *Study { c := *s; return &c })
	repo.Match = func(s *Study, it filter.Item) bool {
		switch it.Field {
		case "start_date":
			return !s.StartDate.After(it.Value.(time.Time))
		case "end_date":
			return !s.EndDate.Before(it.Value.(time.Time))
		case "duration_days":
			d := s.DurationDays()
			if it.Operator == filter.GreaterOrEqual {
				return d >= it.Value.(int)
			}
			return d <= it.Value.(int)
		}
		return true
	}
	return NewService(repo, nil, policy, nil, domaintest.FixedClock(today.Add(9*time.Hour))), repo
}

func TestService_CreateRejectsPastStart(t *testing.T) {
	svc, _ := newStudyService(t)
	owner := id.New()

	err := svc.Create(domaintest.UserCtx(owner), newStudy(today.AddDate(0, 0, -1), 10))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	s := newStudy(today, 10)
	require.NoError(t, svc.Create(domaintest.UserCtx(owner), s))
	assert.Equal(t, owner, s.OwnerUserID)
}

func TestService_ActiveAndOngoing(t *testing.T) {
	svc, repo := newStudyService(t)
	ctx := domaintest.UserCtx(id.New())

	ongoing, err := svc.Ongoing(ctx)
	require.NoError(t, err)
	assert.Empty(t, ongoing)

	_, err = svc.Active(ctx)
	assert.True(t, apperror.IsNotFound(err))

	running := newStudy(today.AddDate(0, 0, -3), 10)
	running.Stamp(today)
	repo.Put(running)
	future := newStudy(today.AddDate(0, 0, 5), 10)
	future.Stamp(today)
	repo.Put(future)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, running.ID, active[0].ID)

	byDuration, err := svc.ByDuration(ctx, 7, 10)
	require.NoError(t, err)
	assert.Len(t, byDuration, 2)

	_, err = svc.ByDuration(ctx, 10, 7)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_PatchKeepsPastStartWhenUnchanged(t *testing.T) {
	svc, repo := newStudyService(t)
	owner := id.New()
	ctx := domaintest.UserCtx(owner)

	s := newStudy(today.AddDate(0, 0, -3), 10)
	s.Stamp(today)
	s.OwnerUserID = owner
	repo.Put(s)

	title := "Renamed"
	sameStart := s.StartDate
	got, err := svc.Patch(ctx, s.ID, Patch{Title: &title, StartDate: &sameStart})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	earlier := s.StartDate.AddDate(0, 0, -1)
	_, err = svc.Patch(ctx, s.ID, Patch{StartDate: &earlier})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
