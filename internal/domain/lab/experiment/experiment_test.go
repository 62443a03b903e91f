package experiment

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

var start = time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC)

func newExperiment(hours int) *Experiment {
	return &Experiment{
		BaseEntity: entity.BaseEntity{ID: id.New()},
		Name:       "Enzyme kinetics",
		StartDate:  start,
		EndDate:    start.Add(time.Duration(hours) * time.Hour),
	}
}

func TestExperiment_Duration(t *testing.T) {
	e := newExperiment(5)
	assert.Equal(t, 5.0, e.DurationHours())
}

func TestExperiment_ValidateDurationBounds(t *testing.T) {
	for _, hours := range []int{1, 168} {
		e := newExperiment(hours)
		e.Status = StatusPlanned
		assert.NoError(t, e.Validate(context.Background()), "%dh", hours)
	}

	e := newExperiment(169)
	e.Status = StatusPlanned
	assert.True(t, apperror.HasCode(e.Validate(context.Background()), apperror.CodeValidation))

	e = newExperiment(0)
	e.Status = StatusPlanned
	e.EndDate = e.StartDate.Add(59 * time.Minute)
	assert.True(t, apperror.HasCode(e.Validate(context.Background()), apperror.CodeValidation))
}

func TestExperiment_TransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPlanned, StatusInProgress, true},
		{StatusPlanned, StatusCancelled, true},
		{StatusPlanned, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusPlanned, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCancelled, StatusPlanned, false},
		{StatusCompleted, StatusCompleted, true},
		{StatusPlanned, "PAUSED", false},
	}
	for _, tt := range tests {
		e := newExperiment(5)
		e.Status = tt.from
		err := e.TransitionTo(tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.to, e.Status)
		} else {
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.from, e.Status)
		}
	}
}

func TestExperiment_TimeRemaining(t *testing.T) {
	e := newExperiment(10)
	e.Status = StatusInProgress

	assert.InDelta(t, 4.0, e.TimeRemainingHours(start.Add(6*time.Hour)), 1e-9)
	assert.Equal(t, 0.0, e.TimeRemainingHours(start.Add(11*time.Hour)))

	e.Status = StatusCompleted
	assert.Equal(t, 0.0, e.TimeRemainingHours(start))
	assert.False(t, e.IsActive())
}

func newExperimentService(t *testing.T) *Service {
	t.Helper()
	policy, err := security.NewCELPolicy("")
	require.NoError(t, err)

	repo := domaintest.NewMemoryRepo(func(e *Experiment) *Experiment { c := *e; return &c })
	repo.Match = func(e *Experiment, it filter.Item) bool {
		if it.Field == "status" {
			return e.Status == it.Value.(Status)
		}
		return true
	}
	return NewService(repo, nil, policy, nil, domaintest.FixedClock(start.Add(-time.Hour)))
}

func TestService_CreateAssignsResearcherAndPlanned(t *testing.T) {
	svc := newExperimentService(t)
	researcher := id.New()

	e := newExperiment(5)
	require.NoError(t, svc.Create(domaintest.UserCtx(researcher), e))

	assert.Equal(t, researcher, e.ResearcherID)
	assert.Equal(t, StatusPlanned, e.Status)
}

func TestService_PatchEnforcesWorkflow(t *testing.T) {
	svc := newExperimentService(t)
	ctx := domaintest.UserCtx(id.New())
	e := newExperiment(5)
	require.NoError(t, svc.Create(ctx, e))

	running := StatusInProgress
	got, err := svc.Patch(ctx, e.ID, Patch{Status: &running})
	require.NoError(t, err)
	assert.True(t, got.IsActive())

	done := StatusCompleted
	_, err = svc.Patch(ctx, e.ID, Patch{Status: &done})
	require.NoError(t, err)

	_, err = svc.Patch(ctx, e.ID, Patch{Status: &running})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_ByStatus(t *testing.T) {
	svc := newExperimentService(t)
	ctx := domaintest.UserCtx(id.New())
	require.NoError(t, svc.Create(ctx, newExperiment(5)))

	_, err := svc.ByStatus(ctx, "")
	assert.True(t, apperror.IsNotFound(err))

	got, err := svc.ByStatus(ctx, StatusPlanned)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.ByStatus(ctx, "PAUSED")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
