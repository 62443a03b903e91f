package study

import (
	"context"
	"time"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/security"
	"bibliolab/internal/core/tx"
	"bibliolab/internal/core/types"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/audit"
	"bibliolab/internal/domain/filter"
)

// Patch carries the attributes a client may change. Nil fields stay untouched.
type Patch struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// Service provides business logic for studies.
type Service struct {
	*domain.LifecycleService[*Study]
	repo Repository
}

// NewService creates a new study service.
func NewService(repo Repository, txManager tx.Manager, policy security.MutationPolicy, recorder audit.Recorder, clock func() time.Time) *Service {
	base := domain.NewLifecycleService(domain.LifecycleServiceConfig[*Study]{
		Repo:       repo,
		TxManager:  txManager,
		Policy:     policy,
		Recorder:   recorder,
		Clock:      clock,
		EntityName: "study",
	})

	svc := &Service{LifecycleService: base, repo: repo}
	base.Hooks().OnBeforeCreate(func(_ context.Context, s *Study) error {
		return s.ValidateStartNotPast(svc.Now())
	})
	return svc
}

// Patch applies p. A changed start date must not lie in the past.
func (s *Service) Patch(ctx context.Context, studyID id.ID, p Patch) (*Study, error) {
	return s.Update(ctx, studyID, func(st *Study) error {
		if p.Title != nil {
			st.Title = *p.Title
		}
		if p.Description != nil {
			st.Description = *p.Description
		}
		if p.StartDate != nil && !types.DateOf(*p.StartDate).Equal(types.DateOf(st.StartDate)) {
			st.StartDate = types.DateOf(*p.StartDate)
			if err := st.ValidateStartNotPast(s.Now()); err != nil {
				return err
			}
		}
		if p.EndDate != nil {
			st.EndDate = types.DateOf(*p.EndDate)
		}
		return nil
	})
}

// Active returns studies running today.
func (s *Service) Active(ctx context.Context) ([]*Study, error) {
	items, err := s.running(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperror.NewNoResults("No active studies found")
	}
	return items, nil
}

// Ongoing returns studies running today; an empty result is not an error.
func (s *Service) Ongoing(ctx context.Context) ([]*Study, error) {
	return s.running(ctx)
}

func (s *Service) running(ctx context.Context) ([]*Study, error) {
	today := types.DateOf(s.Now())
	f := domain.ListFilter{View: domain.ViewDefault, OrderBy: "-start_date"}.With(
		filter.Lte("start_date", today),
		filter.Gte("end_date", today),
	)
	res, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// ByDuration returns studies lasting between minDays and maxDays, inclusive.
func (s *Service) ByDuration(ctx context.Context, minDays, maxDays int) ([]*Study, error) {
	if minDays < 0 || maxDays < minDays {
		return nil, apperror.NewValidation("min_duration must be non-negative and not exceed max_duration")
	}
	f := domain.ListFilter{View: domain.ViewDefault, OrderBy: "-start_date"}.With(
		filter.Gte("duration_days", minDays),
		filter.Lte("duration_days", maxDays),
	)
	res, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
