package experiment

import (
	"context"
	"time"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/security"
	"bibliolab/internal/core/tx"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/audit"
	"bibliolab/internal/domain/filter"
)

// Patch carries the attributes a client may change. Nil fields stay untouched.
type Patch struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *Status
}

// Apply writes the patch onto e, enforcing the status workflow.
func (p Patch) Apply(e *Experiment) error {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.StartDate != nil {
		e.StartDate = p.StartDate.UTC()
	}
	if p.EndDate != nil {
		e.EndDate = p.EndDate.UTC()
	}
	if p.Status != nil {
		return e.TransitionTo(*p.Status)
	}
	return nil
}

// Service provides business logic for experiments.
type Service struct {
	*domain.LifecycleService[*Experiment]
	repo Repository
}

// NewService creates a new experiment service.
func NewService(repo Repository, txManager tx.Manager, policy security.MutationPolicy, recorder audit.Recorder, clock func() time.Time) *Service {
	base := domain.NewLifecycleService(domain.LifecycleServiceConfig[*Experiment]{
		Repo:       repo,
		TxManager:  txManager,
		Policy:     policy,
		Recorder:   recorder,
		Clock:      clock,
		EntityName: "experiment",
	})
	return &Service{LifecycleService: base, repo: repo}
}

// Create stores a new experiment. New experiments always start as PLANNED
// unless the caller chose another valid status.
func (s *Service) Create(ctx context.Context, e *Experiment) error {
	if e.Status == "" {
		e.Status = StatusPlanned
	}
	return s.LifecycleService.Create(ctx, e)
}

// Patch applies p to the experiment with the given id.
func (s *Service) Patch(ctx context.Context, experimentID id.ID, p Patch) (*Experiment, error) {
	return s.Update(ctx, experimentID, p.Apply)
}

// ByStatus returns active experiments with the given status.
func (s *Service) ByStatus(ctx context.Context, status Status) ([]*Experiment, error) {
	if status == "" {
		status = StatusInProgress
	}
	if !status.IsValid() {
		return nil, apperror.NewFieldValidation("status", "unknown status").WithDetail("value", string(status))
	}

	f := domain.ListFilter{View: domain.ViewDefault, OrderBy: "-start_date"}.With(filter.Eq("status", status))
	res, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, apperror.NewNoResults("No experiments found with the given status")
	}
	return res.Items, nil
}
