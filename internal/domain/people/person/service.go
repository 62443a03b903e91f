package person

import (
	"context"
	"strings"
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

// Service provides business logic for people.
type Service struct {
	*domain.LifecycleService[*Person]
	repo Repository
}

// ServiceDeps groups the collaborators of the person service.
type ServiceDeps struct {
	Repo      Repository
	TxManager tx.Manager
	Policy    security.MutationPolicy
	Recorder  audit.Recorder
	Clock     func() time.Time
}

// NewService creates a new person service.
func NewService(deps ServiceDeps) *Service {
	base := domain.NewLifecycleService(domain.LifecycleServiceConfig[*Person]{
		Repo:       deps.Repo,
		TxManager:  deps.TxManager,
		Policy:     deps.Policy,
		Recorder:   deps.Recorder,
		Clock:      deps.Clock,
		EntityName: "person",
	})

	svc := &Service{LifecycleService: base, repo: deps.Repo}
	base.Hooks().OnBeforeCreate(svc.checkBirthDate)
	base.Hooks().OnBeforeCreate(svc.checkEmail)
	base.Hooks().OnBeforeUpdate(svc.checkBirthDate)
	base.Hooks().OnBeforeUpdate(svc.checkEmail)
	return svc
}

func (s *Service) checkBirthDate(_ context.Context, p *Person) error {
	return p.ValidateBirthDate(s.Now())
}

// checkEmail normalizes the address and rejects one used by another record.
func (s *Service) checkEmail(ctx context.Context, p *Person) error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	exists, err := s.emailTaken(ctx, p.Email, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("person", "email", p.Email)
	}
	return nil
}

func (s *Service) emailTaken(ctx context.Context, email string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != excludeID, nil
}

// Adults returns active people at least minAge years old today.
func (s *Service) Adults(ctx context.Context, minAge int) ([]*Person, error) {
	if minAge < 0 {
		return nil, apperror.NewFieldValidation("min_age", "min_age must not be negative")
	}
	// Born on or before this day means at least minAge completed years.
	cutoff := types.DateOf(s.Now()).AddDate(-minAge, 0, 0)

	f := domain.ListFilter{View: domain.ViewDefault, OrderBy: "last_name,first_name"}.
		With(filter.Lte("birth_date", cutoff))
	res, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, apperror.NewNoResults("No adults found matching the criteria")
	}
	return res.Items, nil
}
