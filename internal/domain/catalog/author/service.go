package author

import (
	"context"
	"strings"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/security"
	"bibliolab/internal/core/tx"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/audit"
	"bibliolab/internal/domain/filter"
)

// DefaultProlificBookCount is the threshold used when the caller sends none.
const DefaultProlificBookCount = 5

// Service provides business logic for authors.
type Service struct {
	*domain.LifecycleService[*Author]
	repo Repository
}

// NewService creates a new author service.
func NewService(repo Repository, txManager tx.Manager, policy security.MutationPolicy, recorder audit.Recorder) *Service {
	base := domain.NewLifecycleService(domain.LifecycleServiceConfig[*Author]{
		Repo:       repo,
		TxManager:  txManager,
		Policy:     policy,
		Recorder:   recorder,
		EntityName: "author",
	})

	svc := &Service{LifecycleService: base, repo: repo}
	base.Hooks().OnBeforeCreate(svc.normalize)
	base.Hooks().OnBeforeUpdate(svc.normalize)
	return svc
}

func (s *Service) normalize(_ context.Context, a *Author) error {
	a.Name = strings.TrimSpace(a.Name)
	return nil
}

// Prolific lists active authors with at least minBooks active books.
func (s *Service) Prolific(ctx context.Context, minBooks int, f domain.ListFilter) (domain.ListResult[*Author], error) {
	if minBooks <= 0 {
		minBooks = DefaultProlificBookCount
	}
	f.View = domain.ViewDefault
	return s.repo.List(ctx, f.With(filter.Gte("books_count", minBooks)))
}

// EnsureActive fails with a validation error when authorID is unknown or soft-deleted.
func (s *Service) EnsureActive(ctx context.Context, authorID id.ID) error {
	if _, err := s.repo.GetByID(ctx, authorID, domain.ViewDefault); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewFieldValidation("author", "author does not exist").
				WithDetail("id", authorID.String())
		}
		return err
	}
	return nil
}
