package person

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

type memRepo struct {
	*domaintest.MemoryRepo[*Person]
}

func (r memRepo) FindByEmail(_ context.Context, email string) (*Person, error) {
	for _, p := range r.All() {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("person", email)
}

func newPersonService(t *testing.T, now time.Time) (*Service, memRepo) {
	t.Helper()
	policy, err := security.NewCELPolicy("")
	require.NoError(t, err)

	repo := memRepo{domaintest.NewMemoryRepo(func(p *Person) *Person { c := *p; return &c })}
	repo.Match = func(p *Person, it filter.Item) bool {
		if it.Field == "birth_date" {
			return !p.BirthDate.After(it.Value.(time.Time))
		}
		return true
	}
	svc := NewService(ServiceDeps{Repo: repo, Policy: policy, Clock: domaintest.FixedClock(now)})
	return svc, repo
}

func newPerson(email string, birth time.Time) *Person {
	return &Person{
		BaseEntity: entity.BaseEntity{ID: id.New()},
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      email,
		BirthDate:  birth,
		Gender:     GenderFemale,
	}
}

func TestService_Adults(t *testing.T) {
	svc, _ := newPersonService(t, today)
	ctx := domaintest.UserCtx(id.New())

	require.NoError(t, svc.Create(ctx, newPerson("adult@example.com", time.Date(2008, 10, 16, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, svc.Create(ctx, newPerson("minor@example.com", time.Date(2008, 10, 17, 0, 0, 0, 0, time.UTC))))

	adults, err := svc.Adults(ctx, AdultAge)
	require.NoError(t, err)
	require.Len(t, adults, 1)
	assert.Equal(t, "adult@example.com", adults[0].Email)

	_, err = svc.Adults(ctx, 40)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_RejectsDuplicateEmail(t *testing.T) {
	svc, _ := newPersonService(t, today)
	ctx := domaintest.UserCtx(id.New())
	birth := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Create(ctx, newPerson("same@example.com", birth)))
	err := svc.Create(ctx, newPerson("same@example.com", birth))

	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestService_BirthDateFollowsServiceClock(t *testing.T) {
	future := time.Date(2099, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, _ := newPersonService(t, future)
	ctx := domaintest.UserCtx(id.New())

	// After the wall clock but before the service's today.
	p := newPerson("late@example.com", time.Date(2098, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, svc.Create(ctx, p))

	err := svc.Create(ctx, newPerson("unborn@example.com", future.AddDate(0, 0, 1)))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "birth_date", appErr.Details["field"])

	_, err = svc.Update(ctx, p.ID, func(p *Person) error {
		p.BirthDate = future.AddDate(0, 1, 0)
		return nil
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
}
