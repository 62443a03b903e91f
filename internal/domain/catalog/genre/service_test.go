package genre

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/domain/domaintest"
)

type memoryRepo struct {
	rows []*Genre
}

func (r *memoryRepo) Create(_ context.Context, g *Genre) error {
	r.rows = append(r.rows, g)
	return nil
}

func (r *memoryRepo) List(context.Context) ([]*Genre, error) {
	return r.rows, nil
}

func (r *memoryRepo) GetByName(_ context.Context, name string) (*Genre, error) {
	for _, g := range r.rows {
		if strings.EqualFold(g.Name, name) {
			return g, nil
		}
	}
	return nil, apperror.NewNotFound("genre", name)
}

func (r *memoryRepo) MissingIDs(_ context.Context, ids []id.ID) ([]id.ID, error) {
	var missing []id.ID
	for _, want := range ids {
		found := false
		for _, g := range r.rows {
			found = found || g.ID == want
		}
		if !found {
			missing = append(missing, want)
		}
	}
	return missing, nil
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

func TestService_CreateInvalidatesDerivedState(t *testing.T) {
	inv := &countingInvalidator{}
	svc := NewService(&memoryRepo{}, inv)

	g, err := svc.Create(domaintest.AdminCtx(), "  Fantasy ")
	require.NoError(t, err)
	assert.Equal(t, "Fantasy", g.Name)
	assert.Equal(t, 1, inv.calls)

	_, err = svc.Create(domaintest.AdminCtx(), "fantasy")
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate), "got %v", err)
	assert.Equal(t, 1, inv.calls)
}

func TestService_CreateSurvivesInvalidationFailure(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, &countingInvalidator{err: errors.New("redis down")})

	_, err := svc.Create(domaintest.AdminCtx(), "Poetry")
	require.NoError(t, err)
	assert.Len(t, repo.rows, 1)
}

func TestService_CreateRequiresAdmin(t *testing.T) {
	inv := &countingInvalidator{}
	svc := NewService(&memoryRepo{}, inv)

	_, err := svc.Create(domaintest.UserCtx(id.New()), "Horror")
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	_, err = svc.Create(context.Background(), "Horror")
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
	assert.Zero(t, inv.calls)
}

func TestService_EnsureExist(t *testing.T) {
	svc := NewService(&memoryRepo{}, nil)
	g, err := svc.Create(domaintest.AdminCtx(), "History")
	require.NoError(t, err)

	assert.NoError(t, svc.EnsureExist(context.Background(), []id.ID{g.ID}))
	err = svc.EnsureExist(context.Background(), []id.ID{g.ID, id.New()})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
