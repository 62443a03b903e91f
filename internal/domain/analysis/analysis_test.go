package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/domain/catalog/author"
	"bibliolab/internal/domain/catalog/book"
	"bibliolab/internal/domain/domaintest"
)

type stubRepo struct {
	avg      *float64
	prolific *author.Author
	recent   []*book.Book
	genres   map[string]int64
	since    time.Time
	failOn   string
	calls    int
}

func (r *stubRepo) fail(name string) error {
	if r.failOn == name {
		return errors.New("boom")
	}
	return nil
}

func (r *stubRepo) AverageRating(context.Context) (*float64, error) {
	return r.avg, r.fail("avg")
}

func (r *stubRepo) MostProlificAuthor(context.Context) (*author.Author, error) {
	return r.prolific, r.fail("prolific")
}

func (r *stubRepo) RecentBooks(_ context.Context, since time.Time) ([]*book.Book, error) {
	r.since = since
	return r.recent, r.fail("recent")
}

func (r *stubRepo) GenreCounts(context.Context) (map[string]int64, error) {
	r.calls++
	return r.genres, r.fail("genres")
}

type memCache struct {
	stored      *Result
	invalidated bool
}

func (c *memCache) Get(context.Context) (*Result, error)   { return c.stored, nil }
func (c *memCache) Set(_ context.Context, r *Result) error { c.stored = r; return nil }
func (c *memCache) Invalidate(context.Context) error {
	c.stored, c.invalidated = nil, true
	return nil
}

var now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func TestService_RunJoinsResults(t *testing.T) {
	avg := 4.25
	repo := &stubRepo{
		avg:      &avg,
		prolific: author.NewAuthor("Ursula", "", now),
		recent:   []*book.Book{{Title: "Fresh"}},
		genres:   map[string]int64{"Fantasy": 3},
	}
	svc := NewService(repo, nil, domaintest.FixedClock(now))

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4.25, *res.AverageRating)
	assert.Equal(t, "Ursula", res.MostProlificAuthor.Name)
	assert.Len(t, res.RecentBooks, 1)
	assert.Equal(t, int64(3), res.GenreCounts["Fantasy"])
	assert.Equal(t, now.Add(-30*24*time.Hour), repo.since)
}

func TestService_RunEmptyCatalog(t *testing.T) {
	svc := NewService(&stubRepo{}, nil, domaintest.FixedClock(now))

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.AverageRating)
	assert.Nil(t, res.MostProlificAuthor)
	assert.NotNil(t, res.RecentBooks)
	assert.Empty(t, res.GenreCounts)
}

func TestService_RunFailsWhenAnyQueryFails(t *testing.T) {
	for _, name := range []string{"avg", "prolific", "recent", "genres"} {
		t.Run(name, func(t *testing.T) {
			cache := &memCache{}
			svc := NewService(&stubRepo{failOn: name}, cache, domaintest.FixedClock(now))

			res, err := svc.Run(context.Background())
			assert.Error(t, err)
			assert.Nil(t, res)
			assert.Nil(t, cache.stored)
		})
	}
}

func TestService_RunUsesCache(t *testing.T) {
	repo := &stubRepo{genres: map[string]int64{"Poetry": 1}}
	cache := &memCache{}
	svc := NewService(repo, cache, domaintest.FixedClock(now))

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	_, err = svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	require.NoError(t, svc.Invalidate(context.Background()))
	assert.True(t, cache.invalidated)

	_, err = svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}
