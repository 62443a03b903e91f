package reading

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/domain/catalog/genre"
	"bibliolab/internal/domain/domaintest"
)

type memRepo struct {
	profiles map[id.ID]*Profile
	genres   map[id.ID][]id.ID
	history  []*HistoryEntry
	recs     []*Recommendation
}

func newMemRepo() *memRepo {
	return &memRepo{profiles: map[id.ID]*Profile{}, genres: map[id.ID][]id.ID{}}
}

func (r *memRepo) GetOrCreate(_ context.Context, userID id.ID, now time.Time) (*Profile, error) {
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	p := &Profile{ID: id.New(), UserID: userID, CreatedAt: now}
	r.profiles[userID] = p
	return p, nil
}

func (r *memRepo) FavoriteGenres(_ context.Context, profileID id.ID) ([]*genre.Genre, error) {
	var out []*genre.Genre
	for _, g := range r.genres[profileID] {
		out = append(out, &genre.Genre{ID: g, Name: g.String()})
	}
	return out, nil
}

func (r *memRepo) ReplaceFavoriteGenres(_ context.Context, profileID id.ID, genreIDs []id.ID) error {
	r.genres[profileID] = genreIDs
	return nil
}

func (r *memRepo) AddHistory(_ context.Context, entry *HistoryEntry) error {
	r.history = append(r.history, entry)
	return nil
}

func (r *memRepo) RecentHistory(_ context.Context, profileID id.ID, limit int) ([]*HistoryEntry, error) {
	var out []*HistoryEntry
	for _, h := range r.history {
		if h.ProfileID == profileID {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateRead.After(out[j].DateRead) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) AddRecommendation(_ context.Context, rec *Recommendation) error {
	r.recs = append(r.recs, rec)
	return nil
}

func (r *memRepo) TopRecommendations(_ context.Context, profileID id.ID, limit int) ([]*Recommendation, error) {
	var out []*Recommendation
	for _, rec := range r.recs {
		if rec.ProfileID == profileID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type allowAll struct{}

func (allowAll) EnsureExist(context.Context, []id.ID) error { return nil }
func (allowAll) EnsureActive(context.Context, id.ID) error  { return nil }

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newReadingService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, nil, allowAll{}, allowAll{}, domaintest.FixedClock(now)), repo
}

func TestService_OwnProfileOnly(t *testing.T) {
	svc, _ := newReadingService()
	me, other := id.New(), id.New()

	overview, err := svc.Get(domaintest.UserCtx(me), me)
	require.NoError(t, err)
	assert.Equal(t, me, overview.Profile.UserID)

	_, err = svc.Get(domaintest.UserCtx(me), other)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	_, err = svc.Get(domaintest.AdminCtx(), other)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), me)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestService_HistoryPreviewKeepsLatestTen(t *testing.T) {
	svc, _ := newReadingService()
	me := id.New()
	ctx := domaintest.UserCtx(me)

	for i := 0; i < 12; i++ {
		require.NoError(t, svc.AddHistory(ctx, me, &HistoryEntry{
			BookID:   id.New(),
			DateRead: now.AddDate(0, 0, -i),
			Rating:   1 + i%5,
		}))
	}

	overview, err := svc.Get(ctx, me)
	require.NoError(t, err)
	require.Len(t, overview.RecentHistory, HistoryPreviewSize)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), overview.RecentHistory[0].DateRead)
}

func TestService_AddHistoryValidates(t *testing.T) {
	svc, _ := newReadingService()
	me := id.New()
	ctx := domaintest.UserCtx(me)

	err := svc.AddHistory(ctx, me, &HistoryEntry{BookID: id.New(), DateRead: now, Rating: 6})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	err = svc.AddHistory(ctx, me, &HistoryEntry{BookID: id.New(), DateRead: now.AddDate(0, 0, 1), Rating: 3})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_RecommendationsTopFive(t *testing.T) {
	svc, _ := newReadingService()
	me := id.New()

	_, err := svc.Recommend(domaintest.UserCtx(me), me, id.New(), 1)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	admin := domaintest.AdminCtx()
	for i := 0; i < 7; i++ {
		_, err := svc.Recommend(admin, me, id.New(), float64(i))
		require.NoError(t, err)
	}

	recs, err := svc.Recommendations(domaintest.UserCtx(me), me)
	require.NoError(t, err)
	require.Len(t, recs, RecommendationLimit)
	assert.Equal(t, 6.0, recs[0].Score)
	assert.Equal(t, 2.0, recs[4].Score)
}
