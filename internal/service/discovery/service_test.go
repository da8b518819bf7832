package discovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchmaker/internal/apptest"
	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/service/discovery"
)

// seedFeed creates requester 7 and candidates 8, 9, 10 (10 is newest).
// The requester has already disliked 9.
func seedFeed(t *testing.T, env *apptest.Env) (requester *db.Profile, byExt map[int64]*db.Profile) {
	t.Helper()
	ctx := context.Background()

	byExt = map[int64]*db.Profile{}
	requester = env.AddProfile(t, db.Profile{ExternalID: 7, Gender: db.GenderMale, ShowGender: db.ShowGenderAll})
	for i, ext := range []int64{8, 9, 10} {
		byExt[ext] = env.AddProfile(t, db.Profile{
			ExternalID: ext,
			CreatedAt:  apptest.Start.Add(time.Duration(i) * time.Minute),
		})
	}

	_, err := env.App.Store.Interactions.Append(ctx, requester.ID, byExt[9].ID, false)
	require.NoError(t, err)
	return requester, byExt
}

func TestNextCandidate_NewestUnseenFirst(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := discovery.NewService(env.App)
	_, byExt := seedFeed(t, env)

	got, err := svc.NextCandidate(ctx, 7)
	require.NoError(t, err)
	require.True(t, got.Found())
	assert.Equal(t, byExt[10].ID, got.Profile.ID)
	assert.Equal(t, 60, got.SwipesLeft)
}

func TestNextCandidate_SkipsSwipedAndExhausts(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := discovery.NewService(env.App)
	requester, byExt := seedFeed(t, env)

	_, err := env.App.Store.Interactions.Append(ctx, requester.ID, byExt[10].ID, true)
	require.NoError(t, err)

	got, err := svc.NextCandidate(ctx, 7)
	require.NoError(t, err)
	require.True(t, got.Found())
	assert.Equal(t, byExt[8].ID, got.Profile.ID)

	_, err = env.App.Store.Interactions.Append(ctx, requester.ID, byExt[8].ID, false)
	require.NoError(t, err)

	got, err = svc.NextCandidate(ctx, 7)
	require.NoError(t, err)
	assert.False(t, got.Found())
}

func TestNextCandidate_GenderPreference(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := discovery.NewService(env.App)

	env.AddProfile(t, db.Profile{ExternalID: 1, Gender: db.GenderMale, ShowGender: db.GenderFemale})
	female := env.AddProfile(t, db.Profile{ExternalID: 2, Gender: db.GenderFemale})
	env.AddProfile(t, db.Profile{ExternalID: 3, Gender: db.GenderMale})
	env.AddProfile(t, db.Profile{ExternalID: 4, Gender: db.GenderOther})

	got, err := svc.NextCandidate(ctx, 1)
	require.NoError(t, err)
	require.True(t, got.Found())
	assert.Equal(t, female.ID, got.Profile.ID)
}

func TestNextCandidate_SkipsInactive(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := discovery.NewService(env.App)

	env.AddProfile(t, db.Profile{ExternalID: 1})
	hidden := env.AddProfile(t, db.Profile{ExternalID: 2})
	hidden.IsActive = false
	require.NoError(t, env.App.Store.Profiles.Save(ctx, hidden))

	got, err := svc.NextCandidate(ctx, 1)
	require.NoError(t, err)
	assert.False(t, got.Found())
}

func TestNextCandidate_RecordsOneVisitPerServe(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := discovery.NewService(env.App)
	_, byExt := seedFeed(t, env)

	for i := 0; i < 3; i++ {
		_, err := svc.NextCandidate(ctx, 7)
		require.NoError(t, err)
	}

	visits, err := env.App.Store.Visits.CountByViewed(ctx, byExt[10].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), visits)

	visits, err = env.App.Store.Visits.CountByViewed(ctx, byExt[8].ID)
	require.NoError(t, err)
	assert.Zero(t, visits)
}

func TestNextCandidate_NoVisitWhenExhausted(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := discovery.NewService(env.App)
	env.AddProfile(t, db.Profile{ExternalID: 1})

	got, err := svc.NextCandidate(ctx, 1)
	require.NoError(t, err)
	assert.False(t, got.Found())

	var n int64
	require.NoError(t, env.App.DB.Model(&db.Visit{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestNextCandidate_QuotaExhausted(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := discovery.NewService(env.App)
	env.AddProfile(t, db.Profile{ExternalID: 1, SwipesUsedToday: 60})
	env.AddProfile(t, db.Profile{ExternalID: 2})

	_, err := svc.NextCandidate(ctx, 1)
	assert.ErrorIs(t, err, svcErr.ErrQuotaExceeded)

	var n int64
	require.NoError(t, env.App.DB.Model(&db.Visit{}).Count(&n).Error)
	assert.Zero(t, n)

	// the next window opens the feed again
	env.Clock.Advance(25 * time.Hour)
	got, err := svc.NextCandidate(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Found())
	assert.Equal(t, 60, got.SwipesLeft)
}

func TestNextCandidate_UnknownRequester(t *testing.T) {
	env := apptest.New(t)
	svc := discovery.NewService(env.App)

	_, err := svc.NextCandidate(context.Background(), 404)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestGenderFilter(t *testing.T) {
	assert.Equal(t, "", discovery.GenderFilter("all"))
	assert.Equal(t, "", discovery.GenderFilter(" ALL "))
	assert.Equal(t, "female", discovery.GenderFilter("Female"))
	assert.Equal(t, "male", discovery.GenderFilter("male"))
}
