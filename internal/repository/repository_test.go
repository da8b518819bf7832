package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/repository"
)

// setup in-memory DB; one connection so every query sees the same database
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) })
}

func openTestDB(t *testing.T, now func() time.Time) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:        now,
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newProfile(id uint64, gender string, created time.Time) *db.Profile {
	return &db.Profile{
		ID:               id,
		ExternalID:       int64(1000 + id),
		Name:             "user",
		Age:              25,
		Gender:           gender,
		ShowGender:       db.ShowGenderAll,
		Interests:        []string{},
		IsActive:         true,
		DailyLimit:       60,
		LastSwipeResetAt: base,
		CreatedAt:        created,
	}
}

func TestProfileCreateAndConflict(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(setupTestDB(t))

	p := newProfile(0, db.GenderFemale, base)
	require.NoError(t, store.Profiles.Create(ctx, p))
	assert.NotZero(t, p.ID)

	dup := newProfile(0, db.GenderMale, base)
	dup.ExternalID = p.ExternalID
	err := store.Profiles.Create(ctx, dup)
	assert.ErrorIs(t, err, svcErr.ErrConflict)
}

func TestProfileGetNotFound(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(setupTestDB(t))

	_, err := store.Profiles.GetByExternalID(ctx, 404)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	_, err = store.Profiles.GetByID(ctx, 404)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestProfileListsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(setupTestDB(t))

	empty := newProfile(1, db.GenderMale, base)
	full := newProfile(2, db.GenderFemale, base)
	full.Interests = []string{"Music", "Anime", "Music"}
	full.PhotoIDs = []string{"AgAD1", "AgAD2"}
	require.NoError(t, store.Profiles.Create(ctx, empty))
	require.NoError(t, store.Profiles.Create(ctx, full))

	got, err := store.Profiles.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, got.Interests)
	assert.Empty(t, got.Interests)

	got, err = store.Profiles.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Music", "Anime", "Music"}, got.Interests)
	assert.Equal(t, []string{"AgAD1", "AgAD2"}, got.PhotoIDs)
}

func TestNextCandidate_ExclusionFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(setupTestDB(t))

	// requester is the newest profile so "self" would win the ordering if not excluded
	requester := newProfile(1, db.GenderMale, base.Add(10*time.Hour))
	oldF := newProfile(2, db.GenderFemale, base)
	tieLow := newProfile(3, db.GenderFemale, base.Add(time.Hour))
	tieHigh := newProfile(4, db.GenderFemale, base.Add(time.Hour))
	male := newProfile(5, db.GenderMale, base.Add(5*time.Hour))
	inactive := newProfile(6, db.GenderFemale, base.Add(6*time.Hour))
	inactive.IsActive = false
	for _, p := range []*db.Profile{requester, oldF, tieLow, tieHigh, male, inactive} {
		require.NoError(t, store.Profiles.Create(ctx, p))
	}
	requester.City = "Kazan"
	require.NoError(t, store.Profiles.Save(ctx, requester))

	// no filter: newest eligible is the male profile
	c, err := store.Profiles.NextCandidate(ctx, 1, "")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, uint64(5), c.ID)

	// female filter: tie on created_at broken by id DESC
	c, err = store.Profiles.NextCandidate(ctx, 1, db.GenderFemale)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, uint64(4), c.ID)

	// swiping (even a dislike) removes the candidate
	_, err = store.Interactions.Append(ctx, 1, 4, false)
	require.NoError(t, err)
	c, err = store.Profiles.NextCandidate(ctx, 1, db.GenderFemale)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), c.ID)

	_, _ = store.Interactions.Append(ctx, 1, 3, true)
	_, _ = store.Interactions.Append(ctx, 1, 2, true)

	c, err = store.Profiles.NextCandidate(ctx, 1, db.GenderFemale)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestSwipeCounters(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(setupTestDB(t))

	fresh := newProfile(1, db.GenderMale, base)
	stale := newProfile(2, db.GenderFemale, base)
	stale.SwipesUsedToday = 60
	stale.LastSwipeResetAt = base.Add(-48 * time.Hour)
	require.NoError(t, store.Profiles.Create(ctx, fresh))
	require.NoError(t, store.Profiles.Create(ctx, stale))

	require.NoError(t, store.Profiles.IncrementSwipes(ctx, 1))
	require.NoError(t, store.Profiles.IncrementSwipes(ctx, 1))

	n, err := store.Profiles.ResetStale(ctx, base.Add(-24*time.Hour), base)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	p1, _ := store.Profiles.GetByID(ctx, 1)
	p2, _ := store.Profiles.GetByID(ctx, 2)
	assert.Equal(t, 2, p1.SwipesUsedToday)
	assert.Equal(t, 0, p2.SwipesUsedToday)
	assert.True(t, p2.LastSwipeResetAt.Equal(base))
}

func TestInteractionsLatestWins(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(setupTestDB(t))

	_, _ = store.Interactions.Append(ctx, 1, 2, false)
	liked, err := store.Interactions.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, liked)

	// a re-swipe is appended, not overwritten, and becomes authoritative
	_, _ = store.Interactions.Append(ctx, 1, 2, true)
	liked, err = store.Interactions.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, liked)

	none, err := store.Interactions.HasLiked(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, none)
}

func TestCountLikesReceived(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(setupTestDB(t))

	_, _ = store.Interactions.Append(ctx, 1, 9, true)
	_, _ = store.Interactions.Append(ctx, 1, 9, true) // re-swipe, same liker
	_, _ = store.Interactions.Append(ctx, 2, 9, true)
	_, _ = store.Interactions.Append(ctx, 3, 9, false)

	n, err := store.Interactions.CountLikesReceived(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ever, err := store.Interactions.EverLiked(ctx, 1, 9)
	require.NoError(t, err)
	assert.True(t, ever)
	ever, err = store.Interactions.EverLiked(ctx, 3, 9)
	require.NoError(t, err)
	assert.False(t, ever)
}

func TestMatchCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(setupTestDB(t))

	created, err := store.Matches.CreateIfAbsent(ctx, 9, 4)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Matches.CreateIfAbsent(ctx, 4, 9)
	require.NoError(t, err)
	assert.False(t, created)

	m, err := store.Matches.Get(ctx, 9, 4)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, uint64(4), m.User1ID)
	assert.Equal(t, uint64(9), m.User2ID)
	assert.True(t, m.IsActive)

	n, err := store.Matches.CountActive(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMatchListActivePagination(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	store := repository.NewStore(gdb)

	for i := uint64(2); i <= 6; i++ {
		require.NoError(t, gdb.Create(&db.Match{
			User1ID:   1,
			User2ID:   i,
			IsActive:  i != 6,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	page, next, err := store.Matches.ListActive(ctx, 1, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, uint64(5), repository.Partner(page[0], 1))
	assert.Equal(t, uint64(4), repository.Partner(page[1], 1))

	page, next, err = store.Matches.ListActive(ctx, 1, next, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Nil(t, next)
	assert.Equal(t, uint64(3), repository.Partner(page[0], 1))
	assert.Equal(t, uint64(2), repository.Partner(page[1], 1))

	bad := "garbage"
	_, _, err = store.Matches.ListActive(ctx, 1, &bad, 2)
	assert.Error(t, err)
}

func TestMatchListActive_SubMillisecondTimestamps(t *testing.T) {
	ctx := context.Background()

	// every insert lands a fraction of a millisecond after the previous one
	var mu sync.Mutex
	tick := base.Add(123 * time.Nanosecond)
	gdb := openTestDB(t, func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(137 * time.Microsecond)
		return tick
	})
	store := repository.NewStore(gdb)

	const total = 30
	for i := uint64(2); i < 2+total; i++ {
		created, err := store.Matches.CreateIfAbsent(ctx, 1, i)
		require.NoError(t, err)
		require.True(t, created)
	}

	for _, size := range []int{1, 7} {
		seen := map[uint64]bool{}
		var token *string
		for pages := 0; ; pages++ {
			require.Less(t, pages, total+1, "pagination does not terminate")
			page, next, err := store.Matches.ListActive(ctx, 1, token, size)
			require.NoError(t, err)
			for _, m := range page {
				partner := repository.Partner(m, 1)
				assert.False(t, seen[partner], "partner %d returned twice", partner)
				seen[partner] = true
			}
			if next == nil {
				break
			}
			token = next
		}
		assert.Len(t, seen, total, "page size %d", size)
	}
}

func TestVisits(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(setupTestDB(t))

	require.NoError(t, store.Visits.Record(ctx, 1, 2))
	require.NoError(t, store.Visits.Record(ctx, 3, 2))
	require.NoError(t, store.Visits.Record(ctx, 2, 1))

	n, err := store.Visits.CountByViewed(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestLockForSwipe(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(setupTestDB(t))

	a := newProfile(1, db.GenderMale, base)
	b := newProfile(2, db.GenderFemale, base)
	require.NoError(t, store.Profiles.Create(ctx, a))
	require.NoError(t, store.Profiles.Create(ctx, b))

	err := store.Tx(ctx, func(tx *repository.Store) error {
		actor, target, err := tx.Profiles.LockForSwipe(ctx, b.ExternalID, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), actor.ID)
		assert.Equal(t, uint64(1), target.ID)

		_, target, err = tx.Profiles.LockForSwipe(ctx, a.ExternalID, 99)
		require.NoError(t, err)
		assert.Nil(t, target)

		_, _, err = tx.Profiles.LockForSwipe(ctx, 999, 1)
		assert.ErrorIs(t, err, svcErr.ErrNotFound)

		// self-swipe resolves both sides to the same row
		actor, target, err = tx.Profiles.LockForSwipe(ctx, a.ExternalID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, actor.ID)
		assert.Equal(t, a.ID, target.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(setupTestDB(t))

	err := store.Tx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Interactions.Append(ctx, 1, 2, true); err != nil {
			return err
		}
		return svcErr.ErrQuotaExceeded
	})
	assert.ErrorIs(t, err, svcErr.ErrQuotaExceeded)

	latest, err := store.Interactions.Latest(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, latest)
}
