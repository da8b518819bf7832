// Package apptest wires an AppContext on in-memory SQLite and miniredis for
// service and transport tests.
package apptest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/cache"
	"github.com/oggyb/matchmaker/internal/config"
	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/logger"
)

// Start is the default test clock reading.
var Start = time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Env is one isolated test environment.
type Env struct {
	App   *app.AppContext
	Redis *miniredis.Miniredis
	Clock *Clock
}

// New spins up an in-memory SQLite DB, applies migrations, starts a
// miniredis, and wires everything into an AppContext.
//
// Each test gets its own isolated DB + Redis. The pool is pinned to one
// connection because every ":memory:" connection is a separate database.
func New(t testing.TB) *Env {
	t.Helper()

	clock := &Clock{now: Start}

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:        func() time.Time { return clock.Now().Truncate(time.Millisecond) },
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Password = ""
	cfg.Redis.DB = 0
	cfg.Swipes.DailyLimit = 60
	cfg.Swipes.ResetWindow = 24 * time.Hour

	redisCache := cache.NewRedisCache(cfg)
	t.Cleanup(func() { redisCache.Close() })

	appCtx := app.NewWithClock(cfg, database, redisCache, logger.Discard(), clock.Now)
	return &Env{App: appCtx, Redis: mr, Clock: clock}
}

// AddProfile inserts p with sensible defaults for anything left zero.
func (e *Env) AddProfile(t testing.TB, p db.Profile) *db.Profile {
	t.Helper()

	if p.Name == "" {
		p.Name = "user"
	}
	if p.Age == 0 {
		p.Age = 25
	}
	if p.Gender == "" {
		p.Gender = db.GenderFemale
	}
	if p.ShowGender == "" {
		p.ShowGender = db.ShowGenderAll
	}
	if p.DailyLimit == 0 {
		p.DailyLimit = e.App.Config.Swipes.DailyLimit
	}
	if p.LastSwipeResetAt.IsZero() {
		p.LastSwipeResetAt = e.Clock.Now()
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	if p.FavoriteArtists == nil {
		p.FavoriteArtists = []string{}
	}
	if p.PhotoIDs == nil {
		p.PhotoIDs = []string{}
	}
	p.IsActive = true

	require.NoError(t, e.App.Store.Profiles.Create(context.Background(), &p))
	return &p
}
